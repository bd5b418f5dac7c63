package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
)

func TestMapWriteErr(t *testing.T) {
	emailDup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraintEmail}
	err := mapWriteErr(emailDup)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	assert.ErrorIs(t, err, emailDup)

	nameDup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: constraintName}
	assert.ErrorIs(t, mapWriteErr(nameDup), repository.ErrDuplicateName)

	otherDup := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_pkey"}
	assert.Same(t, otherDup, mapWriteErr(otherDup))

	ageCheck := &pgconn.PgError{Code: checkViolation, ConstraintName: constraintAge}
	assert.ErrorIs(t, mapWriteErr(ageCheck), repository.ErrNegativeAge)

	timestamps := &pgconn.PgError{Code: checkViolation, ConstraintName: "users_updated_after_created"}
	assert.Same(t, timestamps, mapWriteErr(timestamps))

	plain := errors.New("conn reset")
	assert.Same(t, plain, mapWriteErr(plain))
}

func TestBuildUpdate(t *testing.T) {
	name, email, age := "jane", "jane@x.com", 0

	cases := []struct {
		name  string
		patch entity.UserPatch
		query string
		args  []any
	}{
		{
			name:  "empty patch keeps updated_at",
			patch: entity.UserPatch{},
			query: `UPDATE users SET updated_at = updated_at WHERE id = $1`,
			args:  []any{"u1"},
		},
		{
			name:  "single field refreshes updated_at",
			patch: entity.UserPatch{Age: &age},
			query: `UPDATE users SET age = $1, updated_at = now() WHERE id = $2`,
			args:  []any{0, "u1"},
		},
		{
			name:  "all fields in column order",
			patch: entity.UserPatch{Age: &age, Email: &email, Name: &name},
			query: `UPDATE users SET name = $1, email = $2, age = $3, updated_at = now() WHERE id = $4`,
			args:  []any{"jane", "jane@x.com", 0, "u1"},
		},
		{
			name:  "email only",
			patch: entity.UserPatch{Email: &email},
			query: `UPDATE users SET email = $1, updated_at = now() WHERE id = $2`,
			args:  []any{"jane@x.com", "u1"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args := buildUpdate("u1", tc.patch)
			assert.Equal(t, tc.query, query)
			assert.Equal(t, tc.args, args)
		})
	}
}
