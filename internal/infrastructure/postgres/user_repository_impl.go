package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"

	constraintEmail = "users_email_key"
	constraintName  = "users_name_key"
	constraintAge   = "users_age_check"

	selectUser = `SELECT id::text, name, email, age, created_at, updated_at FROM users`
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, selectUser+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *UserRepository) FindByName(ctx context.Context, name string) (*entity.User, error) {
	return r.findOne(ctx, selectUser+` WHERE name = $1`, name)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, query, arg)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	u := &entity.User{Name: in.Name, Email: in.Email, Age: in.Age}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, age)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at, updated_at
	`, in.Name, in.Email, in.Age)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapWriteErr(err)
	}
	return u, nil
}

// Update writes only the supplied columns. An empty patch still matches the
// row so callers get an affected count of 1 for an existing user, but leaves
// updated_at alone.
func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (int64, error) {
	query, args := buildUpdate(id, patch)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return tag.RowsAffected(), nil
}

// buildUpdate renders the UPDATE for the supplied columns in name, email,
// age order; id is always the last placeholder.
func buildUpdate(id string, patch entity.UserPatch) (string, []any) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Age != nil {
		add("age", *patch.Age)
	}
	if len(sets) == 0 {
		sets = append(sets, "updated_at = updated_at")
	} else {
		sets = append(sets, "updated_at = now()")
	}
	args = append(args, id)
	return fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args
}

func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Ping reports whether the store is reachable
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// mapWriteErr tags constraint violations with the repository errors
// while keeping the driver error in the chain.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintEmail:
		return fmt.Errorf("%w: %w", repository.ErrDuplicateEmail, err)
	case pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName:
		return fmt.Errorf("%w: %w", repository.ErrDuplicateName, err)
	case pgErr.Code == checkViolation && pgErr.ConstraintName == constraintAge:
		return fmt.Errorf("%w: %w", repository.ErrNegativeAge, err)
	default:
		return err
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
