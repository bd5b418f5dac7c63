package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/apperror"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-service/internal/infrastructure/memory"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func existing(id string) *entity.User {
	return &entity.User{ID: id, Name: "john doe", Email: "john@x.com", Age: 21}
}

func requireKind(t *testing.T, err error, kind apperror.Kind, msg string) {
	t.Helper()
	e, ok := apperror.As(err)
	require.True(t, ok, "expected typed error, got %v", err)
	assert.Equal(t, kind, e.Kind)
	if msg != "" {
		assert.Equal(t, msg, e.Message)
	}
}

func TestService_Create_Success(t *testing.T) {
	r := &mockUserRepo{}
	idx := &mockIndexer{}
	n := &mockNotifier{}
	svc := NewService(r, idx, n, quietLogger())

	u, err := svc.Create(context.Background(), entity.NewUser{Name: "john doe", Email: "john@x.com", Age: 21})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, 21, u.Age)
	assert.Equal(t, []string{"john@x.com"}, r.emailLookups)
	assert.Equal(t, []string{"john doe"}, r.nameLookups)
	assert.Equal(t, 1, r.createCalls)
	assert.Equal(t, []string{"generated"}, idx.indexed)
	assert.Equal(t, []string{EventUserCreated}, n.events)
}

func TestService_Create_EmailConflict(t *testing.T) {
	r := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, email string) (*entity.User, error) {
			return existing("other"), nil
		},
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Create(context.Background(), entity.NewUser{Name: "jane", Email: "john@x.com"})
	requireKind(t, err, apperror.KindConflict, "user with email 'john@x.com' already exists")
	assert.Contains(t, err.Error(), "already exists")
	assert.Zero(t, r.createCalls)
	assert.Empty(t, r.nameLookups)
}

func TestService_Create_NameConflict(t *testing.T) {
	r := &mockUserRepo{
		findByNameFunc: func(_ context.Context, name string) (*entity.User, error) {
			return existing("other"), nil
		},
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Create(context.Background(), entity.NewUser{Name: "john doe", Email: "new@x.com"})
	requireKind(t, err, apperror.KindConflict, "user with name 'john doe' already exists")
	assert.Zero(t, r.createCalls)
}

func TestService_Create_LegacyNameLookupProbesEmail(t *testing.T) {
	r := &mockUserRepo{
		findByEmailFunc: func(_ context.Context, v string) (*entity.User, error) {
			if v == "john doe" {
				return existing("other"), nil
			}
			return nil, nil
		},
	}
	svc := NewService(r, nil, nil, nil)
	svc.LegacyNameLookup = true

	_, err := svc.Create(context.Background(), entity.NewUser{Name: "john doe", Email: "new@x.com"})
	requireKind(t, err, apperror.KindConflict, "user with name 'john doe' already exists")
	assert.Equal(t, []string{"new@x.com", "john doe"}, r.emailLookups)
	assert.Empty(t, r.nameLookups)
}

func TestService_Create_StoreDuplicateBecomesConflict(t *testing.T) {
	r := &mockUserRepo{
		createFunc: func(_ context.Context, in entity.NewUser) (*entity.User, error) {
			return nil, fmt.Errorf("insert user: %w", repository.ErrDuplicateEmail)
		},
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "race@x.com"})
	requireKind(t, err, apperror.KindConflict, "user with email 'race@x.com' already exists")
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestService_Create_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	r := &mockUserRepo{
		findByEmailFunc: func(context.Context, string) (*entity.User, error) { return nil, boom },
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "a@x.com"})
	assert.Same(t, boom, err)
}

func TestService_Create_SideEffectFailuresDoNotFail(t *testing.T) {
	idx := &mockIndexer{err: errors.New("es down")}
	n := &mockNotifier{err: errors.New("amqp down")}
	svc := NewService(&mockUserRepo{}, idx, n, quietLogger())

	u, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "a@x.com"})
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestService_GetOne(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) {
			if id == "known" {
				return existing(id), nil
			}
			return nil, nil
		},
	}
	svc := NewService(r, nil, nil, nil)

	u, err := svc.GetOne(context.Background(), "known")
	require.NoError(t, err)
	assert.Equal(t, "known", u.ID)

	_, err = svc.GetOne(context.Background(), "gone")
	requireKind(t, err, apperror.KindNotFound, "no user found with id 'gone'")
}

func TestService_GetAll(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, nil, nil)
	users, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	boom := errors.New("timeout")
	svc = NewService(&mockUserRepo{findAllFunc: func(context.Context) ([]entity.User, error) { return nil, boom }}, nil, nil, nil)
	_, err = svc.GetAll(context.Background())
	assert.Same(t, boom, err)
}

func TestService_Update_AgeOnlySkipsUniquenessLookups(t *testing.T) {
	current := existing("u1")
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) {
			u := *current
			return &u, nil
		},
		updateFunc: func(_ context.Context, id string, patch entity.UserPatch) (int64, error) {
			patch.Apply(current)
			return 1, nil
		},
	}
	n := &mockNotifier{}
	svc := NewService(r, nil, n, nil)

	u, err := svc.Update(context.Background(), "u1", entity.UserPatch{Age: intp(22)})
	require.NoError(t, err)
	assert.Equal(t, 22, u.Age)
	assert.Empty(t, r.emailLookups)
	assert.Empty(t, r.nameLookups)
	assert.Equal(t, 1, r.updateCalls)
	assert.Equal(t, []string{EventUserUpdated}, n.events)
}

func TestService_Update_EmailTakenDoesNotWrite(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
		findByEmailFunc: func(_ context.Context, email string) (*entity.User, error) {
			if email == "taken@x.com" {
				return &entity.User{ID: "someone-else", Email: email}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Update(context.Background(), "u1", entity.UserPatch{Email: strp("taken@x.com")})
	requireKind(t, err, apperror.KindConflict, "user with email 'taken@x.com' already exists")
	assert.Zero(t, r.updateCalls)
}

func TestService_Update_NameTaken(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc:   func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
		findByNameFunc: func(context.Context, string) (*entity.User, error) { return existing("x"), nil },
	}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Update(context.Background(), "u1", entity.UserPatch{Name: strp("john doe")})
	requireKind(t, err, apperror.KindConflict, "user with name 'john doe' already exists")
	assert.Zero(t, r.updateCalls)
}

func TestService_Update_OwnEmailConflicts(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	u, err := svc.Create(ctx, entity.NewUser{Name: "john doe", Email: "john@x.com"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, u.ID, entity.UserPatch{Email: strp("john@x.com")})
	requireKind(t, err, apperror.KindConflict, "user with email 'john@x.com' already exists")
}

func TestService_Update_NotFound(t *testing.T) {
	r := &mockUserRepo{}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Update(context.Background(), "nope", entity.UserPatch{Age: intp(1)})
	requireKind(t, err, apperror.KindNotFound, "no user found with id 'nope'")
	assert.Zero(t, r.updateCalls)
}

func TestService_Update_AffectedMismatchIsServerError(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
		updateFunc:   func(context.Context, string, entity.UserPatch) (int64, error) { return 0, nil },
	}
	idx := &mockIndexer{}
	svc := NewService(r, idx, nil, quietLogger())

	_, err := svc.Update(context.Background(), "u1", entity.UserPatch{Age: intp(30)})
	requireKind(t, err, apperror.KindServerError, "Server error occurred while updating")
	assert.Empty(t, idx.indexed)
}

func TestService_Update_EmptyPatchReturnsUnchanged(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	u, err := svc.Create(ctx, entity.NewUser{Name: "john doe", Email: "john@x.com", Age: 21})
	require.NoError(t, err)

	got, err := svc.Update(ctx, u.ID, entity.UserPatch{})
	require.NoError(t, err)
	assert.Equal(t, *u, *got)
}

func TestService_Delete_Success(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
	}
	idx := &mockIndexer{}
	n := &mockNotifier{}
	svc := NewService(r, idx, n, nil)

	res, err := svc.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, "successfully deleted user with id 'u1'", res.Message)
	assert.Equal(t, []string{"u1"}, idx.deleted)
	assert.Equal(t, []string{EventUserDeleted}, n.events)
}

func TestService_Delete_MissReturnsMessage(t *testing.T) {
	r := &mockUserRepo{
		findByIDFunc: func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
		deleteFunc:   func(context.Context, string) (int64, error) { return 0, nil },
	}
	n := &mockNotifier{}
	svc := NewService(r, nil, n, quietLogger())

	res, err := svc.Delete(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, "failed to delete user with id 'u1'", res.Message)
	assert.Empty(t, n.events)
}

func TestService_Delete_NotFound(t *testing.T) {
	r := &mockUserRepo{}
	svc := NewService(r, nil, nil, nil)

	_, err := svc.Delete(context.Background(), "gone")
	requireKind(t, err, apperror.KindNotFound, "no user found with id 'gone'")
	assert.Zero(t, r.deleteCalls)
}

func TestService_SearchUsers(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil, nil, nil)
	res, err := svc.SearchUsers(context.Background(), "john", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	svc.Indexer = &mockIndexer{}
	res, err = svc.SearchUsers(context.Background(), "john", 500)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 10, res[0]["size"])

	_, err = svc.SearchUsers(context.Background(), "  ", 5)
	requireKind(t, err, apperror.KindValidation, "search query must not be empty")
}

// Lifecycle against the in-memory store: round trip, uniqueness across
// users, and delete idempotence.
func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := memory.NewUserRepository().WithClock(func() time.Time { return fixed })
	svc := NewService(repo, nil, nil, nil)

	created, err := svc.Create(ctx, entity.NewUser{Name: "john doe", Email: "john@x.com", Age: 21})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "john doe", got.Name)
	assert.Equal(t, "john@x.com", got.Email)
	assert.Equal(t, 21, got.Age)

	_, err = svc.Create(ctx, entity.NewUser{Name: "jane doe", Email: "john@x.com"})
	requireKind(t, err, apperror.KindConflict, "")
	_, err = svc.Create(ctx, entity.NewUser{Name: "john doe", Email: "jane@x.com"})
	requireKind(t, err, apperror.KindConflict, "")

	jane, err := svc.Create(ctx, entity.NewUser{Name: "jane doe", Email: "jane@x.com"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, jane.ID)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	res, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	_, err = svc.GetOne(ctx, created.ID)
	requireKind(t, err, apperror.KindNotFound, fmt.Sprintf("no user found with id '%s'", created.ID))

	_, err = svc.Delete(ctx, created.ID)
	requireKind(t, err, apperror.KindNotFound, "")
}

func TestService_NegativeAgeIsValidationError(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		r := &mockUserRepo{}
		svc := NewService(r, nil, nil, nil)

		_, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "a@x.com", Age: -5})
		requireKind(t, err, apperror.KindValidation, "age must be greater than or equal to 0")
		assert.Zero(t, r.createCalls)
		assert.Empty(t, r.emailLookups)
	})

	t.Run("update", func(t *testing.T) {
		r := &mockUserRepo{
			findByIDFunc: func(_ context.Context, id string) (*entity.User, error) { return existing(id), nil },
		}
		svc := NewService(r, nil, nil, nil)

		_, err := svc.Update(context.Background(), "u1", entity.UserPatch{Age: intp(-1)})
		requireKind(t, err, apperror.KindValidation, "age must be greater than or equal to 0")
		assert.Zero(t, r.updateCalls)
	})

	t.Run("store check constraint", func(t *testing.T) {
		r := &mockUserRepo{
			createFunc: func(context.Context, entity.NewUser) (*entity.User, error) {
				return nil, fmt.Errorf("insert user: %w", repository.ErrNegativeAge)
			},
		}
		svc := NewService(r, nil, nil, nil)

		_, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "a@x.com"})
		requireKind(t, err, apperror.KindValidation, "age must be greater than or equal to 0")
		assert.ErrorIs(t, err, repository.ErrNegativeAge)
	})

	t.Run("memory store never holds a negative age", func(t *testing.T) {
		store := memory.NewUserRepository()
		svc := NewService(store, nil, nil, nil)

		_, err := svc.Create(context.Background(), entity.NewUser{Name: "a", Email: "a@x.com", Age: -5})
		requireKind(t, err, apperror.KindValidation, "age must be greater than or equal to 0")
		all, err := store.FindAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
