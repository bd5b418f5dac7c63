package application

import (
	"context"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
)

type mockUserRepo struct {
	findAllFunc     func(ctx context.Context) ([]entity.User, error)
	findByIDFunc    func(ctx context.Context, id string) (*entity.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*entity.User, error)
	findByNameFunc  func(ctx context.Context, name string) (*entity.User, error)
	createFunc      func(ctx context.Context, in entity.NewUser) (*entity.User, error)
	updateFunc      func(ctx context.Context, id string, patch entity.UserPatch) (int64, error)
	deleteFunc      func(ctx context.Context, id string) (int64, error)

	emailLookups []string
	nameLookups  []string
	updateCalls  int
	deleteCalls  int
	createCalls  int
}

func (m *mockUserRepo) FindAll(ctx context.Context) ([]entity.User, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.emailLookups = append(m.emailLookups, email)
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByName(ctx context.Context, name string) (*entity.User, error) {
	m.nameLookups = append(m.nameLookups, name)
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, name)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, in)
	}
	return &entity.User{ID: "generated", Name: in.Name, Email: in.Email, Age: in.Age}, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id string, patch entity.UserPatch) (int64, error) {
	m.updateCalls++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, patch)
	}
	return 1, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (int64, error) {
	m.deleteCalls++
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 1, nil
}

type mockIndexer struct {
	indexed []string
	deleted []string
	err     error
}

func (m *mockIndexer) IndexUser(_ context.Context, u *entity.User) error {
	m.indexed = append(m.indexed, u.ID)
	return m.err
}

func (m *mockIndexer) DeleteUser(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *mockIndexer) SearchUsers(_ context.Context, q string, size int) ([]map[string]any, error) {
	return []map[string]any{{"q": q, "size": size}}, m.err
}

type mockNotifier struct {
	events []string
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, event string, _ *entity.User) error {
	m.events = append(m.events, event)
	return m.err
}
