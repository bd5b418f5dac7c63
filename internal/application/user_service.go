package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/apperror"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
)

// Lifecycle events handed to the Notifier; they double as mail template names.
const (
	EventUserCreated = "user_created"
	EventUserUpdated = "user_updated"
	EventUserDeleted = "user_deleted"
)

const msgUpdateFailed = "Server error occurred while updating"

// Indexer keeps a searchable copy of users.
type Indexer interface {
	IndexUser(ctx context.Context, u *entity.User) error
	DeleteUser(ctx context.Context, id string) error
	SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// Notifier announces user lifecycle events.
type Notifier interface {
	Notify(ctx context.Context, event string, u *entity.User) error
}

// Service owns the user business rules: uniqueness, existence checks and
// the translation of store results into typed outcomes.
//
// Uniqueness is check-then-act. Two concurrent writes for the same email can
// both pass the pre-check; the store's unique indexes reject the loser and
// the resulting duplicate error is reported as the same Conflict.
type Service struct {
	Repo     repo.UserRepository
	Indexer  Indexer
	Notifier Notifier
	Logger   *logrus.Logger

	// LegacyNameLookup probes FindByEmail with the name value instead of FindByName.
	LegacyNameLookup bool
}

func NewService(repo repo.UserRepository, indexer Indexer, notifier Notifier, logger *logrus.Logger) *Service {
	return &Service{
		Repo:     repo,
		Indexer:  indexer,
		Notifier: notifier,
		Logger:   logger,
	}
}

// DeleteResult is the non-error outcome of Delete.
type DeleteResult struct {
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

func notFound(id string) *apperror.Error {
	return apperror.NotFound("no user found with id '%s'", id)
}

func emailTaken(email string) *apperror.Error {
	return apperror.Conflict("user with email '%s' already exists", email)
}

func nameTaken(name string) *apperror.Error {
	return apperror.Conflict("user with name '%s' already exists", name)
}

func negativeAge() *apperror.Error {
	return apperror.Validation("age must be greater than or equal to 0")
}

// Create validates that email and name are unused and persists a new user.
func (s *Service) Create(ctx context.Context, in entity.NewUser) (*entity.User, error) {
	if in.Age < 0 {
		return nil, negativeAge()
	}
	if err := s.ensureEmailFree(ctx, in.Email); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, in.Name); err != nil {
		return nil, err
	}

	u, err := s.Repo.Create(ctx, in)
	if err != nil {
		return nil, s.translateDuplicate(err, in.Email, in.Name)
	}

	s.afterWrite(ctx, EventUserCreated, u)
	return u, nil
}

// GetOne returns the user with the given id or a NotFound failure.
func (s *Service) GetOne(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound(id)
	}
	return u, nil
}

// GetAll returns every user in store order.
func (s *Service) GetAll(ctx context.Context) ([]entity.User, error) {
	users, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

// Update applies a partial update after existence and uniqueness checks.
// The uniqueness checks do not exclude the user being updated, so setting
// a field to its current value is reported as a conflict. An empty patch
// is passed straight through and returns the unchanged record.
func (s *Service) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	if patch.Age != nil && *patch.Age < 0 {
		return nil, negativeAge()
	}
	found, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, notFound(id)
	}

	if patch.Email != nil {
		if err := s.ensureEmailFree(ctx, *patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Name != nil {
		if err := s.ensureNameFree(ctx, *patch.Name); err != nil {
			return nil, err
		}
	}

	affected, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return nil, s.translateDuplicate(err, deref(patch.Email), deref(patch.Name))
	}
	if affected != 1 {
		if s.Logger != nil {
			s.Logger.WithField("user_id", id).WithField("affected", affected).Error("user update affected unexpected record count")
		}
		return nil, apperror.ServerError(msgUpdateFailed)
	}

	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// removed between the write and the re-fetch
		return nil, notFound(id)
	}

	s.afterWrite(ctx, EventUserUpdated, u)
	return u, nil
}

// Delete removes the user. A store that reports nothing was removed after
// the existence check yields a failure message, not an error.
func (s *Service) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	found, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, notFound(id)
	}

	affected, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if affected != 1 {
		if s.Logger != nil {
			s.Logger.WithField("user_id", id).WithField("affected", affected).Warn("user delete removed nothing")
		}
		return &DeleteResult{Message: "failed to delete user with id '" + id + "'"}, nil
	}

	if s.Indexer != nil {
		if iErr := s.Indexer.DeleteUser(ctx, id); iErr != nil {
			s.warn(iErr, id, "remove user from search index failed")
		}
	}
	s.notify(ctx, EventUserDeleted, found)

	return &DeleteResult{Message: "successfully deleted user with id '" + id + "'", Deleted: true}, nil
}

// SearchUsers runs a full text query against the search index.
// Without an index configured it returns an empty result.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apperror.Validation("search query must not be empty")
	}
	if s.Indexer == nil {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Indexer.SearchUsers(ctx, q, size)
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u != nil {
		return emailTaken(email)
	}
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string) error {
	var (
		u   *entity.User
		err error
	)
	if s.LegacyNameLookup {
		u, err = s.Repo.FindByEmail(ctx, name)
	} else {
		u, err = s.Repo.FindByName(ctx, name)
	}
	if err != nil {
		return err
	}
	if u != nil {
		return nameTaken(name)
	}
	return nil
}

// translateDuplicate turns a store constraint violation into the same
// typed failure the pre-checks raise. Other errors pass through unchanged.
func (s *Service) translateDuplicate(err error, email, name string) error {
	switch {
	case errors.Is(err, repo.ErrDuplicateEmail):
		return emailTaken(email).WithCause(err)
	case errors.Is(err, repo.ErrDuplicateName):
		return nameTaken(name).WithCause(err)
	case errors.Is(err, repo.ErrNegativeAge):
		return negativeAge().WithCause(err)
	default:
		return err
	}
}

func (s *Service) afterWrite(ctx context.Context, event string, u *entity.User) {
	if s.Indexer != nil {
		if err := s.Indexer.IndexUser(ctx, u); err != nil {
			s.warn(err, u.ID, "index user failed")
		}
	}
	s.notify(ctx, event, u)
}

func (s *Service) notify(ctx context.Context, event string, u *entity.User) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, event, u); err != nil {
		s.warn(err, u.ID, "publish "+event+" failed")
	}
}

func (s *Service) warn(err error, userID, msg string) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
