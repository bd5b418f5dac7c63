// Package cache decorates the user repository with a Redis read-through cache.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-service/pkg/helpers"
)

func userKey(id string) string {
	return "user:" + id
}

// UserRepository caches FindByID results and drops them on every write to
// the same id. Redis failures are logged and the store is used directly.
type UserRepository struct {
	repository.UserRepository

	rdb    redis.Cmdable
	ttl    time.Duration
	logger *logrus.Logger
}

func NewUserRepository(next repository.UserRepository, rdb redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *UserRepository {
	return &UserRepository{UserRepository: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	key := userKey(id)
	var cached entity.User
	hit, err := helpers.RedisGetJSON(ctx, r.rdb, key, &cached)
	if err != nil {
		r.warn(err, key, "user cache read failed")
	}
	if hit {
		return &cached, nil
	}

	u, err := r.UserRepository.FindByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	if sErr := helpers.RedisSetJSON(ctx, r.rdb, key, u, r.ttl); sErr != nil {
		r.warn(sErr, key, "user cache write failed")
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (int64, error) {
	n, err := r.UserRepository.Update(ctx, id, patch)
	r.invalidate(ctx, id)
	return n, err
}

func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	n, err := r.UserRepository.Delete(ctx, id)
	r.invalidate(ctx, id)
	return n, err
}

func (r *UserRepository) invalidate(ctx context.Context, id string) {
	key := userKey(id)
	if err := helpers.RedisDel(ctx, r.rdb, key); err != nil {
		r.warn(err, key, "user cache invalidation failed")
	}
}

func (r *UserRepository) warn(err error, key, msg string) {
	if r.logger != nil {
		r.logger.WithError(err).WithField("key", key).Warn(msg)
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)
