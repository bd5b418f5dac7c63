package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/go-ddd-user-service/config"
	appuser "github.com/oksasatya/go-ddd-user-service/internal/application"
	"github.com/oksasatya/go-ddd-user-service/internal/container"
	repouser "github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
	"github.com/oksasatya/go-ddd-user-service/internal/infrastructure/cache"
	"github.com/oksasatya/go-ddd-user-service/internal/infrastructure/memory"
	"github.com/oksasatya/go-ddd-user-service/internal/infrastructure/notify"
	pginfra "github.com/oksasatya/go-ddd-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-service/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-ddd-user-service/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-service/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *appuser.Service
	Handler *handlers.UserHandler
	// StorePing is nil for the in-memory store
	StorePing func(ctx context.Context) error
}

// BuildUserService wires the user service from whatever the container holds:
// the configured store, an optional Redis read-through cache, an optional
// search index and optional lifecycle mail notifications.
func BuildUserService(cfg *config.Config) (*appuser.Service, func(ctx context.Context) error, error) {
	logger := container.GetLogger()

	var (
		repo repouser.UserRepository
		ping func(ctx context.Context) error
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		repo = memory.NewUserRepository()
	case config.StoreDriverPostgres:
		pool := container.GetPGPool()
		if pool == nil {
			return nil, nil, errors.New("postgres store selected but no pool is configured")
		}
		pg := pginfra.NewUserRepository(pool)
		repo, ping = pg, pg.Ping
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if rdb := container.RedisCmdable(); rdb != nil && cfg.UserCacheTTL > 0 {
		repo = cache.NewUserRepository(repo, rdb, cfg.UserCacheTTL, logger)
	}

	var indexer appuser.Indexer
	if es := container.GetES(); es != nil {
		indexer = search.NewUserIndex(es, cfg.ESUsersIndex, logger)
	}

	var notifier appuser.Notifier
	if pub := container.GetRabbitPub(); pub != nil && cfg.MailSendEnabled {
		notifier = notify.NewUserMailer(pub, cfg.AppName, cfg.CompanyName)
	}

	svc := appuser.NewService(repo, indexer, notifier, logger)
	svc.LegacyNameLookup = cfg.UserNameLookupLegacy
	return svc, ping, nil
}

func buildUserDeps(cfg *config.Config) (UserModuleDeps, error) {
	svc, ping, err := BuildUserService(cfg)
	if err != nil {
		return UserModuleDeps{}, err
	}
	return UserModuleDeps{
		Repo:      svc.Repo,
		Service:   svc,
		Handler:   handlers.NewUserHandler(svc, container.GetLogger()),
		StorePing: ping,
	}, nil
}

func healthChecks(storePing func(ctx context.Context) error) []modules.HealthCheck {
	checks := []modules.HealthCheck{{
		Name:     "store",
		Critical: true,
		Probe: func(ctx context.Context) error {
			if storePing == nil {
				return nil
			}
			return storePing(ctx)
		},
	}}
	if rdb := container.GetRedis(); rdb != nil {
		checks = append(checks, modules.HealthCheck{Name: "redis", Probe: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if es := container.GetES(); es != nil {
		checks = append(checks, modules.HealthCheck{Name: "elasticsearch", Probe: func(ctx context.Context) error {
			res, err := es.Ping(es.Ping.WithContext(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = res.Body.Close() }()
			if res.IsError() {
				return errors.New(res.Status())
			}
			return nil
		}})
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) error {
	cfg := container.GetConfig()
	if cfg == nil {
		return errors.New("config not set in container")
	}
	userDeps, err := buildUserDeps(cfg)
	if err != nil {
		return err
	}

	r.Add(modules.NewHealthModule(2*time.Second, healthChecks(userDeps.StorePing)...))
	r.Add(modules.NewUserModule(userDeps.Handler, container.RedisCmdable(), cfg.RateLimitPerMinute, container.GetLogger()))
	r.Add(modules.NewDebugModule(cfg.DebugMetricsEnabled))
	return nil
}
