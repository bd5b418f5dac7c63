package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-service/config"
	pginfra "github.com/oksasatya/go-ddd-user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-user-service/pkg/helpers"
)

// Bootstrap connects the infrastructure named by cfg and stores it in the
// container. Postgres is required when it is the store driver; Redis,
// Elasticsearch and RabbitMQ are optional and only warned about when
// unreachable. The returned func releases everything that was opened.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (func(), error) {
	SetConfig(cfg)
	SetLogger(logger)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.StoreDriver == config.StoreDriverPostgres {
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			return cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		SetPGPool(pool)
	}

	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unreachable; user cache and rate limiting disabled")
			_ = rdb.Close()
		} else {
			closers = append(closers, func() { _ = rdb.Close() })
			SetRedis(rdb)
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err == nil {
			err = helpers.EnsureUsersIndex(ctx, es, cfg.ESUsersIndex)
		}
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable; user search disabled")
		} else {
			SetES(es)
		}
	}

	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; lifecycle emails disabled")
		} else {
			closers = append(closers, pub.Close)
			SetRabbitPub(pub)
		}
	}

	return cleanup, nil
}
