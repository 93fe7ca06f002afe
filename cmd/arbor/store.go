package main

import (
	"encoding/base64"
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/variables"
	backend "github.com/redis/go-redis/v9"
)

// sessions builds a session manager over Redis when an address is
// configured, or over a process-local memory store otherwise. Stored
// documents pass through the redact and encryption middlewares when
// configured. The returned func releases the connection.
func (a *app) sessions() (*session.Manager, func(), error) {
	mws, err := a.middlewares()
	if err != nil {
		return nil, nil, err
	}

	opts := []session.Option{
		session.WithLogger(a.logger),
		session.WithLockTTL(a.cfg.LockTTL),
		session.WithFactory(func() *variables.Manager {
			return variables.New(nil,
				variables.WithLogger(a.logger),
				variables.WithHooks(a.hooks()),
				variables.WithHistoryLimit(a.cfg.HistoryLimit),
			)
		}),
	}

	if a.cfg.RedisAddr == "" {
		a.logger.Warn("no redis address configured, projects live only for this process")
		return session.NewManager(middleware.Chain(memory.NewStore(), mws...), opts...), func() {}, nil
	}

	client := backend.NewClient(&backend.Options{Addr: a.cfg.RedisAddr})
	store := redis.NewFromClient(client,
		redis.WithPrefix(a.cfg.RedisPrefix),
		redis.WithTTL(a.cfg.ProjectTTL),
	)
	opts = append(opts, session.WithLocker(redis.NewLocker(client, a.cfg.RedisPrefix)))
	return session.NewManager(middleware.Chain(store, mws...), opts...), func() {
		if err := store.Close(); err != nil {
			a.logger.Warn("close redis", "err", err)
		}
	}, nil
}

func (a *app) middlewares() ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(a.cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(a.cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if a.cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(a.cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("ARBOR_ENCRYPTION_KEY: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, fmt.Errorf("ARBOR_ENCRYPTION_KEY: %w", err)
		}
		mws = append(mws, mw)
	}
	return mws, nil
}
