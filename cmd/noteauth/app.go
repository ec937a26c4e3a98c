package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/dmitrymomot/noteauth/pkg/authflow"
	"github.com/dmitrymomot/noteauth/pkg/config"
	"github.com/dmitrymomot/noteauth/pkg/device"
	"github.com/dmitrymomot/noteauth/pkg/fingerprint"
	"github.com/dmitrymomot/noteauth/pkg/identity"
	"github.com/dmitrymomot/noteauth/pkg/keystore"
	"github.com/dmitrymomot/noteauth/pkg/kv"
	"github.com/dmitrymomot/noteauth/pkg/logger"
	"github.com/dmitrymomot/noteauth/pkg/session"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

const (
	storageBolt  = "bolt"
	storageMongo = "mongo"

	sessionMemory = "memory"
	sessionRedis  = "redis"
)

var errNoProvider = errors.New("no identity provider configured: set GOOGLE_OAUTH_CLIENT_ID/SECRET or NOTEAUTH_IDENTITY_SUBJECT/EMAIL")

type cliConfig struct {
	Env            string `env:"NOTEAUTH_ENV" envDefault:"development"`
	DataDir        string `env:"NOTEAUTH_DATA_DIR" envDefault:".noteauth"`
	Storage        string `env:"NOTEAUTH_STORAGE" envDefault:"bolt"`
	SessionStorage string `env:"NOTEAUTH_SESSION_STORAGE" envDefault:"memory"`
}

// app wires the services for one command run.
type app struct {
	log      *slog.Logger
	totp     totp.Config
	keys     *keystore.Store
	registry *device.Registry
	sessions *session.Manager
	orch     *authflow.Orchestrator
	provider identity.Provider
	closers  []func(context.Context) error
}

func openApp(ctx context.Context, opts *rootOptions) (_ *app, err error) {
	var cfg cliConfig
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	a := &app{log: newLogger(cfg.Env, opts.verbose, os.Stderr)}
	defer func() {
		if err != nil {
			_ = a.Close(ctx)
		}
	}()

	var boltCfg kv.BoltConfig
	if err := config.Load(&boltCfg); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(boltCfg.Path) {
		boltCfg.Path = filepath.Join(cfg.DataDir, boltCfg.Path)
	}
	// The device id and other per-device values always stay local, even
	// when secrets and device lists live in a remote store.
	local, err := kv.OpenBolt(boltCfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return local.Close() })

	durable, err := a.openDurable(ctx, cfg.Storage, local)
	if err != nil {
		return nil, err
	}

	var sessionCfg session.Config
	if err := config.Load(&sessionCfg); err != nil {
		return nil, err
	}
	volatile, err := a.openVolatile(ctx, cfg.SessionStorage, sessionCfg)
	if err != nil {
		return nil, err
	}

	var (
		deviceCfg device.Config
		flowCfg   authflow.Config
	)
	if err := errors.Join(config.Load(&deviceCfg), config.Load(&flowCfg), config.Load(&a.totp)); err != nil {
		return nil, err
	}

	source := fingerprint.NewHostSource()
	a.keys = keystore.New(durable, source, keystore.WithLogger(a.log))
	a.registry = device.NewRegistry(durable, fingerprint.NewDeviceIDs(local, source), source,
		device.WithConfig(deviceCfg),
		device.WithLogger(a.log),
	)
	a.sessions = session.New(volatile,
		session.WithConfig(sessionCfg),
		session.WithSealer(a.keys),
		session.WithLogger(a.log),
	)
	a.orch, err = authflow.New(a.keys, a.registry, a.sessions,
		authflow.WithConfig(flowCfg),
		authflow.WithTOTPConfig(a.totp),
		authflow.WithLogger(a.log),
	)
	if err != nil {
		return nil, err
	}

	a.provider, err = loadProvider()
	if err != nil {
		return nil, err
	}
	return a, nil
}

// attemptIDKey carries the id of the current sign-in attempt. Every log
// record written while the attempt runs is tagged with it.
type attemptIDKey struct{}

func newLogger(env string, verbose bool, w io.Writer) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(env, "noteauth"),
		logger.WithOutput(w),
		logger.WithContextValue("attempt_id", attemptIDKey{}),
	}
	if !verbose {
		opts = append(opts, logger.WithLevel(slog.LevelWarn))
	}
	return logger.New(opts...)
}

func (a *app) openDurable(ctx context.Context, kind string, local *kv.BoltStore) (kv.Store, error) {
	switch kind {
	case storageBolt, "":
		return local, nil
	case storageMongo:
		var cfg kv.MongoConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		store, err := kv.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage %q, want %s or %s", kind, storageBolt, storageMongo)
}

func (a *app) openVolatile(ctx context.Context, kind string, sessionCfg session.Config) (kv.Store, error) {
	switch kind {
	case sessionMemory, "":
		return kv.NewMemoryStore(), nil
	case sessionRedis:
		var cfg kv.RedisConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		if cfg.TTL == 0 {
			cfg.TTL = sessionCfg.TTL
		}
		client, err := kv.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := kv.NewRedisStore(client, cfg)
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		return store, nil
	}
	return nil, fmt.Errorf("unknown session storage %q, want %s or %s", kind, sessionMemory, sessionRedis)
}

func loadProvider() (identity.Provider, error) {
	var google identity.GoogleConfig
	if err := config.Load(&google); err != nil {
		return nil, err
	}
	if google.Configured() {
		return identity.NewGoogle(google), nil
	}

	var static identity.StaticConfig
	if err := config.Load(&static); err != nil {
		return nil, err
	}
	if static.Configured() {
		return identity.NewStatic(static), nil
	}
	return nil, errNoProvider
}

// Close releases stores in reverse order of opening.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		errs = append(errs, closeFn(ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}
