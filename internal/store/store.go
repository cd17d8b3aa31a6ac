// Package store selects and opens the storage backend. The choice between the
// embedded SQLite store and the key-value fallback is made once per process
// and handed to callers as a single types.Backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/daybook/internal/kv"
	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/sqlite"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Options carries the collaborators Open reports to. Both fields may be nil.
type Options struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Open returns the backend described by cfg.
//
// With the kv backend configured, only the fallback is opened. With sqlite
// (the default), the embedded store is attached first; when it cannot attach,
// Open logs a warning and returns the fallback instead. Once attached, any
// fallback data not yet migrated is copied in. Migration failures are logged
// and do not fail Open.
func Open(ctx context.Context, cfg types.Config, opts Options) (types.Backend, error) {
	log := opts.logger()
	if cfg.Backend == "" {
		cfg.Backend = types.BackendSQLite
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Backend == types.BackendKV {
		return openFallback(ctx, cfg, opts)
	}

	embedded, err := sqlite.Open(ctx, cfg)
	if err != nil {
		log.Warn("embedded store unavailable, using fallback store",
			"error", err, "driver", kvDriver(cfg))
		return openFallback(ctx, cfg, opts)
	}

	migrateFallback(ctx, cfg, embedded, opts)

	log.Debug("using embedded store", "path", embedded.Path())
	opts.Metrics.BackendSelected(types.BackendSQLite)
	return embedded, nil
}

func openFallback(ctx context.Context, cfg types.Config, opts Options) (types.Backend, error) {
	fallback, err := kv.Open(ctx, cfg)
	if err != nil {
		opts.Metrics.StoreError("open")
		return nil, fmt.Errorf("opening fallback store: %w", err)
	}
	opts.logger().Debug("using fallback store", "driver", kvDriver(cfg))
	opts.Metrics.BackendSelected(types.BackendKV)
	return fallback, nil
}

// migrateFallback runs Migrate from the configured fallback store into
// embedded, logging instead of returning failures.
func migrateFallback(ctx context.Context, cfg types.Config, embedded types.Backend, opts Options) {
	log := opts.logger()

	state, err := ReadMigrationState(ctx, embedded)
	if err == nil && state == MigrationDone {
		opts.Metrics.MigrationRun(observability.ResultSkipped)
		return
	}

	fallback, err := kv.Open(ctx, cfg)
	if err != nil {
		opts.Metrics.MigrationRun(observability.ResultError)
		log.Error("opening fallback store for migration, will retry on next open", "error", err)
		return
	}
	defer func() {
		if err := fallback.Close(); err != nil {
			log.Warn("closing fallback store", "error", err)
		}
	}()

	if _, err := Migrate(ctx, fallback, embedded, opts); err != nil {
		log.Error("migrating fallback data failed, will retry on next open", "error", err)
	}
}

func kvDriver(cfg types.Config) string {
	if cfg.KV.Driver == "" {
		return types.KVDriverFile
	}
	return cfg.KV.Driver
}
