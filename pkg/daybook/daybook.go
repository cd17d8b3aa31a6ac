// Package daybook is the public entry point for programs that embed the
// activity log. It opens the configured backend while keeping the storage
// implementations internal.
//
// Example:
//
//	backend, err := daybook.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dir,
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
package daybook

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/daybook/internal/store"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/daybook"

// Open returns the backend described by cfg. An embedded store that cannot
// be attached falls back to the key-value store; data left in the key-value
// store is migrated into the embedded one the first time it opens. logger may
// be nil.
func Open(ctx context.Context, cfg types.Config, logger *slog.Logger) (types.Backend, error) {
	return store.Open(ctx, cfg, store.Options{Logger: logger})
}
