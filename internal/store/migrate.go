package store

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// MigrationState records whether fallback data has been copied into the
// embedded store.
type MigrationState int

const (
	MigrationNotStarted MigrationState = iota
	MigrationDone
)

func (s MigrationState) String() string {
	switch s {
	case MigrationDone:
		return "done"
	default:
		return "not_started"
	}
}

// ReadMigrationState reads the sentinel setting from dst.
func ReadMigrationState(ctx context.Context, dst types.Backend) (MigrationState, error) {
	done, err := types.GetBool(ctx, dst.Settings(), types.SettingMigrated)
	if err != nil {
		return MigrationNotStarted, err
	}
	if done {
		return MigrationDone, nil
	}
	return MigrationNotStarted, nil
}

// Migrate copies every activity and category from src into dst, one Save at a
// time with IDs preserved, and then sets the sentinel. It does nothing when
// the sentinel is already set. On error the sentinel stays unset; a later run
// repeats the copy, which is safe because Save is an upsert.
func Migrate(ctx context.Context, src, dst types.Backend, opts Options) (MigrationState, error) {
	log := opts.logger()

	state, err := ReadMigrationState(ctx, dst)
	if err != nil {
		opts.Metrics.MigrationRun(observability.ResultError)
		return MigrationNotStarted, fmt.Errorf("reading migration state: %w", err)
	}
	if state == MigrationDone {
		opts.Metrics.MigrationRun(observability.ResultSkipped)
		return state, nil
	}

	activities, err := src.Activities().GetAll(ctx)
	if err != nil {
		opts.Metrics.MigrationRun(observability.ResultError)
		return MigrationNotStarted, fmt.Errorf("reading fallback activities: %w", err)
	}
	for _, a := range activities {
		if _, err := dst.Activities().Save(ctx, a); err != nil {
			opts.Metrics.MigrationRun(observability.ResultError)
			return MigrationNotStarted, fmt.Errorf("migrating activity %s: %w", a.ID, err)
		}
	}
	opts.Metrics.RecordsMigrated("activity", len(activities))

	categories, err := src.Categories().List(ctx)
	if err != nil {
		opts.Metrics.MigrationRun(observability.ResultError)
		return MigrationNotStarted, fmt.Errorf("reading fallback categories: %w", err)
	}
	for _, c := range categories {
		if _, err := dst.Categories().Save(ctx, c); err != nil {
			opts.Metrics.MigrationRun(observability.ResultError)
			return MigrationNotStarted, fmt.Errorf("migrating category %s: %w", c.Name, err)
		}
	}
	opts.Metrics.RecordsMigrated("category", len(categories))

	if _, err := dst.Settings().Set(ctx, types.SettingMigrated, true); err != nil {
		opts.Metrics.MigrationRun(observability.ResultError)
		return MigrationNotStarted, fmt.Errorf("setting migration sentinel: %w", err)
	}

	opts.Metrics.MigrationRun(observability.ResultOK)
	log.Info("migrated fallback data", "activities", len(activities), "categories", len(categories))
	return MigrationDone, nil
}
