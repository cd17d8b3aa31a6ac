package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

const (
	selectActivities = "SELECT id, date, time, duration, name, category FROM activities"
	orderActivities  = " ORDER BY date, time, id"

	upsertActivity = `INSERT INTO activities (id, date, time, duration, name, category)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    time = excluded.time,
    duration = excluded.duration,
    name = excluded.name,
    category = excluded.category`
)

var _ types.ActivityStore = (*activitiesTable)(nil)

type activitiesTable struct {
	backend *Backend
}

// GetAll returns every activity ordered by date, time and ID.
func (at *activitiesTable) GetAll(ctx context.Context) ([]types.Activity, error) {
	return at.query(ctx, selectActivities+orderActivities)
}

// GetByDate returns the activities logged on date.
func (at *activitiesTable) GetByDate(ctx context.Context, date string) ([]types.Activity, error) {
	return at.query(ctx, selectActivities+" WHERE date = ?"+orderActivities, date)
}

// GetByDateRange returns the activities with start <= date <= end.
func (at *activitiesTable) GetByDateRange(ctx context.Context, start, end string) ([]types.Activity, error) {
	return at.query(ctx, selectActivities+" WHERE date >= ? AND date <= ?"+orderActivities, start, end)
}

// Save upserts the activity by ID.
func (at *activitiesTable) Save(ctx context.Context, a types.Activity) (types.Activity, error) {
	if a.ID == "" {
		return types.Activity{}, types.ErrInvalidID
	}
	db, release, err := at.backend.conn()
	if err != nil {
		return types.Activity{}, err
	}
	defer release()

	if _, err := db.ExecContext(ctx, upsertActivity, a.ID, a.Date, a.Time, a.Duration, a.Name, a.Category); err != nil {
		return types.Activity{}, fmt.Errorf("saving activity %s: %w", a.ID, err)
	}
	return a, nil
}

// Delete removes the activity. Unknown IDs succeed.
func (at *activitiesTable) Delete(ctx context.Context, id string) (bool, error) {
	db, release, err := at.backend.conn()
	if err != nil {
		return false, err
	}
	defer release()

	if _, err := db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("deleting activity %s: %w", id, err)
	}
	return true, nil
}

func (at *activitiesTable) query(ctx context.Context, query string, args ...any) ([]types.Activity, error) {
	db, release, err := at.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	results := []types.Activity{}
	for rows.Next() {
		a, err := hydrateActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating activity: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return results, nil
}

// hydrateActivity converts a row from sql.Rows into a types.Activity.
func hydrateActivity(rows *sql.Rows) (types.Activity, error) {
	var a types.Activity
	if err := rows.Scan(&a.ID, &a.Date, &a.Time, &a.Duration, &a.Name, &a.Category); err != nil {
		return types.Activity{}, err
	}
	return a, nil
}
