package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

var _ types.SettingsStore = (*settingsTable)(nil)

type settingsTable struct {
	backend *Backend
}

// Get returns the JSON value stored under key.
func (st *settingsTable) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	db, release, err := st.backend.conn()
	if err != nil {
		return nil, false, err
	}
	defer release()

	var value string
	err = db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// Set stores value under key as JSON.
func (st *settingsTable) Set(ctx context.Context, key string, value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding setting %s: %w", key, err)
	}
	db, release, err := st.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := db.ExecContext(ctx, upsertSetting, key, string(raw)); err != nil {
		return nil, fmt.Errorf("saving setting %s: %w", key, err)
	}
	return raw, nil
}
