package types

import (
	"context"
	"encoding/json"
	"fmt"
)

// Setting keys.
const (
	SettingAutoSave      = "autoSave"
	SettingLastSavedTime = "lastSavedTime"
	SettingMigrated      = "migratedFromLocalStorage"
)

// GetBool reads a boolean setting. A missing key reads as false.
func GetBool(ctx context.Context, s SettingsStore, key string) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, fmt.Errorf("setting %s: %w", key, ErrInvalidSetting)
	}
	return v, nil
}

// GetString reads a string setting. A missing key reads as "".
func GetString(ctx context.Context, s SettingsStore, key string) (string, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return "", err
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("setting %s: %w", key, ErrInvalidSetting)
	}
	return v, nil
}
