package types

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapSettings is a minimal SettingsStore for helper tests.
type mapSettings map[string]json.RawMessage

func (m mapSettings) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapSettings) Set(_ context.Context, key string, value any) (json.RawMessage, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	m[key] = b
	return b, nil
}

func TestGetBool(t *testing.T) {
	ctx := context.Background()
	s := mapSettings{}

	v, err := GetBool(ctx, s, SettingAutoSave)
	require.NoError(t, err)
	assert.False(t, v, "missing setting reads as false")

	_, err = s.Set(ctx, SettingAutoSave, true)
	require.NoError(t, err)
	v, err = GetBool(ctx, s, SettingAutoSave)
	require.NoError(t, err)
	assert.True(t, v)

	s[SettingAutoSave] = json.RawMessage(`"yes"`)
	_, err = GetBool(ctx, s, SettingAutoSave)
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestGetString(t *testing.T) {
	ctx := context.Background()
	s := mapSettings{}

	v, err := GetString(ctx, s, SettingLastSavedTime)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = s.Set(ctx, SettingLastSavedTime, "2024-03-01T09:00:00Z")
	require.NoError(t, err)
	v, err = GetString(ctx, s, SettingLastSavedTime)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T09:00:00Z", v)
}
