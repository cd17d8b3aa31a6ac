// Package codec reads and writes the JSON envelope used to export the whole
// data set to a file and to import it back.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// DataVersion is written into every exported envelope.
const DataVersion Version = "1"

// ErrInvalidEnvelope is returned when an envelope has no activities array or
// carries records that cannot be stored.
var ErrInvalidEnvelope = errors.New("invalid data file: missing activities")

// Envelope is the exported data set.
type Envelope struct {
	Activities       []types.Activity  `json:"activities"`
	CustomCategories []string          `json:"customCategories"`
	CategoryColors   map[string]string `json:"categoryColors,omitempty"`
	Settings         *Settings         `json:"settings,omitempty"`
	Version          Version           `json:"version"`
	ExportDate       string            `json:"exportDate,omitempty"`
	SavedAt          string            `json:"savedAt,omitempty"`

	// Warnings lists optional fields Decode dropped because of their shape.
	Warnings []string `json:"-"`
}

// Settings is the subset of settings carried in an envelope.
type Settings struct {
	AutoSave *bool `json:"autoSave,omitempty"`
}

// Timestamp returns SavedAt, or ExportDate when SavedAt is empty.
func (e *Envelope) Timestamp() string {
	if e.SavedAt != "" {
		return e.SavedAt
	}
	return e.ExportDate
}

// Version is the envelope schema tag. Files carry it as a number or a string.
type Version string

// MarshalJSON writes integer versions as JSON numbers.
func (v Version) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(v)); err == nil && strconv.Itoa(n) == string(v) {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

// UnmarshalJSON accepts a JSON string or number.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("version must be a number or string: %w", err)
	}
	*v = Version(n.String())
	return nil
}

// rawEnvelope defers decoding so loosely typed files still load.
type rawEnvelope struct {
	Activities       json.RawMessage `json:"activities"`
	CustomCategories json.RawMessage `json:"customCategories"`
	CategoryColors   json.RawMessage `json:"categoryColors"`
	Settings         json.RawMessage `json:"settings"`
	Version          json.RawMessage `json:"version"`
	ExportDate       string          `json:"exportDate"`
	SavedAt          string          `json:"savedAt"`
}

// rawActivity accepts durations written as numbers or numeric strings.
type rawActivity struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Time     string          `json:"time"`
	Duration json.RawMessage `json:"duration"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
}

// Decode parses an envelope. It returns ErrInvalidEnvelope when activities
// is missing, is not an array, or holds a record without an ID. Optional
// fields of the wrong shape are dropped and noted in Warnings.
func Decode(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !isArray(raw.Activities) {
		return nil, ErrInvalidEnvelope
	}

	var records []rawActivity
	if err := json.Unmarshal(raw.Activities, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	env := &Envelope{
		Activities: make([]types.Activity, 0, len(records)),
		ExportDate: raw.ExportDate,
		SavedAt:    raw.SavedAt,
	}
	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: activity %d has no id", ErrInvalidEnvelope, i)
		}
		env.Activities = append(env.Activities, types.Activity{
			ID:       rec.ID,
			Date:     rec.Date,
			Time:     rec.Time,
			Duration: parseDuration(rec.Duration),
			Name:     rec.Name,
			Category: rec.Category,
		})
	}

	if present(raw.CustomCategories) {
		if !isArray(raw.CustomCategories) {
			env.warn("customCategories", errors.New("not a list"))
		} else if err := json.Unmarshal(raw.CustomCategories, &env.CustomCategories); err != nil {
			env.CustomCategories = nil
			env.warn("customCategories", err)
		}
	}
	if present(raw.CategoryColors) {
		if err := json.Unmarshal(raw.CategoryColors, &env.CategoryColors); err != nil {
			env.CategoryColors = nil
			env.warn("categoryColors", err)
		}
	}
	if present(raw.Settings) {
		var s Settings
		if err := json.Unmarshal(raw.Settings, &s); err != nil {
			env.warn("settings", err)
		} else {
			env.Settings = &s
		}
	}
	if present(raw.Version) {
		if err := json.Unmarshal(raw.Version, &env.Version); err != nil {
			env.warn("version", err)
		}
	}
	return env, nil
}

// Encode writes env as indented JSON.
func Encode(w io.Writer, env *Envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	return nil
}

func (e *Envelope) warn(field string, err error) {
	e.Warnings = append(e.Warnings, fmt.Sprintf("ignoring %s: %v", field, err))
}

// present reports whether raw holds a value other than null.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// parseDuration reads minutes from a JSON number or numeric string,
// truncating fractions. Anything else reads as zero.
func parseDuration(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
