package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity is one logged occurrence of a named action.
type Activity struct {
	ID       string `json:"id"`       // UUID v7, assigned on creation.
	Date     string `json:"date"`     // YYYY-MM-DD, no zone.
	Time     string `json:"time"`     // HH:MM, 24-hour.
	Duration int    `json:"duration"` // Minutes.
	Name     string `json:"name"`
	Category string `json:"category"`
}

// NewActivityID returns a new time-ordered activity ID.
func NewActivityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Validate checks the fields a freshly created activity must carry. Stores do
// not call Validate so that legacy records still load.
func (a Activity) Validate() error {
	if a.ID == "" {
		return ErrInvalidID
	}
	if _, err := ParseDate(a.Date); err != nil {
		return err
	}
	if err := ValidateClock(a.Time); err != nil {
		return err
	}
	if a.Duration <= 0 {
		return ErrInvalidDuration
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

// ValidateClock checks that s is a zero-padded 24-hour HH:MM time of day.
func ValidateClock(s string) error {
	if len(s) != 5 {
		return ErrInvalidTime
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTime
	}
	return nil
}
