package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatLastSaved(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		saved time.Time
		want  string
	}{
		{"never", time.Time{}, NotSaved},
		{"seconds", now.Add(-30 * time.Second), "Just now"},
		{"one minute", now.Add(-61 * time.Second), "1 minute ago"},
		{"minutes", now.Add(-42 * time.Minute), "42 minutes ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-5*time.Hour - 10*time.Minute), "5 hours ago"},
		{"older", time.Date(2024, 3, 8, 9, 5, 0, 0, time.UTC), "Mar 8, 9:05 AM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLastSaved(tt.saved, now))
		})
	}
}
