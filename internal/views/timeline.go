package views

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// TimelineEntry is an activity with its computed end time.
type TimelineEntry struct {
	types.Activity
	End string `json:"end"`
}

// Timeline returns the activities logged on date in timeline order.
func Timeline(ctx context.Context, store types.ActivityStore, date string) ([]TimelineEntry, error) {
	activities, err := store.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading timeline for %s: %w", date, err)
	}
	SortTimeline(activities)

	entries := make([]TimelineEntry, 0, len(activities))
	for _, a := range activities {
		entries = append(entries, TimelineEntry{Activity: a, End: EndTime(a.Time, a.Duration)})
	}
	return entries, nil
}

// SortTimeline orders activities by start time, then ID.
func SortTimeline(activities []types.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if activities[i].Time != activities[j].Time {
			return activities[i].Time < activities[j].Time
		}
		return activities[i].ID < activities[j].ID
	})
}

// EndTime adds minutes to an HH:MM clock, wrapping past midnight. An
// unparseable clock is returned unchanged.
func EndTime(clock string, minutes int) string {
	start, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return start.Add(time.Duration(minutes) * time.Minute).Format("15:04")
}

// FormatClock renders an HH:MM clock as "9:05 AM".
func FormatClock(clock string) string {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return clock
	}
	return t.Format("3:04 PM")
}
