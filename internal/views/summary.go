package views

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Uncategorized labels activities with an empty category.
const Uncategorized = "uncategorized"

// CategorySummary is the count and total duration of one category.
type CategorySummary struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Minutes  int    `json:"minutes"`
}

// Duration returns Minutes formatted with FormatDuration.
func (s CategorySummary) Duration() string { return FormatDuration(s.Minutes) }

// Summarize groups activities by category in order of first appearance.
func Summarize(activities []types.Activity) []CategorySummary {
	index := make(map[string]int)
	var out []CategorySummary
	for _, a := range activities {
		key := categoryKey(a.Category)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CategorySummary{Category: key})
		}
		out[i].Count++
		out[i].Minutes += a.Duration
	}
	return out
}

// DailySummary summarizes the activities logged on date.
func DailySummary(ctx context.Context, store types.ActivityStore, date string) ([]CategorySummary, error) {
	activities, err := store.GetByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("loading summary for %s: %w", date, err)
	}
	SortTimeline(activities)
	return Summarize(activities), nil
}

// FormatDuration renders minutes as "Hh Mm" from one hour up, else "Nm".
func FormatDuration(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

func categoryKey(category string) string {
	if category == "" {
		return Uncategorized
	}
	return category
}
