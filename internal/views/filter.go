package views

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Range selects the activities a chart covers.
type Range string

// Supported ranges.
const (
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeAll   Range = "all"
)

// ErrUnknownRange is returned by ParseRange.
var ErrUnknownRange = errors.New("unknown date range")

// Ranges lists the supported ranges.
var Ranges = []Range{RangeToday, RangeWeek, RangeMonth, RangeAll}

// ParseRange validates s as a Range.
func ParseRange(s string) (Range, error) {
	for _, r := range Ranges {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Bounds returns the inclusive date span of r ending today. ok is false for
// RangeAll, which has no bounds.
func (r Range) Bounds(today civil.Date) (start, end civil.Date, ok bool) {
	switch r {
	case RangeToday:
		return today, today, true
	case RangeWeek:
		return types.WeekStart(today), today, true
	case RangeMonth:
		return types.MonthStart(today), today, true
	default:
		return civil.Date{}, civil.Date{}, false
	}
}

// Filter loads the activities inside r.
func Filter(ctx context.Context, store types.ActivityStore, r Range, today civil.Date) ([]types.Activity, error) {
	start, end, ok := r.Bounds(today)
	if !ok {
		activities, err := store.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading activities: %w", err)
		}
		return activities, nil
	}
	activities, err := store.GetByDateRange(ctx, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("loading activities %s..%s: %w", start, end, err)
	}
	return activities, nil
}
