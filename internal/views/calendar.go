package views

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// MonthLayout is the layout accepted by ParseMonth.
const MonthLayout = "2006-01"

// Day is one calendar cell.
type Day struct {
	Date       string   `json:"date"`
	Day        int      `json:"day"`
	Categories []string `json:"categories"`
}

// HasActivity reports whether anything was logged on the day.
func (d Day) HasActivity() bool { return len(d.Categories) > 0 }

// Month is the calendar grid for one month.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// Offset is the number of blank cells before the first day in a
	// Sunday-first week.
	Offset int   `json:"offset"`
	Days   []Day `json:"days"`
}

// Title renders "January 2024".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// ParseMonth parses YYYY-MM into the first day of that month.
func ParseMonth(s string) (civil.Date, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return civil.Date{Year: t.Year(), Month: t.Month(), Day: 1}, nil
}

// Calendar builds the month containing month with the distinct categories
// logged on each day.
func Calendar(ctx context.Context, store types.ActivityStore, month civil.Date) (Month, error) {
	first := types.MonthStart(month)
	last := types.MonthEnd(month)

	activities, err := store.GetByDateRange(ctx, first.String(), last.String())
	if err != nil {
		return Month{}, fmt.Errorf("loading calendar for %04d-%02d: %w", first.Year, first.Month, err)
	}
	byDate := make(map[string][]string)
	for _, a := range activities {
		key := categoryKey(a.Category)
		if !contains(byDate[a.Date], key) {
			byDate[a.Date] = append(byDate[a.Date], key)
		}
	}

	m := Month{
		Year:   first.Year,
		Month:  first.Month,
		Offset: int(types.Weekday(first)),
		Days:   make([]Day, 0, last.Day),
	}
	for d := first; !d.After(last); d = d.AddDays(1) {
		m.Days = append(m.Days, Day{Date: d.String(), Day: d.Day, Categories: byDate[d.String()]})
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
