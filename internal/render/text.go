// Package render draws the derived views for a terminal, either as aligned
// text or as a single JSON document.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Empty-view messages.
const (
	EmptyTimeline = "No activities added yet for this date"
	EmptySummary  = "No activities to summarize for this date"
	EmptyChart    = "No activities in this range"
)

// barWidth is the length of the longest chart bar.
const barWidth = 30

var rangeTitles = map[views.Range]string{
	views.RangeToday: "Today",
	views.RangeWeek:  "This Week",
	views.RangeMonth: "This Month",
	views.RangeAll:   "All Time",
}

// Text writes each view as soon as it is rendered.
type Text struct {
	w io.Writer
}

// NewText returns a text renderer writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

// RenderTimeline lists the day's activities with start and end times.
func (t *Text) RenderTimeline(date civil.Date, entries []views.TimelineEntry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", LongDate(date))
	if len(entries) == 0 {
		fmt.Fprintf(&b, "  %s\n\n", EmptyTimeline)
		return t.flush(b.String())
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "  %s - %s\t(%d mins)\t%s\t%s\t%s\n",
			views.FormatClock(e.Time), views.FormatClock(e.End), e.Duration,
			e.Name, types.DisplayName(e.Category), e.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b.WriteString("\n")
	return t.flush(b.String())
}

// RenderSummary lists count and total duration per category.
func (t *Text) RenderSummary(date civil.Date, summary []views.CategorySummary) error {
	var b strings.Builder
	b.WriteString("Summary\n")
	if len(summary) == 0 {
		fmt.Fprintf(&b, "  %s\n\n", EmptySummary)
		return t.flush(b.String())
	}

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, s := range summary {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", types.DisplayName(s.Category), activityCount(s.Count), s.Duration())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b.WriteString("\n")
	return t.flush(b.String())
}

// RenderChart draws horizontal bars scaled to the largest point.
func (t *Text) RenderChart(chart views.Chart, r views.Range) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s\n", chart.Series, RangeTitle(r))
	if len(chart.Points) == 0 {
		fmt.Fprintf(&b, "  %s\n\n", EmptyChart)
		return t.flush(b.String())
	}

	peak := 0
	for _, p := range chart.Points {
		peak = max(peak, p.Value)
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, p := range chart.Points {
		fmt.Fprintf(tw, "  %s\t%s %d\n", p.Label, bar(p.Value, peak), p.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b.WriteString("\n")
	return t.flush(b.String())
}

// RenderCalendar draws a Sunday-first month grid. Days with activity are
// marked with an asterisk.
func (t *Text) RenderCalendar(month views.Month) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", month.Title())
	b.WriteString("Su  Mo  Tu  We  Th  Fr  Sa\n")

	col := month.Offset
	b.WriteString(strings.Repeat("    ", col))
	for _, d := range month.Days {
		mark := " "
		if d.HasActivity() {
			mark = "*"
		}
		fmt.Fprintf(&b, "%2d%s", d.Day, mark)
		col++
		if col == 7 {
			b.WriteString("\n")
			col = 0
		} else {
			b.WriteString(" ")
		}
	}
	if col != 0 {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return t.flush(b.String())
}

func (t *Text) flush(s string) error {
	_, err := io.WriteString(t.w, s)
	return err
}

// LongDate renders "Friday, March 1, 2024".
func LongDate(d civil.Date) string {
	return fmt.Sprintf("%s, %s %d, %d", types.Weekday(d), d.Month, d.Day, d.Year)
}

// RangeTitle names a chart range for display.
func RangeTitle(r views.Range) string {
	if title, ok := rangeTitles[r]; ok {
		return title
	}
	return string(r)
}

func activityCount(n int) string {
	if n == 1 {
		return "1 activity"
	}
	return fmt.Sprintf("%d activities", n)
}

func bar(value, peak int) string {
	if peak <= 0 || value <= 0 {
		return ""
	}
	n := max(value*barWidth/peak, 1)
	return strings.Repeat("#", n)
}
