package render

import (
	"slices"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/coordinator"
	"github.com/mesh-intelligence/daybook/internal/views"
)

// Only passes through the named views and drops the rest. The coordinator
// still recomputes all four; Only decides what reaches the terminal.
func Only(r coordinator.Renderer, show ...coordinator.View) coordinator.Renderer {
	return &only{next: r, show: show}
}

type only struct {
	next coordinator.Renderer
	show []coordinator.View
}

func (o *only) RenderTimeline(date civil.Date, entries []views.TimelineEntry) error {
	if !slices.Contains(o.show, coordinator.ViewTimeline) {
		return nil
	}
	return o.next.RenderTimeline(date, entries)
}

func (o *only) RenderSummary(date civil.Date, summary []views.CategorySummary) error {
	if !slices.Contains(o.show, coordinator.ViewSummary) {
		return nil
	}
	return o.next.RenderSummary(date, summary)
}

func (o *only) RenderChart(chart views.Chart, r views.Range) error {
	if !slices.Contains(o.show, coordinator.ViewChart) {
		return nil
	}
	return o.next.RenderChart(chart, r)
}

func (o *only) RenderCalendar(month views.Month) error {
	if !slices.Contains(o.show, coordinator.ViewCalendar) {
		return nil
	}
	return o.next.RenderCalendar(month)
}
