// Package coordinator refreshes every derived view after a change to the
// data set and runs the user actions that cause those changes.
//
// Views are recomputed in a fixed order: timeline, summary, chart, calendar.
// Each one re-queries the store, and a failure in one view does not stop the
// others. When auto-save is on the data set is then exported to file.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/observability"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// View names a derived view.
type View string

// Views in refresh order.
const (
	ViewTimeline View = "timeline"
	ViewSummary  View = "summary"
	ViewChart    View = "chart"
	ViewCalendar View = "calendar"
)

// ViewError reports a view that could not be refreshed.
type ViewError struct {
	View View
	Err  error
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("refreshing %s view: %v", e.View, e.Err)
}

func (e *ViewError) Unwrap() error { return e.Err }

// Renderer draws the derived views. The coordinator never inspects what a
// renderer produces; a returned error counts as a failure of that view.
type Renderer interface {
	RenderTimeline(date civil.Date, entries []views.TimelineEntry) error
	RenderSummary(date civil.Date, summary []views.CategorySummary) error
	RenderChart(chart views.Chart, r views.Range) error
	RenderCalendar(month views.Month) error
}

// Exporter writes the whole data set somewhere durable and returns where.
type Exporter interface {
	Export(ctx context.Context, b types.Backend) (string, error)
}

// ViewState is what the views are currently showing.
type ViewState struct {
	Date  civil.Date
	Chart views.ChartType
	Range views.Range
	Month civil.Date
}

// Coordinator owns the backend handle for a session.
type Coordinator struct {
	backend  types.Backend
	renderer Renderer
	exporter Exporter
	now      func() time.Time
	logger   *slog.Logger
	metrics  *observability.Metrics
	state    ViewState
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithExporter sets the auto-save target. Without one, auto-save is skipped.
func WithExporter(x Exporter) Option { return func(c *Coordinator) { c.exporter = x } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option { return func(c *Coordinator) { c.metrics = m } }

// WithState sets the initial view state. Zero fields keep their defaults.
func WithState(s ViewState) Option {
	return func(c *Coordinator) {
		if s.Date.IsValid() {
			c.state.Date = s.Date
		}
		if s.Chart != "" {
			c.state.Chart = s.Chart
		}
		if s.Range != "" {
			c.state.Range = s.Range
		}
		if s.Month.IsValid() {
			c.state.Month = types.MonthStart(s.Month)
		}
	}
}

// New returns a coordinator showing today, the category chart over the
// current week and the current month.
func New(b types.Backend, r Renderer, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:  b,
		renderer: r,
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}
	c.state = ViewState{Chart: views.ChartCategory, Range: views.RangeWeek}
	for _, opt := range opts {
		opt(c)
	}
	today := types.Today(c.now())
	if !c.state.Date.IsValid() {
		c.state.Date = today
	}
	if !c.state.Month.IsValid() {
		c.state.Month = types.MonthStart(today)
	}
	return c
}

// Backend returns the backend handle.
func (c *Coordinator) Backend() types.Backend { return c.backend }

// State returns the current view state.
func (c *Coordinator) State() ViewState { return c.state }

// NotifyMutated recomputes every view from the store and then auto-saves when
// enabled. The result joins one *ViewError per failed view; auto-save
// failures are logged and never returned.
func (c *Coordinator) NotifyMutated(ctx context.Context) error {
	err := c.Refresh(ctx)
	c.autoSave(ctx)
	return err
}

// Refresh recomputes every view without auto-saving.
func (c *Coordinator) Refresh(ctx context.Context) error {
	steps := []struct {
		view View
		run  func(context.Context) error
	}{
		{ViewTimeline, c.refreshTimeline},
		{ViewSummary, c.refreshSummary},
		{ViewChart, c.refreshChart},
		{ViewCalendar, c.refreshCalendar},
	}

	var errs []error
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			c.logger.Warn("view refresh failed", "view", step.view, "error", err)
			c.metrics.ViewFailure(string(step.view))
			errs = append(errs, &ViewError{View: step.view, Err: err})
		}
	}

	return errors.Join(errs...)
}

func (c *Coordinator) refreshTimeline(ctx context.Context) error {
	entries, err := views.Timeline(ctx, c.backend.Activities(), c.state.Date.String())
	if err != nil {
		return err
	}
	return c.renderer.RenderTimeline(c.state.Date, entries)
}

func (c *Coordinator) refreshSummary(ctx context.Context) error {
	summary, err := views.DailySummary(ctx, c.backend.Activities(), c.state.Date.String())
	if err != nil {
		return err
	}
	return c.renderer.RenderSummary(c.state.Date, summary)
}

func (c *Coordinator) refreshChart(ctx context.Context) error {
	activities, err := views.Filter(ctx, c.backend.Activities(), c.state.Range, types.Today(c.now()))
	if err != nil {
		return err
	}
	palette, err := views.LoadPalette(ctx, c.backend.Categories())
	if err != nil {
		return err
	}
	chart, err := views.BuildChart(c.state.Chart, activities, palette)
	if err != nil {
		return err
	}
	return c.renderer.RenderChart(chart, c.state.Range)
}

func (c *Coordinator) refreshCalendar(ctx context.Context) error {
	month, err := views.Calendar(ctx, c.backend.Activities(), c.state.Month)
	if err != nil {
		return err
	}
	return c.renderer.RenderCalendar(month)
}

// autoSave exports the data set when the autoSave setting is on.
func (c *Coordinator) autoSave(ctx context.Context) {
	if c.exporter == nil {
		return
	}
	enabled, err := types.GetBool(ctx, c.backend.Settings(), types.SettingAutoSave)
	if err != nil {
		c.logger.Warn("reading autoSave setting", "error", err)
		c.metrics.StoreError("settings_get")
		return
	}
	if enabled {
		c.saveToFile(ctx)
	}
}

func (c *Coordinator) saveToFile(ctx context.Context) {
	path, err := c.exporter.Export(ctx, c.backend)
	if err != nil {
		c.logger.Error("auto-save failed", "error", err)
		c.metrics.AutoSave(observability.ResultError, 0)
		return
	}
	c.logger.Info("auto-saved data", "path", path)
	c.metrics.AutoSave(observability.ResultOK, c.now().Unix())
}
