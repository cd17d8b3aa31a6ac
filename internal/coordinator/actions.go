package coordinator

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"

	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// AddActivity validates and stores a, selects its date and refreshes the
// views. An empty ID is filled with a new one. Store failures are returned
// before any refresh; view failures come back as joined *ViewError values
// alongside the saved activity.
func (c *Coordinator) AddActivity(ctx context.Context, a types.Activity) (types.Activity, error) {
	if a.ID == "" {
		a.ID = types.NewActivityID()
	}
	a.Category = types.NormalizeCategoryName(a.Category)
	if err := a.Validate(); err != nil {
		return types.Activity{}, err
	}
	date, err := types.ParseDate(a.Date)
	if err != nil {
		return types.Activity{}, err
	}

	saved, err := c.backend.Activities().Save(ctx, a)
	if err != nil {
		c.metrics.StoreError("activity_save")
		return types.Activity{}, fmt.Errorf("adding activity: %w", err)
	}
	c.state.Date = date
	return saved, c.NotifyMutated(ctx)
}

// DeleteActivity removes the activity with id and refreshes the views.
func (c *Coordinator) DeleteActivity(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if _, err := c.backend.Activities().Delete(ctx, id); err != nil {
		c.metrics.StoreError("activity_delete")
		return fmt.Errorf("deleting activity: %w", err)
	}
	return c.NotifyMutated(ctx)
}

// AddCategory stores a new user category with a generated color. Built-in
// names and names already stored return ErrCategoryExists. The views are
// refreshed afterwards since the chart palette reads categories.
func (c *Coordinator) AddCategory(ctx context.Context, name string) (types.Category, error) {
	name = types.NormalizeCategoryName(name)
	if name == "" {
		return types.Category{}, types.ErrInvalidName
	}
	if types.IsBuiltinCategory(name) {
		return types.Category{}, fmt.Errorf("%w: %s", types.ErrCategoryExists, name)
	}
	existing, err := c.backend.Categories().GetAll(ctx)
	if err != nil {
		c.metrics.StoreError("category_list")
		return types.Category{}, fmt.Errorf("listing categories: %w", err)
	}
	if slices.Contains(existing, name) {
		return types.Category{}, fmt.Errorf("%w: %s", types.ErrCategoryExists, name)
	}

	saved, err := c.backend.Categories().Save(ctx, types.Category{Name: name})
	if err != nil {
		c.metrics.StoreError("category_save")
		return types.Category{}, fmt.Errorf("adding category: %w", err)
	}
	return saved, c.NotifyMutated(ctx)
}

// Categories returns the built-in categories followed by the stored ones.
func (c *Coordinator) Categories(ctx context.Context) ([]types.Category, error) {
	custom, err := c.backend.Categories().List(ctx)
	if err != nil {
		c.metrics.StoreError("category_list")
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	all := append([]types.Category(nil), types.BuiltinCategories...)
	for _, cat := range custom {
		if !types.IsBuiltinCategory(cat.Name) {
			all = append(all, cat)
		}
	}
	return all, nil
}

// SetAutoSave stores the autoSave preference. Turning it on saves to file
// right away.
func (c *Coordinator) SetAutoSave(ctx context.Context, on bool) error {
	if _, err := c.backend.Settings().Set(ctx, types.SettingAutoSave, on); err != nil {
		c.metrics.StoreError("settings_set")
		return fmt.Errorf("saving autoSave: %w", err)
	}
	if on && c.exporter != nil {
		c.saveToFile(ctx)
	}
	return nil
}

// Select shows date in the timeline and summary and refreshes.
func (c *Coordinator) Select(ctx context.Context, date civil.Date) error {
	if !date.IsValid() {
		return types.ErrInvalidDate
	}
	c.state.Date = date
	return c.Refresh(ctx)
}

// SetChart changes the chart type and range and refreshes.
func (c *Coordinator) SetChart(ctx context.Context, t views.ChartType, r views.Range) error {
	if _, err := views.ParseChartType(string(t)); err != nil {
		return err
	}
	if _, err := views.ParseRange(string(r)); err != nil {
		return err
	}
	c.state.Chart, c.state.Range = t, r
	return c.Refresh(ctx)
}

// SetMonth shows the month containing month in the calendar and refreshes.
func (c *Coordinator) SetMonth(ctx context.Context, month civil.Date) error {
	if !month.IsValid() {
		return types.ErrInvalidDate
	}
	c.state.Month = types.MonthStart(month)
	return c.Refresh(ctx)
}
