package cli

import (
	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/coordinator"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// parseDateFlag parses a --date value, defaulting to today.
func (a *app) parseDateFlag(value string) (civil.Date, error) {
	if value == "" {
		return types.Today(a.now()), nil
	}
	return types.ParseDate(value)
}

// showDate selects date and renders the views in show.
func (a *app) showDate(cmd *cobra.Command, value string, show ...coordinator.View) (err error) {
	date, err := a.parseDateFlag(value)
	if err != nil {
		return err
	}
	s, err := a.openSession(cmd, show...)
	if err != nil {
		return err
	}
	defer func() { err = s.finish(err) }()
	return fail(s.coord.Select(cmd.Context(), date))
}

func newSummaryCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show activity count and time per category for a day",
		Example: `  daybook summary
  daybook summary --date 2024-03-01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showDate(cmd, date, coordinator.ViewSummary)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the timeline, summary, chart and calendar",
		Long: `Show recomputes every view: the timeline and summary for a day, the chart
configured in config.yaml, and the calendar for the current month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showDate(cmd, date,
				coordinator.ViewTimeline, coordinator.ViewSummary,
				coordinator.ViewChart, coordinator.ViewCalendar)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func newChartCmd(a *app) *cobra.Command {
	var chartType, rangeName string
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Chart activities by category, by time, or by day",
		Long: `Chart aggregates the activities in a date range.

Types:  category (activity count), time (minutes per category), daily (minutes per day)
Ranges: today, week (since Sunday), month, all

Defaults come from chart.type and chart.range in config.yaml.`,
		Example: `  daybook chart --type time --range month`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			t, r := a.chartDefaults()
			if chartType != "" {
				if t, err = views.ParseChartType(chartType); err != nil {
					return err
				}
			}
			if rangeName != "" {
				if r, err = views.ParseRange(rangeName); err != nil {
					return err
				}
			}

			s, err := a.openSession(cmd, coordinator.ViewChart)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()
			return fail(s.coord.SetChart(cmd.Context(), t, r))
		},
	}
	cmd.Flags().StringVar(&chartType, "type", "", "chart type: category, time or daily")
	cmd.Flags().StringVar(&rangeName, "range", "", "date range: today, week, month or all")
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:     "calendar",
		Short:   "Show a month with the days that have activities marked",
		Example: `  daybook calendar --month 2024-03`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			m := types.MonthStart(types.Today(a.now()))
			if month != "" {
				if m, err = views.ParseMonth(month); err != nil {
					return err
				}
			}

			s, err := a.openSession(cmd, coordinator.ViewCalendar)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()
			return fail(s.coord.SetMonth(cmd.Context(), m))
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: this month)")
	return cmd
}
