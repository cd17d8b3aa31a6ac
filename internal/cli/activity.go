package cli

import (
	"cmp"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/internal/coordinator"
	"github.com/mesh-intelligence/daybook/internal/views"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

func newAddCmd(a *app) *cobra.Command {
	var in types.Activity
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log an activity",
		Long: `Add logs an activity and shows the timeline and summary for its date.

The date defaults to today and the time to now. The category must be a
built-in category or one added with "daybook category add".

Example:
  daybook add --name "Standup" --duration 15 --category work
  daybook add --date 2024-03-01 --time 12:30 --duration 45 --name Lunch --category meals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			now := a.now()
			if in.Date == "" {
				in.Date = types.Today(now).String()
			}
			if in.Time == "" {
				in.Time = now.Format("15:04")
			}

			s, err := a.openSession(cmd, coordinator.ViewTimeline, coordinator.ViewSummary)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			if err := checkCategory(s, in.Category); err != nil {
				return err
			}
			saved, err := s.coord.AddActivity(cmd.Context(), in)
			if saved.ID != "" {
				s.report(saved, "Added activity %s\n", saved.ID)
			}
			return fail(err)
		},
	}
	cmd.Flags().StringVar(&in.Date, "date", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&in.Time, "time", "", "start time as HH:MM (default: now)")
	cmd.Flags().IntVar(&in.Duration, "duration", 0, "duration in minutes (required)")
	cmd.Flags().StringVar(&in.Name, "name", "", "what you did (required)")
	cmd.Flags().StringVar(&in.Category, "category", types.CategoryOther, "category name")
	_ = cmd.MarkFlagRequired("duration")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// checkCategory rejects categories that are neither built in nor stored.
func checkCategory(s *session, name string) error {
	name = types.NormalizeCategoryName(name)
	cats, err := s.coord.Categories(s.cmd.Context())
	if err != nil {
		return fail(err)
	}
	for _, c := range cats {
		if c.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%w %q (add it with \"daybook category add\")", errUnknownCategory, name)
}

func newListCmd(a *app) *cobra.Command {
	var date, from, to string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged activities",
		Long: `List prints activities ordered by date and time.

Without flags it lists today. Use --date for one day, --from and --to for an
inclusive range, or --all for everything.

Example:
  daybook list
  daybook list --date 2024-03-01
  daybook list --from 2024-03-01 --to 2024-03-07
  daybook list --all --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			activities, err := listActivities(s, a, date, from, to, all)
			if err != nil {
				return fail(err)
			}
			sortActivities(activities)
			if s.jsonOut != nil {
				if activities == nil {
					activities = []types.Activity{}
				}
				s.report(activities, "")
				return nil
			}
			return printActivities(s, activities)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "list one date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "first date of a range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date of a range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&all, "all", false, "list every activity")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	cmd.MarkFlagsMutuallyExclusive("date", "all")
	cmd.MarkFlagsMutuallyExclusive("from", "all")
	cmd.MarkFlagsRequiredTogether("from", "to")
	return cmd
}

func listActivities(s *session, a *app, date, from, to string, all bool) ([]types.Activity, error) {
	ctx := s.cmd.Context()
	store := s.backend.Activities()
	switch {
	case all:
		return store.GetAll(ctx)
	case from != "":
		start, err := types.ParseDate(from)
		if err != nil {
			return nil, err
		}
		end, err := types.ParseDate(to)
		if err != nil {
			return nil, err
		}
		return store.GetByDateRange(ctx, start.String(), end.String())
	case date != "":
		d, err := types.ParseDate(date)
		if err != nil {
			return nil, err
		}
		return store.GetByDate(ctx, d.String())
	default:
		return store.GetByDate(ctx, types.Today(a.now()).String())
	}
}

func sortActivities(activities []types.Activity) {
	slices.SortStableFunc(activities, func(x, y types.Activity) int {
		return cmp.Or(
			cmp.Compare(x.Date, y.Date),
			cmp.Compare(x.Time, y.Time),
			cmp.Compare(x.ID, y.ID),
		)
	})
}

func printActivities(s *session, activities []types.Activity) error {
	out := s.cmd.OutOrStdout()
	if len(activities) == 0 {
		fmt.Fprintln(out, "No activities found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTIME\tDURATION\tNAME\tCATEGORY\tID")
	for _, act := range activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			act.Date, views.FormatClock(act.Time), views.FormatDuration(act.Duration),
			act.Name, types.DisplayName(act.Category), act.ID)
	}
	return tw.Flush()
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an activity",
		Long: `Delete removes the activity with the given ID and shows today's timeline.
Deleting an ID that does not exist changes nothing.

Example:
  daybook delete 0190f3e2-8c4a-7b21-9d55-3f1e2a6c7b90`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.openSession(cmd, coordinator.ViewTimeline, coordinator.ViewSummary)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			id := args[0]
			err = s.coord.DeleteActivity(cmd.Context(), id)
			if err == nil || isViewError(err) {
				s.report(map[string]string{"deleted": id}, "Deleted activity %s\n", id)
			}
			return fail(err)
		},
	}
}
