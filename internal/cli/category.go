package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage activity categories",
	}
	cmd.AddCommand(newCategoryAddCmd(a), newCategoryListCmd(a))
	return cmd
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Long: `Add stores a custom category with a generated color. Names are trimmed and
lowercased; built-in names and existing categories are rejected.

Example:
  daybook category add Reading`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			cat, err := s.coord.AddCategory(cmd.Context(), args[0])
			if cat.Name != "" {
				s.report(cat, "Added category %s (%s)\n", cat.Name, cat.Color)
			}
			return fail(err)
		},
	}
}

// categoryRow is a category as listed by "category list".
type categoryRow struct {
	types.Category
	Builtin bool `json:"builtin"`
}

func newCategoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer func() { err = s.finish(err) }()

			cats, err := s.coord.Categories(cmd.Context())
			if err != nil {
				return fail(err)
			}
			rows := make([]categoryRow, 0, len(cats))
			for _, c := range cats {
				rows = append(rows, categoryRow{Category: c, Builtin: types.IsBuiltinCategory(c.Name)})
			}
			if s.jsonOut != nil {
				s.report(rows, "")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCOLOR\tKIND")
			for _, r := range rows {
				kind := "custom"
				if r.Builtin {
					kind = "built-in"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", types.DisplayName(r.Name), r.Color, kind)
			}
			return tw.Flush()
		},
	}
}
