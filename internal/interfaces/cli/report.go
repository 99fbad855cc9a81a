package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"reports"},
		Short:   "Revenue, aging and activity reports",
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Revenue summary across all invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.svc().Reports.RevenueSummary(cmd.Context())
			if err != nil {
				return err
			}
			return app.printMarkdown(app.summaryMarkdown(s))
		},
	}

	aging := &cobra.Command{
		Use:   "aging",
		Short: "Outstanding invoices grouped by days overdue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.svc().Reports.Aging(cmd.Context())
			if err != nil {
				return err
			}
			return app.printMarkdown(app.agingMarkdown(r))
		},
	}

	clients := &cobra.Command{
		Use:   "clients",
		Short: "Revenue per client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.svc().Reports.ClientRevenue(cmd.Context())
			if err != nil {
				return err
			}
			return app.printMarkdown(app.clientRevenueMarkdown(rows))
		},
	}

	projects := &cobra.Command{
		Use:   "projects",
		Short: "Hours, amounts and invoicing per project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.svc().Reports.ProjectSummary(cmd.Context())
			if err != nil {
				return err
			}
			return app.printMarkdown(app.projectSummaryMarkdown(rows))
		},
	}

	var months int
	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Paid revenue per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if months <= 0 {
				return fmt.Errorf("--months must be positive")
			}
			to := time.Now()
			from := time.Date(to.Year(), to.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)
			rows, err := app.svc().Reports.MonthlyRevenue(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			return app.printMarkdown(app.monthlyMarkdown(rows))
		},
	}
	monthly.Flags().IntVar(&months, "months", 12, "Number of months to include, ending with the current one")

	cmd.AddCommand(summary, aging, clients, projects, monthly)
	return cmd
}
