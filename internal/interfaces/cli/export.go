package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/application/service"
)

func newExportCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <clients|projects|invoices|all>",
		Short: "Export records to CSV or XLSX in the export directory",
		Example: `  billingctl export invoices
  billingctl export all --format xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := service.ExportKinds
			if args[0] != "all" {
				kind, err := service.ParseExportKind(args[0])
				if err != nil {
					return err
				}
				kinds = []service.ExportKind{kind}
			}

			for _, kind := range kinds {
				result, err := app.svc().Exports.Export(cmd.Context(), kind, strings.ToLower(format))
				if err != nil {
					return err
				}
				app.printf("Exported %d %s to %s\n", result.Rows, result.Kind, result.Path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	return cmd
}
