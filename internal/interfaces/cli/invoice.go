package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func newInvoiceCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"invoices"},
		Short:   "Create, send and render invoices",
	}

	var (
		createProject int64
		createDueDays int
		createIssue   string
		createNumber  string
		createNotes   string
	)
	create := &cobra.Command{
		Use:   "create <client-id>",
		Short: "Create a draft invoice, billing a project's amount when --project is given",
		Example: `  billingctl invoice create 1 --project 3 --due-days 15
  billingctl invoice create 1 --number INV-ACME-001 --notes "Thanks!"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0], "client")
			if err != nil {
				return err
			}
			issue, err := parseDate(createIssue)
			if err != nil {
				return err
			}
			req := service.CreateInvoiceRequest{
				ClientID:      clientID,
				InvoiceNumber: createNumber,
				IssueDate:     issue,
				Notes:         createNotes,
			}
			if createProject > 0 {
				req.ProjectID = &createProject
			}
			if cmd.Flags().Changed("due-days") {
				req.DueDays = &createDueDays
			}
			inv, err := app.svc().Invoices.CreateInvoice(cmd.Context(), req)
			if err != nil {
				return err
			}
			app.printf("Created invoice %s (id %d), total %s\n", inv.InvoiceNumber, inv.ID, app.money(inv.TotalAmount()))
			return nil
		},
	}
	create.Flags().Int64Var(&createProject, "project", 0, "Bill this project")
	create.Flags().IntVar(&createDueDays, "due-days", 0, "Days until due (default from configuration)")
	create.Flags().StringVar(&createIssue, "issue-date", "", "Issue date YYYY-MM-DD (default today)")
	create.Flags().StringVar(&createNumber, "number", "", "Invoice number (default generated)")
	create.Flags().StringVar(&createNotes, "notes", "", "Notes printed on the invoice; markdown is allowed")

	addItem := &cobra.Command{
		Use:   "add-item <id> <description> <quantity> <rate>",
		Short: "Add a line item to a draft invoice",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(args[2])
			if err != nil {
				return entity.Invalid("quantity %q is not a number", args[2])
			}
			rate, err := app.parseAmount(args[3])
			if err != nil {
				return entity.InvalidErr(err)
			}
			inv, err := app.svc().Invoices.AddItem(cmd.Context(), id, service.ItemInput{Description: args[1], Quantity: qty, Rate: rate})
			if err != nil {
				return err
			}
			app.printf("Invoice %s now totals %s\n", inv.InvoiceNumber, app.money(inv.TotalAmount()))
			return nil
		},
	}

	removeItem := &cobra.Command{
		Use:   "remove-item <id> <index>",
		Short: "Remove a line item from a draft invoice by its position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return entity.Invalid("item index %q is not a number", args[1])
			}
			inv, err := app.svc().Invoices.RemoveItem(cmd.Context(), id, index)
			if err != nil {
				return err
			}
			app.printf("Invoice %s now totals %s\n", inv.InvoiceNumber, app.money(inv.TotalAmount()))
			return nil
		},
	}

	var (
		listClient  int64
		listStatus  string
		listOverdue bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				invoices []*entity.Invoice
				err      error
			)
			if listOverdue {
				invoices, err = app.svc().Invoices.ListOverdue(cmd.Context())
			} else {
				filter := port.InvoiceFilter{ClientID: listClient}
				if listStatus != "" {
					if filter.Status, err = entity.ParseInvoiceStatus(listStatus); err != nil {
						return err
					}
				}
				invoices, err = app.svc().Invoices.ListInvoices(cmd.Context(), filter)
			}
			if err != nil {
				return err
			}
			return app.printMarkdown(app.invoicesMarkdown(invoices))
		},
	}
	list.Flags().Int64Var(&listClient, "client", 0, "Only invoices of this client")
	list.Flags().StringVar(&listStatus, "status", "", "Only invoices in this status")
	list.Flags().BoolVar(&listOverdue, "overdue", false, "Only open invoices past their due date")

	show := &cobra.Command{
		Use:   "show <id|number>",
		Short: "Show an invoice with its items and balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.findInvoice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			balance, err := app.svc().Payments.PaymentStatus(cmd.Context(), inv.ID)
			if err != nil {
				return err
			}
			return app.printMarkdown(app.invoiceMarkdown(inv, balance))
		},
	}

	var pdfOut string
	pdf := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Render an invoice to PDF",
		Long: `Render an invoice to PDF with headless Chrome.

Without --out the file is stored in the configured documents directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			if pdfOut == "" {
				doc, err := app.svc().Documents.SaveInvoice(cmd.Context(), id)
				if err != nil {
					return err
				}
				app.printf("Saved %s (%d pages)\n", doc.Path, doc.Pages)
				return nil
			}
			doc, err := app.svc().Documents.RenderInvoice(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := os.WriteFile(pdfOut, doc.Content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", pdfOut, err)
			}
			app.printf("Saved %s (%d pages)\n", pdfOut, doc.Pages)
			return nil
		},
	}
	pdf.Flags().StringVarP(&pdfOut, "out", "o", "", "Write the PDF to this file")

	history := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the status history of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			changes, err := app.svc().Invoices.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			var d doc
			d.h1(fmt.Sprintf("Invoice %d history", id))
			rows := make([][]string, 0, len(changes))
			for _, c := range changes {
				rows = append(rows, []string{c.OccurredAt.Format("2006-01-02 15:04"), c.PreviousStatus, c.NewStatus, c.Reason})
			}
			d.table([]string{"When", "From", "To", "Reason"}, rows)
			return app.printMarkdown(d.String())
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an invoice that has no payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			if err := app.svc().Invoices.DeleteInvoice(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted invoice %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(create, addItem, removeItem, list, show, pdf, history, del,
		invoiceTransition(app, "send", "Mark a draft invoice as sent", func(s Services) invoiceStep { return s.Invoices.SendInvoice }),
		invoiceTransition(app, "cancel", "Cancel an invoice", func(s Services) invoiceStep { return s.Invoices.CancelInvoice }),
	)
	return cmd
}

type invoiceStep func(ctx context.Context, id int64) (*entity.Invoice, error)

func invoiceTransition(app *App, name, short string, step func(Services) invoiceStep) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			inv, err := step(app.svc())(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printf("Invoice %s is now %s\n", inv.InvoiceNumber, inv.Status)
			return nil
		},
	}
}

// findInvoice accepts either a numeric id or an invoice number
func (a *App) findInvoice(ctx context.Context, ref string) (*entity.Invoice, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		return a.svc().Invoices.GetInvoice(ctx, id)
	}
	return a.svc().Invoices.GetInvoiceByNumber(ctx, ref)
}
