package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

func newPaymentCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment",
		Aliases: []string{"payments"},
		Short:   "Record and manage payments",
	}

	var (
		recDate    string
		recMethod  string
		recTxn     string
		recFee     string
		recNotes   string
		recPending bool
	)
	record := &cobra.Command{
		Use:   "record <invoice-id> <amount>",
		Short: "Record a payment against an invoice",
		Example: `  billingctl payment record 4 "₹11,800" --method upi --txn UPI-20240315-01
  billingctl payment record 4 5000 --method bank_transfer --pending`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}
			amount, err := app.parseAmount(args[1])
			if err != nil {
				return entity.InvalidErr(err)
			}
			in, err := app.paymentInput(cmd, recDate, recMethod, recFee)
			if err != nil {
				return err
			}
			in.Amount = &amount
			in.TransactionID = optional(cmd, "txn")
			in.Notes = optional(cmd, "notes")

			req := service.RecordPaymentRequest{PaymentInput: in, InvoiceID: invoiceID}
			if recPending {
				req.Status = entity.PaymentPending
			}
			payment, err := app.svc().Payments.RecordPayment(cmd.Context(), req)
			if err != nil {
				return err
			}
			app.printf("Recorded payment %d of %s (%s)\n", payment.ID, app.money(payment.Amount), payment.Status)

			balance, err := app.svc().Payments.PaymentStatus(cmd.Context(), invoiceID)
			if err != nil {
				return err
			}
			app.printf("Invoice %s: paid %s, remaining %s, status %s\n",
				balance.InvoiceNumber, app.money(balance.Paid), app.money(balance.Remaining), balance.Status)
			return nil
		},
	}
	record.Flags().StringVar(&recDate, "date", "", "Payment date YYYY-MM-DD (default today)")
	record.Flags().StringVar(&recMethod, "method", "", "cash, bank_transfer, cheque, upi, card or other")
	record.Flags().StringVar(&recTxn, "txn", "", "Transaction reference; must be unique")
	record.Flags().StringVar(&recFee, "fee", "", "Transaction fee")
	record.Flags().StringVar(&recNotes, "notes", "", "Notes")
	record.Flags().BoolVar(&recPending, "pending", false, "Record as pending; it does not count until completed")

	var (
		listInvoice int64
		listDays    int
		listFrom    string
		listTo      string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listDays > 0 {
				payments, err := app.svc().Payments.ListRecentPayments(cmd.Context(), listDays)
				if err != nil {
					return err
				}
				return app.printMarkdown(app.paymentsMarkdown(payments))
			}

			filter := port.PaymentFilter{InvoiceID: listInvoice}
			from, err := parseDate(listFrom)
			if err != nil {
				return err
			}
			to, err := parseDate(listTo)
			if err != nil {
				return err
			}
			if from != nil {
				filter.From = *from
			}
			if to != nil {
				filter.To = *to
			}
			payments, err := app.svc().Payments.ListPayments(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return app.printMarkdown(app.paymentsMarkdown(payments))
		},
	}
	list.Flags().Int64Var(&listInvoice, "invoice", 0, "Only payments of this invoice")
	list.Flags().IntVar(&listDays, "days", 0, "Only payments from the last N days")
	list.Flags().StringVar(&listFrom, "from", "", "Earliest payment date YYYY-MM-DD")
	list.Flags().StringVar(&listTo, "to", "", "Latest payment date YYYY-MM-DD")

	var (
		updDate   string
		updMethod string
		updFee    string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change payment details; only the given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "payment")
			if err != nil {
				return err
			}
			in, err := app.paymentInput(cmd, updDate, updMethod, updFee)
			if err != nil {
				return err
			}
			if raw := optional(cmd, "amount"); raw != nil {
				amount, err := app.parseAmount(*raw)
				if err != nil {
					return entity.InvalidErr(err)
				}
				in.Amount = &amount
			}
			in.TransactionID = optional(cmd, "txn")
			in.Notes = optional(cmd, "notes")

			payment, err := app.svc().Payments.UpdatePayment(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			app.printf("Updated payment %d: %s (%s)\n", payment.ID, app.money(payment.Amount), payment.Status)
			return nil
		},
	}
	update.Flags().String("amount", "", "Amount")
	update.Flags().StringVar(&updDate, "date", "", "Payment date YYYY-MM-DD")
	update.Flags().StringVar(&updMethod, "method", "", "Payment method")
	update.Flags().String("txn", "", "Transaction reference")
	update.Flags().StringVar(&updFee, "fee", "", "Transaction fee")
	update.Flags().String("notes", "", "Notes")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payment and reconcile its invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "payment")
			if err != nil {
				return err
			}
			if err := app.svc().Payments.DeletePayment(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("Deleted payment %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(record, list, update, del,
		paymentTransition(app, "complete", "Complete a pending payment", func(s Services) paymentStep { return s.Payments.CompletePayment }),
		paymentTransition(app, "fail", "Mark a pending payment failed", func(s Services) paymentStep { return s.Payments.FailPayment }),
		paymentTransition(app, "cancel", "Cancel a pending payment", func(s Services) paymentStep { return s.Payments.CancelPayment }),
	)
	return cmd
}

// paymentInput reads the date, method and fee flags that record and update share
func (a *App) paymentInput(cmd *cobra.Command, date, method, fee string) (entity.PaymentInput, error) {
	var in entity.PaymentInput

	d, err := parseDate(date)
	if err != nil {
		return in, entity.Invalid("%s", err.Error())
	}
	in.PaymentDate = d

	if cmd.Flags().Changed("method") {
		m, err := entity.ParsePaymentMethod(method)
		if err != nil {
			return in, err
		}
		in.Method = &m
	}
	if cmd.Flags().Changed("fee") {
		f, err := a.parseAmount(fee)
		if err != nil {
			return in, entity.InvalidErr(err)
		}
		in.TransactionFee = &f
	}
	return in, nil
}

type paymentStep func(ctx context.Context, id int64) (*entity.Payment, error)

func paymentTransition(app *App, name, short string, step func(Services) paymentStep) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "payment")
			if err != nil {
				return err
			}
			payment, err := step(app.svc())(cmd.Context(), id)
			if err != nil {
				return err
			}
			app.printf("Payment %d is now %s\n", payment.ID, payment.Status)
			return nil
		},
	}
}
