// Package cli implements the billingctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/money"
)

// Version is printed by --version
const Version = "1.0.0"

// Services is what the commands operate on
type Services struct {
	Clients   service.ClientService
	Projects  service.ProjectService
	Invoices  service.InvoiceService
	Payments  service.PaymentService
	Reports   service.ReportService
	Exports   service.ExportService
	Documents service.DocumentService
}

// Session is an open backend. Close releases it.
type Session struct {
	Services Services
	Currency string
	Limits   money.Limits
	Close    func() error
}

// Opener opens a session for the config file at path ("" for defaults)
type Opener func(ctx context.Context, path string) (*Session, error)

// App carries state shared by all commands of one invocation
type App struct {
	open    Opener
	out     io.Writer
	session *Session

	configPath string
	plain      bool
	width      int
}

// NewRootCommand builds the command tree. Output goes to out.
func NewRootCommand(open Opener, out io.Writer) *cobra.Command {
	app := &App{open: open, out: out}

	root := &cobra.Command{
		Use:   "billingctl",
		Short: "Manage clients, projects, invoices and payments",
		Long: `billingctl is the command-line client for the freelance billing service.

It works directly against the configured SQLite database, so it can be used
with or without the HTTP server running.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if offline(cmd) {
				return nil
			}
			return app.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.disconnect()
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Path to the YAML configuration file")
	root.PersistentFlags().BoolVar(&app.plain, "plain", false, "Print raw markdown instead of rendering it")
	root.PersistentFlags().IntVar(&app.width, "width", 100, "Word wrap width for rendered output")

	root.AddCommand(
		newClientCommand(app),
		newProjectCommand(app),
		newInvoiceCommand(app),
		newPaymentCommand(app),
		newReportCommand(app),
		newExportCommand(app),
	)
	return root
}

// offline reports commands that never touch the database
func offline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return true
		}
	}
	return false
}

func (a *App) connect(ctx context.Context) error {
	if a.session != nil {
		return nil
	}
	s, err := a.open(ctx, a.configPath)
	if err != nil {
		return fmt.Errorf("failed to open billing database: %w", err)
	}
	a.session = s
	return nil
}

func (a *App) disconnect() error {
	if a.session == nil || a.session.Close == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

func (a *App) svc() Services { return a.session.Services }

func (a *App) money(d decimal.Decimal) string {
	return money.Format(d, a.session.Currency)
}

// printMarkdown renders md for the terminal, or prints it as is with --plain
func (a *App) printMarkdown(md string) error {
	if a.plain {
		_, err := io.WriteString(a.out, md)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(a.width),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(a.out, rendered)
	return err
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

// parseAmount accepts currency symbols and thousands separators
func (a *App) parseAmount(raw string) (decimal.Decimal, error) {
	return money.ParseAmount(raw, a.session.Limits)
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

// parseDate parses YYYY-MM-DD; empty returns nil
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", raw)
	}
	return &t, nil
}

// optional returns a pointer to the flag value when the flag was set
func optional(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
