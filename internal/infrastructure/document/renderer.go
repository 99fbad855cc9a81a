// Package document renders invoices to PDF with headless Chromium and reads
// rendered PDFs back with MuPDF.
package document

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/money"
)

//go:embed templates/invoice.html.tmpl
var invoiceTemplate string

const defaultRenderTimeout = 30 * time.Second

// Company is the issuer block printed at the top of every invoice
type Company struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// Config controls invoice rendering
type Config struct {
	Company  Company
	Currency string
	// ChromiumPath overrides the browser lookup when set
	ChromiumPath string
	Timeout      time.Duration
}

// Renderer lays out invoices as HTML and prints them to PDF
type Renderer struct {
	cfg      Config
	tmpl     *template.Template
	markdown goldmark.Markdown
	logger   *zap.Logger
}

func NewRenderer(cfg Config, logger *zap.Logger) *Renderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	return &Renderer{
		cfg:      cfg,
		tmpl:     template.Must(template.New("invoice").Parse(invoiceTemplate)),
		markdown: goldmark.New(),
		logger:   logger,
	}
}

type itemView struct {
	Description string
	Quantity    string
	Rate        string
	Amount      string
}

type clientView struct {
	Name    string
	Company string
	Address string
	Email   string
	Phone   string
}

type invoiceView struct {
	Company   Company
	Number    string
	IssueDate string
	DueDate   string
	Status    string
	Client    *clientView
	Project   string
	Items     []itemView
	Subtotal  string
	TaxRate   string
	TaxAmount string
	Total     string
	Notes     template.HTML
}

// RenderHTML builds the printable page for doc
func (r *Renderer) RenderHTML(doc port.InvoiceDocument) (string, error) {
	if doc.Invoice == nil {
		return "", fmt.Errorf("invoice is required")
	}
	inv := doc.Invoice

	view := invoiceView{
		Company:   r.cfg.Company,
		Number:    inv.InvoiceNumber,
		IssueDate: inv.IssueDate.Format("02 Jan 2006"),
		DueDate:   inv.DueDate.Format("02 Jan 2006"),
		Status:    inv.Status.String(),
		Subtotal:  r.money(inv.Subtotal()),
		TaxRate:   inv.TaxRate.Mul(decimal.NewFromInt(100)).String() + "%",
		TaxAmount: r.money(inv.TaxAmount()),
		Total:     r.money(inv.TotalAmount()),
	}
	if c := doc.Client; c != nil {
		view.Client = &clientView{Name: c.Name, Company: c.Company, Address: c.Address, Email: c.Email, Phone: c.Phone}
	}
	if doc.Project != nil {
		view.Project = doc.Project.Name
	}
	for _, item := range inv.Items() {
		view.Items = append(view.Items, itemView{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			Rate:        r.money(item.Rate),
			Amount:      r.money(item.Amount()),
		})
	}
	if inv.Notes != "" {
		var notes bytes.Buffer
		// goldmark escapes raw HTML unless WithUnsafe is set
		if err := r.markdown.Convert([]byte(inv.Notes), &notes); err != nil {
			return "", fmt.Errorf("render notes: %w", err)
		}
		view.Notes = template.HTML(notes.String())
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// RenderPDF prints the invoice page to PDF in a fresh headless browser
func (r *Renderer) RenderPDF(ctx context.Context, doc port.InvoiceDocument) ([]byte, error) {
	html, err := r.RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if r.cfg.ChromiumPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.cfg.ChromiumPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, r.cfg.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("data:text/html,"+url.PathEscape(html)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		r.logger.Error("Chromium failed to print invoice",
			zap.String("invoice_number", doc.Invoice.InvoiceNumber),
			zap.Error(err))
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}

	r.logger.Debug("Invoice printed",
		zap.String("invoice_number", doc.Invoice.InvoiceNumber),
		zap.Int("bytes", len(pdf)),
		zap.Duration("took", time.Since(start)))
	return pdf, nil
}

func (r *Renderer) money(d decimal.Decimal) string {
	return money.Format(d, r.cfg.Currency)
}

var _ port.DocumentRenderer = (*Renderer)(nil)
