package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/internal/domain/report"
)

// ExportKind names an exportable record set
type ExportKind string

const (
	ExportClients  ExportKind = "clients"
	ExportProjects ExportKind = "projects"
	ExportInvoices ExportKind = "invoices"
)

// ExportKinds lists every kind in a stable order
var ExportKinds = []ExportKind{ExportClients, ExportProjects, ExportInvoices}

// ParseExportKind validates a kind name
func ParseExportKind(s string) (ExportKind, error) {
	for _, k := range ExportKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", entity.Invalid("unknown export %q", s)
}

// ExportResult describes one written export file
type ExportResult struct {
	Kind   ExportKind `json:"kind"`
	Format string     `json:"format"`
	Path   string     `json:"path"`
	Rows   int        `json:"rows"`
}

// ExportService writes record sets as tables through the configured writers
type ExportService interface {
	// Table builds the table for kind without writing it
	Table(ctx context.Context, kind ExportKind) (port.Table, error)
	// Export writes kind in format ("csv", "xlsx") to file storage
	Export(ctx context.Context, kind ExportKind, format string) (*ExportResult, error)
	Formats() []string
}

type exportServiceImpl struct {
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	invoiceRepo port.InvoiceRepository
	storage     port.FileStorage
	writers     map[string]port.TableWriter
	formats     []string
	settings    Settings
	logger      Logger
}

// NewExportService creates a new ExportService. Writers are keyed by their extension.
func NewExportService(
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	invoiceRepo port.InvoiceRepository,
	storage port.FileStorage,
	writers []port.TableWriter,
	settings Settings,
	logger Logger,
) ExportService {
	s := &exportServiceImpl{
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		storage:     storage,
		writers:     make(map[string]port.TableWriter, len(writers)),
		settings:    settings,
		logger:      logger,
	}
	for _, w := range writers {
		s.writers[w.Extension()] = w
		s.formats = append(s.formats, w.Extension())
	}
	return s
}

func (s *exportServiceImpl) Formats() []string {
	return append([]string(nil), s.formats...)
}

func (s *exportServiceImpl) Export(ctx context.Context, kind ExportKind, format string) (*ExportResult, error) {
	writer, ok := s.writers[format]
	if !ok {
		return nil, entity.Invalid("unsupported export format %q", format)
	}

	table, err := s.Table(ctx, kind)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, table); err != nil {
		s.logger.Error("Failed to encode export", "kind", kind, "format", format, "error", err)
		return nil, fmt.Errorf("failed to encode %s export: %w", kind, err)
	}

	path := fmt.Sprintf("%s_%s.%s", kind, s.settings.now().Format("20060102_150405"), format)
	if err := s.storage.Save(ctx, path, buf.Bytes()); err != nil {
		s.logger.Error("Failed to save export", "path", path, "error", err)
		return nil, err
	}

	s.logger.Info("Export written", "kind", kind, "format", format, "rows", len(table.Rows), "path", path)
	return &ExportResult{
		Kind:   kind,
		Format: format,
		Path:   s.storage.GetFullPath(path),
		Rows:   len(table.Rows),
	}, nil
}

func (s *exportServiceImpl) Table(ctx context.Context, kind ExportKind) (port.Table, error) {
	switch kind {
	case ExportClients:
		return s.clientsTable(ctx)
	case ExportProjects:
		return s.projectsTable(ctx)
	case ExportInvoices:
		return s.invoicesTable(ctx)
	default:
		return port.Table{}, entity.Invalid("unknown export %q", kind)
	}
}

func (s *exportServiceImpl) clientsTable(ctx context.Context) (port.Table, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return port.Table{}, err
	}
	t := port.Table{
		Name:   "Clients",
		Header: []string{"ID", "Name", "Email", "Phone", "Company", "Address", "Created Date"},
		Rows:   make([][]string, 0, len(clients)),
	}
	for _, c := range clients {
		t.Rows = append(t.Rows, []string{
			cellID(c.ID), c.Name, c.Email, c.Phone, c.Company, c.Address, cellDate(c.CreatedAt),
		})
	}
	return t, nil
}

func (s *exportServiceImpl) projectsTable(ctx context.Context) (port.Table, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return port.Table{}, err
	}
	projects, err := s.projectRepo.List(ctx, port.ProjectFilter{})
	if err != nil {
		return port.Table{}, err
	}
	dir := report.NewDirectory(clients, nil)

	t := port.Table{
		Name: "Projects",
		Header: []string{"ID", "Name", "Client ID", "Client Name", "Description", "Status",
			"Hourly Rate", "Fixed Rate", "Hours Worked", "Created Date"},
		Rows: make([][]string, 0, len(projects)),
	}
	for _, p := range projects {
		t.Rows = append(t.Rows, []string{
			cellID(p.ID), p.Name, cellID(p.ClientID), dir.ClientName(p.ClientID), p.Description, p.Status.String(),
			cellNullAmount(p.HourlyRate), cellNullAmount(p.FixedRate), p.HoursWorked.String(), cellDate(p.CreatedAt),
		})
	}
	return t, nil
}

func (s *exportServiceImpl) invoicesTable(ctx context.Context) (port.Table, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return port.Table{}, err
	}
	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{})
	if err != nil {
		return port.Table{}, err
	}
	dir := report.NewDirectory(clients, nil)

	t := port.Table{
		Name: "Invoices",
		Header: []string{"ID", "Invoice Number", "Client ID", "Client Name", "Project ID", "Issue Date",
			"Due Date", "Status", "Subtotal", "Tax Amount", "Total Amount", "Notes"},
		Rows: make([][]string, 0, len(invoices)),
	}
	for _, inv := range invoices {
		projectID := ""
		if inv.ProjectID != nil {
			projectID = cellID(*inv.ProjectID)
		}
		t.Rows = append(t.Rows, []string{
			cellID(inv.ID), inv.InvoiceNumber, cellID(inv.ClientID), dir.ClientName(inv.ClientID), projectID,
			cellDate(inv.IssueDate), cellDate(inv.DueDate), inv.Status.String(),
			cellAmount(inv.Subtotal()), cellAmount(inv.TaxAmount()), cellAmount(inv.TotalAmount()), inv.Notes,
		})
	}
	return t, nil
}

func cellID(v int64) string { return strconv.FormatInt(v, 10) }

func cellDate(t time.Time) string { return t.Format(time.DateOnly) }

func cellAmount(d decimal.Decimal) string { return d.StringFixed(money.Scale) }

func cellNullAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return cellAmount(d.Decimal)
}
