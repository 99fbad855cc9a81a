package service

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// RenderedDocument is a rendered invoice PDF
type RenderedDocument struct {
	FileName string `json:"file_name"`
	Path     string `json:"path,omitempty"`
	Pages    int    `json:"pages"`
	Content  []byte `json:"-"`
}

// DocumentService renders invoices to PDF and previews them
type DocumentService interface {
	RenderInvoice(ctx context.Context, invoiceID int64) (*RenderedDocument, error)
	// SaveInvoice renders the invoice and stores it under invoices/
	SaveInvoice(ctx context.Context, invoiceID int64) (*RenderedDocument, error)
	// PreviewInvoice returns a PNG of the first page
	PreviewInvoice(ctx context.Context, invoiceID int64) ([]byte, error)
}

type documentServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	renderer    port.DocumentRenderer
	inspector   port.DocumentInspector
	storage     port.FileStorage
	logger      Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	invoiceRepo port.InvoiceRepository,
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	renderer port.DocumentRenderer,
	inspector port.DocumentInspector,
	storage port.FileStorage,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		renderer:    renderer,
		inspector:   inspector,
		storage:     storage,
		logger:      logger,
	}
}

func (s *documentServiceImpl) RenderInvoice(ctx context.Context, invoiceID int64) (*RenderedDocument, error) {
	doc, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderPDF(ctx, doc)
	if err != nil {
		s.logger.Error("Failed to render invoice", "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("failed to render invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}

	pages, err := s.inspector.PageCount(pdf)
	if err != nil {
		s.logger.Error("Rendered invoice is not a readable PDF", "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("failed to read rendered invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}

	s.logger.Info("Invoice rendered", "invoice_id", invoiceID, "pages", pages, "bytes", len(pdf))
	return &RenderedDocument{
		FileName: fmt.Sprintf("invoice_%s.pdf", doc.Invoice.InvoiceNumber),
		Pages:    pages,
		Content:  pdf,
	}, nil
}

func (s *documentServiceImpl) SaveInvoice(ctx context.Context, invoiceID int64) (*RenderedDocument, error) {
	rendered, err := s.RenderInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	path := "invoices/" + rendered.FileName
	if err := s.storage.Save(ctx, path, rendered.Content); err != nil {
		s.logger.Error("Failed to save invoice PDF", "path", path, "error", err)
		return nil, err
	}
	rendered.Path = s.storage.GetFullPath(path)
	return rendered, nil
}

func (s *documentServiceImpl) PreviewInvoice(ctx context.Context, invoiceID int64) ([]byte, error) {
	rendered, err := s.RenderInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	png, err := s.inspector.PreviewPNG(rendered.Content)
	if err != nil {
		s.logger.Error("Failed to rasterise invoice", "invoice_id", invoiceID, "error", err)
		return nil, fmt.Errorf("failed to preview invoice: %w", err)
	}
	return png, nil
}

// load gathers the invoice with its client and optional project. A missing
// client or project still renders, with the bill-to block left blank.
func (s *documentServiceImpl) load(ctx context.Context, invoiceID int64) (port.InvoiceDocument, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return port.InvoiceDocument{}, err
	}
	if invoice == nil {
		return port.InvoiceDocument{}, fmt.Errorf("%w: id %d", entity.ErrInvoiceNotFound, invoiceID)
	}

	doc := port.InvoiceDocument{Invoice: invoice}
	if doc.Client, err = s.clientRepo.GetByID(ctx, invoice.ClientID); err != nil {
		return port.InvoiceDocument{}, err
	}
	if invoice.ProjectID != nil {
		if doc.Project, err = s.projectRepo.GetByID(ctx, *invoice.ProjectID); err != nil {
			return port.InvoiceDocument{}, err
		}
	}
	return doc, nil
}
