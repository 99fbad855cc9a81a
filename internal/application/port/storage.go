package port

import (
	"context"
	"io"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// FileStorage defines file storage operations rooted at one base directory
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}

// InvoiceDocument is everything needed to lay out one invoice
type InvoiceDocument struct {
	Invoice *entity.Invoice
	Client  *entity.Client
	Project *entity.Project
}

// DocumentRenderer turns an invoice into a printable document
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, doc InvoiceDocument) ([]byte, error)
}

// DocumentInspector reads back rendered documents
type DocumentInspector interface {
	PageCount(pdf []byte) (int, error)
	// PreviewPNG rasterises the first page
	PreviewPNG(pdf []byte) ([]byte, error)
}

// Table is a header row plus data rows, all preformatted as text
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// TableWriter serialises a table in one file format
type TableWriter interface {
	Extension() string
	Write(w io.Writer, table Table) error
}
