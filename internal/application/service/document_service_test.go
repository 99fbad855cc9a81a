package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

type mockRenderer struct {
	RenderFunc func(ctx context.Context, doc port.InvoiceDocument) ([]byte, error)
	rendered   []port.InvoiceDocument
}

func (m *mockRenderer) RenderPDF(ctx context.Context, doc port.InvoiceDocument) ([]byte, error) {
	m.rendered = append(m.rendered, doc)
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, doc)
	}
	return []byte("%PDF-1.4 " + doc.Invoice.InvoiceNumber), nil
}

type mockInspector struct {
	pages      int
	pageErr    error
	previewErr error
}

func (m *mockInspector) PageCount(pdf []byte) (int, error) {
	return m.pages, m.pageErr
}

func (m *mockInspector) PreviewPNG(pdf []byte) ([]byte, error) {
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	return []byte("\x89PNG"), nil
}

func TestDocumentService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	renderer := &mockRenderer{}
	inspector := &mockInspector{pages: 1}
	storage := newMockStorage()
	svc := NewDocumentService(f.invoices, f.clients, f.projects, renderer, inspector, storage, f.logger)

	client := seedClient(t, f, "Acme", "acme@example.com")
	project, err := f.projectSvc.CreateProject(ctx, entity.ProjectInput{ClientID: client.ID, Name: str("Site"), FixedRate: decPtr("500")})
	require.NoError(t, err)
	inv, err := f.invoiceSvc.CreateInvoice(ctx, CreateInvoiceRequest{ClientID: client.ID, ProjectID: &project.ID, InvoiceNumber: "INV-7"})
	require.NoError(t, err)

	t.Run("render", func(t *testing.T) {
		doc, err := svc.RenderInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "invoice_INV-7.pdf", doc.FileName)
		assert.Equal(t, 1, doc.Pages)

		last := renderer.rendered[len(renderer.rendered)-1]
		assert.Equal(t, "Acme", last.Client.Name)
		assert.Equal(t, "Site", last.Project.Name)
	})

	t.Run("save", func(t *testing.T) {
		doc, err := svc.SaveInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "/data/invoices/invoice_INV-7.pdf", doc.Path)
		assert.True(t, storage.Exists(ctx, "invoices/invoice_INV-7.pdf"))
	})

	t.Run("preview", func(t *testing.T) {
		png, err := svc.PreviewInvoice(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), png)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := svc.RenderInvoice(ctx, 404)
		assert.ErrorIs(t, err, entity.ErrInvoiceNotFound)
	})

	t.Run("renderer failure", func(t *testing.T) {
		renderer.RenderFunc = func(ctx context.Context, doc port.InvoiceDocument) ([]byte, error) {
			return nil, errors.New("browser gone")
		}
		defer func() { renderer.RenderFunc = nil }()

		_, err := svc.RenderInvoice(ctx, inv.ID)
		assert.ErrorContains(t, err, "browser gone")
		assert.Contains(t, f.logger.errors, "Failed to render invoice")
	})

	t.Run("unreadable output", func(t *testing.T) {
		inspector.pageErr = errors.New("no pages")
		defer func() { inspector.pageErr = nil }()

		_, err := svc.RenderInvoice(ctx, inv.ID)
		assert.ErrorContains(t, err, "no pages")
	})
}
