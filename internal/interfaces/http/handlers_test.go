package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/report"
)

type nopLogger struct{ errors int }

func (l *nopLogger) Info(string, ...interface{})  {}
func (l *nopLogger) Error(string, ...interface{}) { l.errors++ }

type mockClients struct {
	service.ClientService
	CreateFunc func(ctx context.Context, in entity.ClientInput) (*entity.Client, error)
	GetFunc    func(ctx context.Context, id int64) (*entity.Client, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func (m *mockClients) CreateClient(ctx context.Context, in entity.ClientInput) (*entity.Client, error) {
	return m.CreateFunc(ctx, in)
}

func (m *mockClients) GetClient(ctx context.Context, id int64) (*entity.Client, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockClients) DeleteClient(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

type mockInvoices struct {
	service.InvoiceService
	CreateFunc func(ctx context.Context, req service.CreateInvoiceRequest) (*entity.Invoice, error)
	ListFunc   func(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	SendFunc   func(ctx context.Context, id int64) (*entity.Invoice, error)
}

func (m *mockInvoices) CreateInvoice(ctx context.Context, req service.CreateInvoiceRequest) (*entity.Invoice, error) {
	return m.CreateFunc(ctx, req)
}

func (m *mockInvoices) ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	return m.ListFunc(ctx, filter)
}

func (m *mockInvoices) SendInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return m.SendFunc(ctx, id)
}

type mockPayments struct {
	service.PaymentService
	RecordFunc func(ctx context.Context, req service.RecordPaymentRequest) (*entity.Payment, error)
}

func (m *mockPayments) RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*entity.Payment, error) {
	return m.RecordFunc(ctx, req)
}

type mockReports struct {
	service.ReportService
	MonthFunc func(ctx context.Context, year int, month time.Month) (report.MonthReport, error)
}

func (m *mockReports) Month(ctx context.Context, year int, month time.Month) (report.MonthReport, error) {
	return m.MonthFunc(ctx, year, month)
}

type mockDocuments struct {
	service.DocumentService
	RenderFunc func(ctx context.Context, id int64) (*service.RenderedDocument, error)
}

func (m *mockDocuments) RenderInvoice(ctx context.Context, id int64) (*service.RenderedDocument, error) {
	return m.RenderFunc(ctx, id)
}

func newTestServer(services Services) (*Server, *nopLogger) {
	logger := &nopLogger{}
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	return NewServer(cfg, services, logger), logger
}

func do(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var resp Response
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s, _ := newTestServer(Services{Health: map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		}})

		w, resp := do(t, s, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("unhealthy component", func(t *testing.T) {
		s, logger := newTestServer(Services{Health: map[string]HealthCheck{
			"database": func(context.Context) error { return errors.New("locked") },
		}})

		w, resp := do(t, s, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, 1, logger.errors)
	})
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", entity.Invalid("name is required"), http.StatusBadRequest},
		{"not found", entity.ErrClientNotFound, http.StatusNotFound},
		{"duplicate", fmt.Errorf("%w: email", entity.ErrDuplicate), http.StatusConflict},
		{"invalid operation", entity.NotAllowed("client has invoices"), http.StatusUnprocessableEntity},
		{"internal", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(Services{Clients: &mockClients{
				GetFunc: func(context.Context, int64) (*entity.Client, error) { return nil, tt.err },
			}})

			w, resp := do(t, s, http.MethodGet, "/api/v1/clients/7", nil)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "failed to get client", resp.Error)
			} else {
				assert.Equal(t, tt.err.Error(), resp.Error)
			}
		})
	}
}

func TestClientHandlers(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		var got entity.ClientInput
		s, _ := newTestServer(Services{Clients: &mockClients{
			CreateFunc: func(_ context.Context, in entity.ClientInput) (*entity.Client, error) {
				got = in
				return &entity.Client{Record: entity.Record{ID: 1}, Name: *in.Name}, nil
			},
		}})

		w, resp := do(t, s, http.MethodPost, "/api/v1/clients", map[string]string{"name": "Acme", "email": "ap@acme.test"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		require.NotNil(t, got.Name)
		assert.Equal(t, "Acme", *got.Name)
		assert.Nil(t, got.Phone)
	})

	t.Run("bad id", func(t *testing.T) {
		s, _ := newTestServer(Services{Clients: &mockClients{}})

		w, _ := do(t, s, http.MethodDelete, "/api/v1/clients/abc", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		var deleted int64
		s, _ := newTestServer(Services{Clients: &mockClients{
			DeleteFunc: func(_ context.Context, id int64) error {
				deleted = id
				return nil
			},
		}})

		w, _ := do(t, s, http.MethodDelete, "/api/v1/clients/12", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(12), deleted)
	})
}

func TestInvoiceHandlers(t *testing.T) {
	t.Run("create parses issue date", func(t *testing.T) {
		var got service.CreateInvoiceRequest
		s, _ := newTestServer(Services{Invoices: &mockInvoices{
			CreateFunc: func(_ context.Context, req service.CreateInvoiceRequest) (*entity.Invoice, error) {
				got = req
				return &entity.Invoice{Record: entity.Record{ID: 3}}, nil
			},
		}})

		w, _ := do(t, s, http.MethodPost, "/api/v1/invoices", map[string]interface{}{
			"client_id":  4,
			"issue_date": "2024-03-01",
			"items": []map[string]string{
				{"description": "Design", "quantity": "2", "rate": "50"},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, int64(4), got.ClientID)
		require.NotNil(t, got.IssueDate)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *got.IssueDate)
		require.Len(t, got.Items, 1)
		assert.True(t, decimal.NewFromInt(50).Equal(got.Items[0].Rate))
	})

	t.Run("create rejects bad date", func(t *testing.T) {
		s, _ := newTestServer(Services{Invoices: &mockInvoices{}})

		w, resp := do(t, s, http.MethodPost, "/api/v1/invoices", map[string]interface{}{
			"client_id":  4,
			"issue_date": "03/01/2024",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, resp.Error, "YYYY-MM-DD")
	})

	t.Run("list filters", func(t *testing.T) {
		var got port.InvoiceFilter
		s, _ := newTestServer(Services{Invoices: &mockInvoices{
			ListFunc: func(_ context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
				got = filter
				return nil, nil
			},
		}})

		w, _ := do(t, s, http.MethodGet, "/api/v1/invoices?client_id=2&status=sent", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, port.InvoiceFilter{ClientID: 2, Status: entity.InvoiceSent}, got)
	})

	t.Run("send not allowed", func(t *testing.T) {
		s, _ := newTestServer(Services{Invoices: &mockInvoices{
			SendFunc: func(context.Context, int64) (*entity.Invoice, error) {
				return nil, entity.NotAllowed("invoice is paid")
			},
		}})

		w, _ := do(t, s, http.MethodPost, "/api/v1/invoices/9/send", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("pdf", func(t *testing.T) {
		s, _ := newTestServer(Services{Documents: &mockDocuments{
			RenderFunc: func(context.Context, int64) (*service.RenderedDocument, error) {
				return &service.RenderedDocument{FileName: "INV-1.pdf", Content: []byte("%PDF-1.4")}, nil
			},
		}})

		w, _ := do(t, s, http.MethodGet, "/api/v1/invoices/1/pdf", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-1.pdf")
		assert.Equal(t, "%PDF-1.4", w.Body.String())
	})
}

func TestRecordPayment(t *testing.T) {
	var got service.RecordPaymentRequest
	s, _ := newTestServer(Services{Payments: &mockPayments{
		RecordFunc: func(_ context.Context, req service.RecordPaymentRequest) (*entity.Payment, error) {
			got = req
			return &entity.Payment{Record: entity.Record{ID: 5}}, nil
		},
	}})

	w, _ := do(t, s, http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"invoice_id":     8,
		"amount":         "125.50",
		"payment_date":   "2024-03-10",
		"payment_method": "paypal",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(8), got.InvoiceID)
	require.NotNil(t, got.Amount)
	assert.Equal(t, "125.5", got.Amount.String())
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, 10, got.PaymentDate.Day())
	require.NotNil(t, got.Method)
	assert.Equal(t, entity.PaymentMethod("paypal"), *got.Method)
}

func TestMonthReportParams(t *testing.T) {
	var gotYear int
	var gotMonth time.Month
	s, _ := newTestServer(Services{Reports: &mockReports{
		MonthFunc: func(_ context.Context, year int, month time.Month) (report.MonthReport, error) {
			gotYear, gotMonth = year, month
			return report.MonthReport{}, nil
		},
	}})

	w, _ := do(t, s, http.MethodGet, "/api/v1/reports/month?year=2024&month=2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2024, gotYear)
	assert.Equal(t, time.February, gotMonth)

	w, _ = do(t, s, http.MethodGet, "/api/v1/reports/month?year=2024&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
