package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// createInvoiceRequest is the wire form of service.CreateInvoiceRequest with a plain issue date
type createInvoiceRequest struct {
	ClientID      int64               `json:"client_id" binding:"required"`
	ProjectID     *int64              `json:"project_id"`
	InvoiceNumber string              `json:"invoice_number"`
	IssueDate     string              `json:"issue_date"`
	DueDays       *int                `json:"due_days"`
	Notes         string              `json:"notes"`
	Items         []service.ItemInput `json:"items"`
}

func (r createInvoiceRequest) toService() (service.CreateInvoiceRequest, error) {
	issue, err := parseDate(r.IssueDate)
	if err != nil {
		return service.CreateInvoiceRequest{}, err
	}
	return service.CreateInvoiceRequest{
		ClientID:      r.ClientID,
		ProjectID:     r.ProjectID,
		InvoiceNumber: r.InvoiceNumber,
		IssueDate:     issue,
		DueDays:       r.DueDays,
		Notes:         r.Notes,
		Items:         r.Items,
	}, nil
}

func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.toService()
	if err != nil {
		h.fail(c, "create invoice", err)
		return
	}
	invoice, err := h.svc.Invoices.CreateInvoice(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create invoice", err)
		return
	}
	created(c, invoice)
}

// ListInvoices handles GET /api/v1/invoices?client_id=&project_id=&status=&number=
func (h *Handlers) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()

	if number := c.Query("number"); number != "" {
		invoice, err := h.svc.Invoices.GetInvoiceByNumber(ctx, number)
		if err != nil {
			h.fail(c, "find invoice", err)
			return
		}
		ok(c, []*entity.Invoice{invoice})
		return
	}

	clientID, valid := queryID(c, "client_id")
	if !valid {
		return
	}
	projectID, valid := queryID(c, "project_id")
	if !valid {
		return
	}
	filter := port.InvoiceFilter{ClientID: clientID, ProjectID: projectID}
	if raw := c.Query("status"); raw != "" {
		status, err := entity.ParseInvoiceStatus(raw)
		if err != nil {
			h.fail(c, "list invoices", err)
			return
		}
		filter.Status = status
	}

	invoices, err := h.svc.Invoices.ListInvoices(ctx, filter)
	if err != nil {
		h.fail(c, "list invoices", err)
		return
	}
	ok(c, invoices)
}

func (h *Handlers) ListOverdue(c *gin.Context) {
	invoices, err := h.svc.Invoices.ListOverdue(c.Request.Context())
	if err != nil {
		h.fail(c, "list overdue invoices", err)
		return
	}
	ok(c, invoices)
}

func (h *Handlers) GetInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	invoice, err := h.svc.Invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get invoice", err)
		return
	}
	ok(c, invoice)
}

func (h *Handlers) DeleteInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.fail(c, "delete invoice", err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

func (h *Handlers) AddItem(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var item service.ItemInput
	if !bind(c, &item) {
		return
	}
	invoice, err := h.svc.Invoices.AddItem(c.Request.Context(), id, item)
	if err != nil {
		h.fail(c, "add invoice item", err)
		return
	}
	ok(c, invoice)
}

// RemoveItem handles DELETE /api/v1/invoices/:id/items/:index; index is zero based
func (h *Handlers) RemoveItem(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		badRequest(c, "invalid index")
		return
	}
	invoice, err := h.svc.Invoices.RemoveItem(c.Request.Context(), id, index)
	if err != nil {
		h.fail(c, "remove invoice item", err)
		return
	}
	ok(c, invoice)
}

func (h *Handlers) SendInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	invoice, err := h.svc.Invoices.SendInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "send invoice", err)
		return
	}
	ok(c, invoice)
}

func (h *Handlers) CancelInvoice(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	invoice, err := h.svc.Invoices.CancelInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "cancel invoice", err)
		return
	}
	ok(c, invoice)
}

// InvoicePDF streams the rendered PDF without storing it
func (h *Handlers) InvoicePDF(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	doc, err := h.svc.Documents.RenderInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "render invoice", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// SaveInvoicePDF renders the PDF into file storage and returns where it went
func (h *Handlers) SaveInvoicePDF(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	doc, err := h.svc.Documents.SaveInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "save invoice", err)
		return
	}
	created(c, doc)
}

func (h *Handlers) InvoicePreview(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	img, err := h.svc.Documents.PreviewInvoice(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "preview invoice", err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (h *Handlers) PaymentStatus(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	balance, err := h.svc.Payments.PaymentStatus(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get payment status", err)
		return
	}
	ok(c, balance)
}

func (h *Handlers) InvoiceHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	history, err := h.svc.Invoices.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get invoice history", err)
		return
	}
	ok(c, history)
}
