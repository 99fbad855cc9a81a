package http

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/application/service"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// paymentBody is the wire form of entity.PaymentInput with a plain payment date
type paymentBody struct {
	Amount         *decimal.Decimal      `json:"amount"`
	PaymentDate    string                `json:"payment_date"`
	Method         *entity.PaymentMethod `json:"payment_method"`
	TransactionID  *string               `json:"transaction_id"`
	TransactionFee *decimal.Decimal      `json:"transaction_fee"`
	Notes          *string               `json:"notes"`
}

func (b paymentBody) toInput() (entity.PaymentInput, error) {
	date, err := parseDate(b.PaymentDate)
	if err != nil {
		return entity.PaymentInput{}, err
	}
	return entity.PaymentInput{
		Amount:         b.Amount,
		PaymentDate:    date,
		Method:         b.Method,
		TransactionID:  b.TransactionID,
		TransactionFee: b.TransactionFee,
		Notes:          b.Notes,
	}, nil
}

type recordPaymentRequest struct {
	paymentBody
	InvoiceID int64                `json:"invoice_id" binding:"required"`
	Status    entity.PaymentStatus `json:"status"`
}

func (h *Handlers) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if !bind(c, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(c, "record payment", err)
		return
	}
	payment, err := h.svc.Payments.RecordPayment(c.Request.Context(), service.RecordPaymentRequest{
		PaymentInput: in,
		InvoiceID:    req.InvoiceID,
		Status:       req.Status,
	})
	if err != nil {
		h.fail(c, "record payment", err)
		return
	}
	created(c, payment)
}

// ListPayments handles GET /api/v1/payments?invoice_id=&from=&to=&days=
func (h *Handlers) ListPayments(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			badRequest(c, "invalid days")
			return
		}
		payments, err := h.svc.Payments.ListRecentPayments(ctx, days)
		if err != nil {
			h.fail(c, "list payments", err)
			return
		}
		ok(c, payments)
		return
	}

	invoiceID, valid := queryID(c, "invoice_id")
	if !valid {
		return
	}
	from, valid := queryDate(c, "from")
	if !valid {
		return
	}
	to, valid := queryDate(c, "to")
	if !valid {
		return
	}

	payments, err := h.svc.Payments.ListPayments(ctx, port.PaymentFilter{InvoiceID: invoiceID, From: from, To: to})
	if err != nil {
		h.fail(c, "list payments", err)
		return
	}
	ok(c, payments)
}

func (h *Handlers) GetPayment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	payment, err := h.svc.Payments.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get payment", err)
		return
	}
	ok(c, payment)
}

func (h *Handlers) UpdatePayment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var body paymentBody
	if !bind(c, &body) {
		return
	}
	in, err := body.toInput()
	if err != nil {
		h.fail(c, "update payment", err)
		return
	}
	payment, err := h.svc.Payments.UpdatePayment(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update payment", err)
		return
	}
	ok(c, payment)
}

func (h *Handlers) DeletePayment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Payments.DeletePayment(c.Request.Context(), id); err != nil {
		h.fail(c, "delete payment", err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

func (h *Handlers) CompletePayment(c *gin.Context) {
	h.paymentTransition(c, "complete payment", h.svc.Payments.CompletePayment)
}

func (h *Handlers) FailPayment(c *gin.Context) {
	h.paymentTransition(c, "fail payment", h.svc.Payments.FailPayment)
}

func (h *Handlers) CancelPayment(c *gin.Context) {
	h.paymentTransition(c, "cancel payment", h.svc.Payments.CancelPayment)
}

func (h *Handlers) paymentTransition(c *gin.Context, action string, fire func(context.Context, int64) (*entity.Payment, error)) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	payment, err := fire(c.Request.Context(), id)
	if err != nil {
		h.fail(c, action, err)
		return
	}
	ok(c, payment)
}
