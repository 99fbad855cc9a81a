package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/pkg/utils"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was made
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheque       PaymentMethod = "cheque"
	MethodUPI          PaymentMethod = "upi"
	MethodCard         PaymentMethod = "card"
	MethodOther        PaymentMethod = "other"
)

// PaymentMethods lists every method in display order
var PaymentMethods = []PaymentMethod{MethodCash, MethodBankTransfer, MethodCheque, MethodUPI, MethodCard, MethodOther}

func (m PaymentMethod) String() string { return string(m) }

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodCheque, MethodUPI, MethodCard, MethodOther:
		return true
	}
	return false
}

// Label is the human readable method name, e.g. "Bank Transfer"
func (m PaymentMethod) Label() string {
	switch m {
	case MethodBankTransfer:
		return "Bank Transfer"
	case MethodUPI:
		return "UPI"
	case "":
		return "Unspecified"
	}
	s := string(m)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePaymentMethod accepts the stored value case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", Invalid("unknown payment method %q", s)
	}
	return m, nil
}

// PaymentStatus is the lifecycle status of a payment
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) String() string { return string(s) }

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentPending
}

// IsActive reports whether the payment counts against the invoice balance
func (s PaymentStatus) IsActive() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// ParsePaymentStatus converts a stored or user supplied value
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !status.IsValid() {
		return "", Invalid("unknown payment status %q", s)
	}
	return status, nil
}

const maxTransactionIDLength = 100

// Payment is money received against one invoice. NetAmount is derived.
type Payment struct {
	Record
	InvoiceID      int64           `json:"invoice_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	Method         PaymentMethod   `json:"payment_method"`
	Status         PaymentStatus   `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	TransactionFee decimal.Decimal `json:"transaction_fee"`
	Notes          string          `json:"notes,omitempty"`

	netAmount decimal.Decimal
}

// PaymentInput carries editable payment fields. Nil pointers leave a field unchanged on update.
type PaymentInput struct {
	Amount         *decimal.Decimal `json:"amount"`
	PaymentDate    *time.Time       `json:"payment_date"`
	Method         *PaymentMethod   `json:"payment_method"`
	TransactionID  *string          `json:"transaction_id"`
	TransactionFee *decimal.Decimal `json:"transaction_fee"`
	Notes          *string          `json:"notes"`
}

// NewPayment validates a payment for invoiceID. Missing dates default to today.
func NewPayment(invoiceID int64, status PaymentStatus, in PaymentInput, limits money.Limits, today time.Time) (*Payment, error) {
	if invoiceID <= 0 {
		return nil, Invalid("invoice id is required")
	}
	if in.Amount == nil {
		return nil, Invalid("payment amount is required")
	}
	if status != PaymentPending && status != PaymentCompleted {
		return nil, Invalid("new payments must be pending or completed")
	}

	p := &Payment{
		InvoiceID:      invoiceID,
		PaymentDate:    Date(today),
		Method:         MethodOther,
		Status:         status,
		TransactionFee: decimal.Zero,
	}
	if err := p.apply(in, limits); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-nil fields of in and recalculates the net amount
func (p *Payment) Update(in PaymentInput, limits money.Limits) error {
	if p.Status == PaymentCancelled || p.Status == PaymentFailed {
		return NotAllowed("cannot edit %s payment %d", p.Status, p.ID)
	}
	updated := *p
	if err := updated.apply(in, limits); err != nil {
		return err
	}
	*p = updated
	return nil
}

func (p *Payment) apply(in PaymentInput, limits money.Limits) error {
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return Invalid("payment amount must be positive")
		}
		amount, err := money.ValidateAmount(*in.Amount, limits)
		if err != nil {
			return InvalidErr(err)
		}
		p.Amount = amount
	}
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		p.PaymentDate = Date(*in.PaymentDate)
	}
	if in.Method != nil {
		if !in.Method.IsValid() {
			return Invalid("unknown payment method %q", *in.Method)
		}
		p.Method = *in.Method
	}
	if in.TransactionID != nil {
		txID := strings.TrimSpace(*in.TransactionID)
		if err := utils.ValidateLength("transaction id", txID, maxTransactionIDLength); err != nil {
			return InvalidErr(err)
		}
		p.TransactionID = txID
	}
	if in.TransactionFee != nil {
		p.TransactionFee = money.Round(*in.TransactionFee)
	}
	if in.Notes != nil {
		p.Notes = utils.SanitizeString(*in.Notes)
	}

	if p.TransactionFee.IsNegative() {
		return Invalid("transaction fee cannot be negative")
	}
	if p.TransactionFee.GreaterThan(p.Amount) {
		return Invalid("transaction fee cannot exceed payment amount")
	}
	p.Recalculate()
	return nil
}

// Recalculate derives the net amount
func (p *Payment) Recalculate() {
	p.netAmount = p.Amount.Sub(p.TransactionFee)
}

// NetAmount is amount minus transaction fee
func (p *Payment) NetAmount() decimal.Decimal {
	return p.netAmount
}

// Complete confirms a pending payment
func (p *Payment) Complete(ctx context.Context) error {
	return p.fire(ctx, PaymentTriggerComplete)
}

// Fail marks a pending payment as failed
func (p *Payment) Fail(ctx context.Context) error {
	return p.fire(ctx, PaymentTriggerFail)
}

// Cancel withdraws a pending payment. Completed payments cannot be cancelled.
func (p *Payment) Cancel(ctx context.Context) error {
	return p.fire(ctx, PaymentTriggerCancel)
}

func (p *Payment) fire(ctx context.Context, trigger PaymentTrigger) error {
	next, err := fire(ctx, paymentLifecycle, p.Status, trigger)
	if err != nil {
		return fmt.Errorf("payment %d: %w", p.ID, err)
	}
	p.Status = next
	return nil
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type alias Payment
	return json.Marshal(struct {
		alias
		NetAmount decimal.Decimal `json:"net_amount"`
	}{alias(p), p.netAmount})
}
