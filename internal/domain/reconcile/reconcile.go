// Package reconcile derives an invoice's settlement status and balance from
// the payments recorded against it. Every function recomputes from the full
// payment set; nothing is applied incrementally.
package reconcile

import (
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/shopspring/decimal"
)

// Totals sums payments by how they count against an invoice
type Totals struct {
	// Completed drives the invoice status
	Completed decimal.Decimal
	// Active (pending + completed) is bounded by the invoice total
	Active decimal.Decimal
}

// Sum folds payments into Totals, skipping the payment with id exclude (0 excludes nothing)
func Sum(payments []*entity.Payment, exclude int64) Totals {
	t := Totals{Completed: decimal.Zero, Active: decimal.Zero}
	for _, p := range payments {
		if exclude != 0 && p.ID == exclude {
			continue
		}
		if p.Status.IsActive() {
			t.Active = t.Active.Add(p.Amount)
		}
		if p.Status == entity.PaymentCompleted {
			t.Completed = t.Completed.Add(p.Amount)
		}
	}
	return t
}

// DeriveStatus returns the status an invoice should hold given its completed payments.
// Cancelled invoices are never moved by payments. Drafts settle like sent invoices.
// A zero total reverts partially paid invoices to sent and leaves every other status alone.
func DeriveStatus(current entity.InvoiceStatus, total, completed decimal.Decimal) entity.InvoiceStatus {
	if current == entity.InvoiceCancelled {
		return current
	}

	switch {
	case completed.IsZero():
		if current == entity.InvoicePartiallyPaid {
			return entity.InvoiceSent
		}
		return current
	case completed.GreaterThanOrEqual(total):
		return entity.InvoicePaid
	default:
		return entity.InvoicePartiallyPaid
	}
}

// CheckAmount rejects a payment amount that is not positive or exceeds the
// remaining balance. It never clamps.
func CheckAmount(total, alreadyActive, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return entity.Invalid("payment amount must be positive")
	}
	remaining := total.Sub(alreadyActive)
	if amount.GreaterThan(remaining) {
		return entity.Invalid("payment amount (%s) exceeds remaining balance (%s)",
			amount.StringFixed(money.Scale), remaining.StringFixed(money.Scale))
	}
	return nil
}

// Balance is the payment position of one invoice
type Balance struct {
	InvoiceID     int64           `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total_amount"`
	Paid          decimal.Decimal `json:"amount_paid"`
	Remaining     decimal.Decimal `json:"amount_remaining"`
	Percentage    decimal.Decimal `json:"payment_percentage"`
	FullyPaid     bool            `json:"is_fully_paid"`
}

// BalanceOf computes the balance of inv from its completed payments
func BalanceOf(inv *entity.Invoice, payments []*entity.Payment) Balance {
	paid := Sum(payments, 0).Completed
	remaining := inv.TotalAmount().Sub(paid)
	return Balance{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Status:        inv.Status.String(),
		Total:         inv.TotalAmount(),
		Paid:          paid,
		Remaining:     remaining,
		Percentage:    money.Percentage(paid, inv.TotalAmount()),
		FullyPaid:     !remaining.IsPositive(),
	}
}
