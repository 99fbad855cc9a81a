package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/pkg/utils"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the stored lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "draft"
	InvoiceSent          InvoiceStatus = "sent"
	InvoicePaid          InvoiceStatus = "paid"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceOverdue       InvoiceStatus = "overdue"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every invoice status in display order
var InvoiceStatuses = []InvoiceStatus{
	InvoiceDraft, InvoiceSent, InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled,
}

func (s InvoiceStatus) String() string { return string(s) }

func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoicePartiallyPaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// IsTerminal is true only for cancelled; paid invoices can move back when payments are removed.
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceCancelled
}

// IsOpen reports whether money may still be owed on an invoice in this status
func (s InvoiceStatus) IsOpen() bool {
	return s != InvoicePaid && s != InvoiceCancelled
}

// ParseInvoiceStatus converts a stored or user supplied value
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(s)
	if !status.IsValid() {
		return "", Invalid("unknown invoice status %q", s)
	}
	return status, nil
}

// InvoiceItem is one billed line. Amount is derived from quantity and rate.
type InvoiceItem struct {
	ID          int64           `json:"id,omitempty"`
	InvoiceID   int64           `json:"invoice_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	amount      decimal.Decimal
}

// Amount is quantity x rate rounded to cents
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.amount
}

func (i *InvoiceItem) recalculate() {
	i.amount = money.Round(i.Quantity.Mul(i.Rate))
}

func (i InvoiceItem) MarshalJSON() ([]byte, error) {
	type alias InvoiceItem
	return json.Marshal(struct {
		alias
		Amount decimal.Decimal `json:"amount"`
	}{alias(i), i.amount})
}

// Invoice bills a client, optionally for one project.
// Subtotal, tax and total are derived from the items and only change through Recalculate.
type Invoice struct {
	Record
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      int64           `json:"client_id"`
	ProjectID     *int64          `json:"project_id,omitempty"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Notes         string          `json:"notes,omitempty"`

	items     []InvoiceItem
	subtotal  decimal.Decimal
	taxAmount decimal.Decimal
	total     decimal.Decimal
}

// InvoiceParams describes a new invoice
type InvoiceParams struct {
	InvoiceNumber string
	ClientID      int64
	ProjectID     *int64
	IssueDate     time.Time
	DueDate       time.Time
	TaxRate       decimal.Decimal
	Notes         string
}

// GenerateInvoiceNumber returns PREFIX-YYYYMMDDhhmmss
func GenerateInvoiceNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s", prefix, now.Format("20060102150405"))
}

// NewInvoice validates params and returns a draft invoice with no items
func NewInvoice(p InvoiceParams) (*Invoice, error) {
	if err := utils.ValidateInvoiceNumber(p.InvoiceNumber); err != nil {
		return nil, InvalidErr(err)
	}
	if p.ClientID <= 0 {
		return nil, Invalid("client id is required")
	}
	if p.ProjectID != nil && *p.ProjectID <= 0 {
		return nil, Invalid("project id must be positive")
	}
	if p.IssueDate.IsZero() || p.DueDate.IsZero() {
		return nil, Invalid("issue date and due date are required")
	}
	if Date(p.DueDate).Before(Date(p.IssueDate)) {
		return nil, Invalid("due date cannot be before issue date")
	}
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, Invalid("tax rate must be between 0 and 1")
	}

	inv := &Invoice{
		InvoiceNumber: p.InvoiceNumber,
		ClientID:      p.ClientID,
		ProjectID:     p.ProjectID,
		IssueDate:     Date(p.IssueDate),
		DueDate:       Date(p.DueDate),
		Status:        InvoiceDraft,
		TaxRate:       p.TaxRate,
		Notes:         utils.SanitizeString(p.Notes),
	}
	inv.Recalculate()
	return inv, nil
}

// Items returns a copy of the line items in insertion order
func (inv *Invoice) Items() []InvoiceItem {
	items := make([]InvoiceItem, len(inv.items))
	copy(items, inv.items)
	return items
}

// LoadItems replaces the items with persisted ones and recalculates, regardless of status.
func (inv *Invoice) LoadItems(items []InvoiceItem) {
	inv.items = append([]InvoiceItem(nil), items...)
	inv.Recalculate()
}

// AddItem appends a line item to a draft invoice
func (inv *Invoice) AddItem(description string, quantity, rate decimal.Decimal, limits money.Limits) (InvoiceItem, error) {
	if inv.Status != InvoiceDraft {
		return InvoiceItem{}, NotAllowed("cannot add items to %s invoice %s", inv.Status, inv.InvoiceNumber)
	}

	description = utils.SanitizeString(description)
	if err := utils.ValidateRequired("item description", description, utils.MaxStringLength); err != nil {
		return InvoiceItem{}, InvalidErr(err)
	}
	if err := money.ValidateQuantity(quantity, limits); err != nil {
		return InvoiceItem{}, InvalidErr(err)
	}
	if err := money.ValidateRate(rate, limits); err != nil {
		return InvoiceItem{}, InvalidErr(err)
	}

	item := InvoiceItem{
		InvoiceID:   inv.ID,
		Description: description,
		Quantity:    quantity,
		Rate:        money.Round(rate),
	}
	item.recalculate()

	inv.items = append(inv.items, item)
	inv.Recalculate()
	return item, nil
}

// RemoveItem deletes the item at index from a draft invoice
func (inv *Invoice) RemoveItem(index int) (InvoiceItem, error) {
	if inv.Status != InvoiceDraft {
		return InvoiceItem{}, NotAllowed("cannot remove items from %s invoice %s", inv.Status, inv.InvoiceNumber)
	}
	if index < 0 || index >= len(inv.items) {
		return InvoiceItem{}, Invalid("item index %d out of range", index)
	}

	removed := inv.items[index]
	inv.items = append(inv.items[:index:index], inv.items[index+1:]...)
	inv.Recalculate()
	return removed, nil
}

// Recalculate derives every item amount, the subtotal, tax and total. It is idempotent.
func (inv *Invoice) Recalculate() {
	subtotal := decimal.Zero
	for i := range inv.items {
		inv.items[i].recalculate()
		subtotal = subtotal.Add(inv.items[i].amount)
	}
	inv.subtotal = subtotal
	inv.taxAmount = money.Round(subtotal.Mul(inv.TaxRate))
	inv.total = inv.subtotal.Add(inv.taxAmount)
}

func (inv *Invoice) Subtotal() decimal.Decimal    { return inv.subtotal }
func (inv *Invoice) TaxAmount() decimal.Decimal   { return inv.taxAmount }
func (inv *Invoice) TotalAmount() decimal.Decimal { return inv.total }

// IsOverdue reports whether the due date has passed on an unsettled invoice
func (inv *Invoice) IsOverdue(today time.Time) bool {
	return inv.Status.IsOpen() && Date(inv.DueDate).Before(Date(today))
}

// EffectiveStatus is the stored status, or overdue when IsOverdue holds
func (inv *Invoice) EffectiveStatus(today time.Time) InvoiceStatus {
	if inv.IsOverdue(today) {
		return InvoiceOverdue
	}
	return inv.Status
}

// DaysOverdue is the calendar-day distance past the due date; zero or negative when not yet due
func (inv *Invoice) DaysOverdue(today time.Time) int {
	return DaysBetween(inv.DueDate, today)
}

// Send marks a draft or already sent invoice as sent
func (inv *Invoice) Send(ctx context.Context) error {
	return inv.fire(ctx, InvoiceTriggerSend)
}

// Cancel voids an invoice that has not been fully paid
func (inv *Invoice) Cancel(ctx context.Context) error {
	return inv.fire(ctx, InvoiceTriggerCancel)
}

// ApplySettlement moves the invoice to a status derived from its payments
func (inv *Invoice) ApplySettlement(ctx context.Context, target InvoiceStatus) error {
	if target == inv.Status {
		return nil
	}

	var trigger InvoiceTrigger
	switch target {
	case InvoicePaid:
		trigger = InvoiceTriggerSettle
	case InvoicePartiallyPaid:
		trigger = InvoiceTriggerPartPay
	case InvoiceSent:
		trigger = InvoiceTriggerReopen
	default:
		return NotAllowed("payments cannot move invoice %s to %s", inv.InvoiceNumber, target)
	}
	return inv.fire(ctx, trigger)
}

func (inv *Invoice) fire(ctx context.Context, trigger InvoiceTrigger) error {
	next, err := fire(ctx, invoiceLifecycle, inv.Status, trigger)
	if err != nil {
		return fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
	}
	inv.Status = next
	return nil
}

func (inv Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		alias
		Items       []InvoiceItem   `json:"items"`
		Subtotal    decimal.Decimal `json:"subtotal"`
		TaxAmount   decimal.Decimal `json:"tax_amount"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}{alias(inv), inv.Items(), inv.subtotal, inv.taxAmount, inv.total})
}
