package report

import (
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Aging bucket labels, in report order
const (
	BucketCurrent = "Current (Not Yet Due)"
	Bucket1To30   = "1-30 Days Overdue"
	Bucket31To60  = "31-60 Days Overdue"
	BucketOver60  = "60+ Days Overdue"
)

var bucketLabels = []string{BucketCurrent, Bucket1To30, Bucket31To60, BucketOver60}

// BucketFor maps calendar days past due to an aging bucket label
func BucketFor(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	default:
		return BucketOver60
	}
}

// AgingEntry is one outstanding invoice
type AgingEntry struct {
	InvoiceID     int64           `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	DueDate       time.Time       `json:"due_date"`
	DaysOverdue   int             `json:"days_overdue"`
	Amount        decimal.Decimal `json:"amount"`
}

// AgingBucket groups outstanding invoices by how late they are
type AgingBucket struct {
	Label    string          `json:"label"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
	Invoices []AgingEntry    `json:"invoices"`
}

// AgingReport is the outstanding balance split into aging buckets
type AgingReport struct {
	AsOf             time.Time       `json:"as_of"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Buckets          []AgingBucket   `json:"buckets"`
}

// Aging buckets every invoice that is neither paid nor cancelled by (today - due date)
func Aging(invoices []*entity.Invoice, dir Directory, today time.Time) AgingReport {
	buckets := make(map[string]*AgingBucket, len(bucketLabels))
	for _, label := range bucketLabels {
		buckets[label] = &AgingBucket{Label: label, Amount: decimal.Zero, Invoices: []AgingEntry{}}
	}

	r := AgingReport{AsOf: entity.Date(today), TotalOutstanding: decimal.Zero}
	for _, inv := range invoices {
		if !inv.Status.IsOpen() {
			continue
		}
		days := inv.DaysOverdue(today)
		b := buckets[BucketFor(days)]
		b.Count++
		b.Amount = b.Amount.Add(inv.TotalAmount())
		b.Invoices = append(b.Invoices, AgingEntry{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    dir.ClientName(inv.ClientID),
			DueDate:       inv.DueDate,
			DaysOverdue:   max(days, 0),
			Amount:        inv.TotalAmount(),
		})
		r.TotalOutstanding = r.TotalOutstanding.Add(inv.TotalAmount())
	}

	for _, label := range bucketLabels {
		r.Buckets = append(r.Buckets, *buckets[label])
	}
	return r
}

// ClientOutstanding is one client's unpaid balance
type ClientOutstanding struct {
	ClientID      int64           `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Email         string          `json:"email,omitempty"`
	InvoiceCount  int             `json:"invoice_count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

// OutstandingReport summarises unpaid invoices overall and per client
type OutstandingReport struct {
	TotalOutstanding decimal.Decimal     `json:"total_outstanding"`
	OverdueAmount    decimal.Decimal     `json:"overdue_amount"`
	UnpaidInvoices   int                 `json:"total_unpaid_invoices"`
	OverdueInvoices  int                 `json:"overdue_invoices_count"`
	ClientBreakdown  []ClientOutstanding `json:"client_breakdown"`
}

// Outstanding folds open invoices by client in order of first appearance
func Outstanding(invoices []*entity.Invoice, dir Directory, today time.Time) OutstandingReport {
	r := OutstandingReport{
		TotalOutstanding: decimal.Zero,
		OverdueAmount:    decimal.Zero,
		ClientBreakdown:  []ClientOutstanding{},
	}
	index := make(map[int64]int)

	for _, inv := range invoices {
		if !inv.Status.IsOpen() {
			continue
		}
		r.UnpaidInvoices++
		r.TotalOutstanding = r.TotalOutstanding.Add(inv.TotalAmount())

		i, ok := index[inv.ClientID]
		if !ok {
			i = len(r.ClientBreakdown)
			index[inv.ClientID] = i
			r.ClientBreakdown = append(r.ClientBreakdown, ClientOutstanding{
				ClientID:      inv.ClientID,
				ClientName:    dir.ClientName(inv.ClientID),
				Email:         dir.ClientEmail(inv.ClientID),
				TotalAmount:   decimal.Zero,
				OverdueAmount: decimal.Zero,
			})
		}
		c := &r.ClientBreakdown[i]
		c.InvoiceCount++
		c.TotalAmount = c.TotalAmount.Add(inv.TotalAmount())

		if inv.IsOverdue(today) {
			r.OverdueInvoices++
			r.OverdueAmount = r.OverdueAmount.Add(inv.TotalAmount())
			c.OverdueAmount = c.OverdueAmount.Add(inv.TotalAmount())
		}
	}
	return r
}
