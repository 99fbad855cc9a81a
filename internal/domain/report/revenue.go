package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/shopspring/decimal"
)

// StatusTotal is the count and summed total of invoices in one status
type StatusTotal struct {
	Status entity.InvoiceStatus `json:"status"`
	Count  int                  `json:"count"`
	Amount decimal.Decimal      `json:"amount"`
}

// RevenueSummary partitions invoices by stored status
type RevenueSummary struct {
	TotalInvoices     int             `json:"total_invoices"`
	PaidInvoices      int             `json:"paid_invoices"`
	OverdueInvoices   int             `json:"overdue_invoices"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	OverdueAmount     decimal.Decimal `json:"overdue_amount"`
	// PaymentRate is paid invoices over all invoices, as a percentage
	PaymentRate decimal.Decimal `json:"payment_rate"`
	ByStatus    []StatusTotal   `json:"by_status"`
}

// Summarize folds invoices into a RevenueSummary
func Summarize(invoices []*entity.Invoice, today time.Time) RevenueSummary {
	s := RevenueSummary{
		TotalInvoices:     len(invoices),
		TotalRevenue:      decimal.Zero,
		OutstandingAmount: decimal.Zero,
		OverdueAmount:     decimal.Zero,
	}

	byStatus := make(map[entity.InvoiceStatus]*StatusTotal, len(entity.InvoiceStatuses))
	for _, status := range entity.InvoiceStatuses {
		byStatus[status] = &StatusTotal{Status: status, Amount: decimal.Zero}
	}

	for _, inv := range invoices {
		if st, ok := byStatus[inv.Status]; ok {
			st.Count++
			st.Amount = st.Amount.Add(inv.TotalAmount())
		}
		if inv.Status == entity.InvoicePaid {
			s.PaidInvoices++
			s.TotalRevenue = s.TotalRevenue.Add(inv.TotalAmount())
		}
		if inv.Status.IsOpen() {
			s.OutstandingAmount = s.OutstandingAmount.Add(inv.TotalAmount())
		}
		if inv.IsOverdue(today) {
			s.OverdueInvoices++
			s.OverdueAmount = s.OverdueAmount.Add(inv.TotalAmount())
		}
	}

	for _, status := range entity.InvoiceStatuses {
		s.ByStatus = append(s.ByStatus, *byStatus[status])
	}
	s.PaymentRate = money.Percentage(decimal.NewFromInt(int64(s.PaidInvoices)), decimal.NewFromInt(int64(s.TotalInvoices)))
	return s
}

// MonthRevenue is paid revenue for one calendar month
type MonthRevenue struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"invoice_count"`
	Average decimal.Decimal `json:"average_invoice"`
}

// MonthlyRevenue groups paid invoices issued within [from, to] by issue month, oldest first
func MonthlyRevenue(invoices []*entity.Invoice, from, to time.Time) []MonthRevenue {
	from, to = entity.Date(from), entity.Date(to)

	type key struct {
		year  int
		month time.Month
	}
	groups := make(map[key]*MonthRevenue)

	for _, inv := range invoices {
		if inv.Status != entity.InvoicePaid {
			continue
		}
		issued := entity.Date(inv.IssueDate)
		if issued.Before(from) || issued.After(to) {
			continue
		}
		k := key{issued.Year(), issued.Month()}
		m, ok := groups[k]
		if !ok {
			m = &MonthRevenue{
				Year:    k.year,
				Month:   k.month,
				Label:   fmt.Sprintf("%s %d", k.month, k.year),
				Revenue: decimal.Zero,
			}
			groups[k] = m
		}
		m.Revenue = m.Revenue.Add(inv.TotalAmount())
		m.Count++
	}

	months := make([]MonthRevenue, 0, len(groups))
	for _, m := range groups {
		m.Average = average(m.Revenue, m.Count)
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return months
}

// MonthReport summarises every invoice issued in one month
type MonthReport struct {
	Year            int             `json:"year"`
	Month           time.Month      `json:"month"`
	MonthName       string          `json:"month_name"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalInvoices   int             `json:"total_invoices"`
	PaidInvoices    int             `json:"paid_invoices"`
	PendingInvoices int             `json:"pending_invoices"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
	// CollectionRate is revenue over invoiced amount, as a percentage
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

// Month builds the report for invoices issued in year/month
func Month(invoices []*entity.Invoice, year int, month time.Month) MonthReport {
	r := MonthReport{
		Year:          year,
		Month:         month,
		MonthName:     month.String(),
		TotalRevenue:  decimal.Zero,
		TotalAmount:   decimal.Zero,
		PendingAmount: decimal.Zero,
	}
	for _, inv := range invoices {
		if inv.IssueDate.Year() != year || inv.IssueDate.Month() != month {
			continue
		}
		r.TotalInvoices++
		r.TotalAmount = r.TotalAmount.Add(inv.TotalAmount())
		if inv.Status == entity.InvoicePaid {
			r.PaidInvoices++
			r.TotalRevenue = r.TotalRevenue.Add(inv.TotalAmount())
		} else {
			r.PendingAmount = r.PendingAmount.Add(inv.TotalAmount())
		}
	}
	r.PendingInvoices = r.TotalInvoices - r.PaidInvoices
	r.CollectionRate = money.Percentage(r.TotalRevenue, r.TotalAmount)
	return r
}

func average(sum decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return money.Round(sum.Div(decimal.NewFromInt(int64(count))))
}
