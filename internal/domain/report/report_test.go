package report

import (
	"testing"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// invoice builds an invoice whose total equals amount (tax rate zero)
func invoice(id, clientID int64, status entity.InvoiceStatus, amount string, issue, due time.Time) *entity.Invoice {
	inv := &entity.Invoice{
		InvoiceNumber: "INV-" + decimal.NewFromInt(id).String(),
		ClientID:      clientID,
		IssueDate:     issue,
		DueDate:       due,
		Status:        status,
		TaxRate:       decimal.Zero,
	}
	inv.ID = id
	inv.LoadItems([]entity.InvoiceItem{{Description: "Work", Quantity: decimal.NewFromInt(1), Rate: dec(amount)}})
	return inv
}

func client(id int64, name string) *entity.Client {
	c := &entity.Client{Name: name, Email: name + "@example.com"}
	c.ID = id
	return c
}

func daysAgo(n int) time.Time {
	return today.AddDate(0, 0, -n)
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket1To30},
		{30, Bucket1To30},
		{31, Bucket31To60},
		{45, Bucket31To60},
		{60, Bucket31To60},
		{61, BucketOver60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestAging(t *testing.T) {
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoiceSent, "100", daysAgo(75), daysAgo(45)),
		invoice(2, 1, entity.InvoiceSent, "200", daysAgo(10), today.AddDate(0, 0, 20)),
		invoice(3, 2, entity.InvoicePartiallyPaid, "300", daysAgo(100), daysAgo(70)),
		invoice(4, 2, entity.InvoicePaid, "400", daysAgo(100), daysAgo(70)),
		invoice(5, 99, entity.InvoiceDraft, "50", daysAgo(20), daysAgo(5)),
		invoice(6, 1, entity.InvoiceCancelled, "999", daysAgo(90), daysAgo(60)),
	}
	dir := NewDirectory([]*entity.Client{client(1, "alice"), client(2, "bob")}, nil)

	r := Aging(invoices, dir, today)

	require.Len(t, r.Buckets, 4)
	assert.Equal(t, "650", r.TotalOutstanding.String())

	current, early, mid, late := r.Buckets[0], r.Buckets[1], r.Buckets[2], r.Buckets[3]
	assert.Equal(t, BucketCurrent, current.Label)
	assert.Equal(t, 1, current.Count)
	assert.Equal(t, 0, current.Invoices[0].DaysOverdue)

	assert.Equal(t, 1, early.Count)
	assert.Equal(t, UnknownLabel, early.Invoices[0].ClientName)

	require.Equal(t, 1, mid.Count)
	assert.Equal(t, "INV-1", mid.Invoices[0].InvoiceNumber)
	assert.Equal(t, 45, mid.Invoices[0].DaysOverdue)

	assert.Equal(t, 1, late.Count)
	assert.Equal(t, "300", late.Amount.String())
}

func TestSummarize(t *testing.T) {
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoicePaid, "1000", daysAgo(40), daysAgo(10)),
		invoice(2, 1, entity.InvoiceSent, "500", daysAgo(40), daysAgo(10)),
		invoice(3, 1, entity.InvoiceDraft, "250", daysAgo(1), today.AddDate(0, 0, 29)),
		invoice(4, 1, entity.InvoiceCancelled, "75", daysAgo(1), today),
	}

	s := Summarize(invoices, today)

	assert.Equal(t, 4, s.TotalInvoices)
	assert.Equal(t, 1, s.PaidInvoices)
	assert.Equal(t, 1, s.OverdueInvoices)
	assert.Equal(t, "1000", s.TotalRevenue.String())
	assert.Equal(t, "750", s.OutstandingAmount.String())
	assert.Equal(t, "500", s.OverdueAmount.String())
	assert.Equal(t, "25.00", s.PaymentRate.StringFixed(2))

	require.Len(t, s.ByStatus, len(entity.InvoiceStatuses))
	for _, st := range s.ByStatus {
		if st.Status == entity.InvoiceCancelled {
			assert.Equal(t, 1, st.Count)
			assert.Equal(t, "75", st.Amount.String())
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, today)
	assert.Equal(t, 0, s.TotalInvoices)
	assert.True(t, s.PaymentRate.IsZero())
}

func TestClientRevenueRollup(t *testing.T) {
	clients := []*entity.Client{client(1, "alice"), client(2, "bob"), client(3, "carol"), client(4, "idle")}
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoicePaid, "100", daysAgo(5), today),
		invoice(2, 2, entity.InvoicePaid, "300", daysAgo(5), today),
		invoice(3, 3, entity.InvoiceSent, "100", daysAgo(5), today),
		invoice(4, 9, entity.InvoiceSent, "50", daysAgo(5), today),
		invoice(5, 1, entity.InvoiceCancelled, "1000", daysAgo(5), today),
	}
	dir := NewDirectory(clients, nil)

	rows := ClientRevenueRollup(clients, invoices, dir)

	require.Len(t, rows, 4)
	assert.Equal(t, "bob", rows[0].ClientName)
	// alice and carol tie at 100 and keep client order
	assert.Equal(t, "alice", rows[1].ClientName)
	assert.Equal(t, 2, rows[1].TotalInvoices)
	assert.Equal(t, "carol", rows[2].ClientName)
	assert.Equal(t, "100", rows[2].PendingAmount.String())
	assert.Equal(t, UnknownLabel, rows[3].ClientName)
}

func TestProjectRollupAndTimeTracking(t *testing.T) {
	mk := func(id int64, name string, hourly bool, rate, hours string, status entity.ProjectStatus) *entity.Project {
		p := &entity.Project{ClientID: 1, Name: name, HoursWorked: dec(hours), Status: status}
		p.ID = id
		if hourly {
			p.HourlyRate = decimal.NewNullDecimal(dec(rate))
		} else {
			p.FixedRate = decimal.NewNullDecimal(dec(rate))
		}
		return p
	}
	projects := []*entity.Project{
		mk(1, "site", true, "50", "10", entity.ProjectActive),
		mk(2, "logo", false, "900", "0", entity.ProjectCompleted),
		mk(3, "api", true, "80", "25", entity.ProjectOnHold),
		mk(4, "docs", true, "40", "10", entity.ProjectActive),
	}
	pid := int64(1)
	inv := invoice(1, 1, entity.InvoiceSent, "500", daysAgo(3), today)
	inv.ProjectID = &pid
	dir := NewDirectory([]*entity.Client{client(1, "alice")}, projects)

	rows := ProjectRollup(projects, []*entity.Invoice{inv}, dir)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"api", "site", "docs", "logo"}, []string{rows[0].ProjectName, rows[1].ProjectName, rows[2].ProjectName, rows[3].ProjectName})
	assert.Equal(t, 1, rows[1].InvoiceCount)
	assert.Equal(t, "500", rows[1].InvoicedAmount.String())
	assert.Equal(t, "Fixed", rows[3].RateType)

	tt := TrackTime(projects, dir)
	assert.Equal(t, "45", tt.TotalHours.String())
	assert.Equal(t, "2900", tt.BillableAmount.String())
	assert.Equal(t, 2, tt.ActiveProjects)
	assert.Len(t, tt.Projects, 3)
}

func TestMonthlyRevenue(t *testing.T) {
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoicePaid, "100", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), today),
		invoice(2, 1, entity.InvoicePaid, "200", time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), today),
		invoice(3, 1, entity.InvoicePaid, "50", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), today),
		invoice(4, 1, entity.InvoiceSent, "999", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), today),
		invoice(5, 1, entity.InvoicePaid, "70", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), today),
	}

	months := MonthlyRevenue(invoices, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), today)

	require.Len(t, months, 2)
	assert.Equal(t, "December 2023", months[0].Label)
	assert.Equal(t, "50", months[0].Revenue.String())
	assert.Equal(t, "January 2024", months[1].Label)
	assert.Equal(t, 2, months[1].Count)
	assert.Equal(t, "300", months[1].Revenue.String())
	assert.Equal(t, "150.00", months[1].Average.StringFixed(2))
}

func TestMonth(t *testing.T) {
	jan := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoicePaid, "300", jan(3), jan(30)),
		invoice(2, 1, entity.InvoiceSent, "100", jan(9), jan(30)),
		invoice(3, 1, entity.InvoicePaid, "100", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), jan(30)),
	}

	r := Month(invoices, 2024, time.January)
	assert.Equal(t, "January", r.MonthName)
	assert.Equal(t, 2, r.TotalInvoices)
	assert.Equal(t, 1, r.PendingInvoices)
	assert.Equal(t, "300", r.TotalRevenue.String())
	assert.Equal(t, "75.00", r.CollectionRate.StringFixed(2))
}

func TestStatusBreakdownUsesEffectiveStatus(t *testing.T) {
	invoices := []*entity.Invoice{
		invoice(1, 1, entity.InvoiceSent, "100", daysAgo(40), daysAgo(10)),
		invoice(2, 1, entity.InvoiceSent, "200", daysAgo(1), today.AddDate(0, 0, 5)),
		invoice(3, 7, entity.InvoicePaid, "300", daysAgo(40), daysAgo(10)),
	}
	groups := StatusBreakdown(invoices, NewDirectory([]*entity.Client{client(1, "alice")}, nil), today)

	require.Len(t, groups, 3)
	assert.Equal(t, entity.InvoiceSent, groups[0].Status)
	assert.Equal(t, entity.InvoicePaid, groups[1].Status)
	assert.Equal(t, UnknownLabel, groups[1].Invoices[0].ClientName)
	assert.Equal(t, entity.InvoiceOverdue, groups[2].Status)
	assert.Equal(t, "100", groups[2].Amount.String())
}

func TestOutstanding(t *testing.T) {
	invoices := []*entity.Invoice{
		invoice(1, 2, entity.InvoiceSent, "100", daysAgo(40), daysAgo(10)),
		invoice(2, 1, entity.InvoiceSent, "200", daysAgo(1), today.AddDate(0, 0, 5)),
		invoice(3, 2, entity.InvoicePartiallyPaid, "300", daysAgo(1), today.AddDate(0, 0, 5)),
		invoice(4, 1, entity.InvoicePaid, "400", daysAgo(40), daysAgo(10)),
	}
	r := Outstanding(invoices, NewDirectory([]*entity.Client{client(1, "alice"), client(2, "bob")}, nil), today)

	assert.Equal(t, 3, r.UnpaidInvoices)
	assert.Equal(t, 1, r.OverdueInvoices)
	assert.Equal(t, "600", r.TotalOutstanding.String())
	require.Len(t, r.ClientBreakdown, 2)
	assert.Equal(t, "bob", r.ClientBreakdown[0].ClientName)
	assert.Equal(t, "400", r.ClientBreakdown[0].TotalAmount.String())
	assert.Equal(t, "100", r.ClientBreakdown[0].OverdueAmount.String())
}

func TestSummarizePayments(t *testing.T) {
	mk := func(amount, fee string, method entity.PaymentMethod, status entity.PaymentStatus, day time.Time) *entity.Payment {
		p := &entity.Payment{Amount: dec(amount), TransactionFee: dec(fee), Method: method, Status: status, PaymentDate: day}
		p.Recalculate()
		return p
	}
	payments := []*entity.Payment{
		mk("100", "1", entity.MethodUPI, entity.PaymentCompleted, daysAgo(1)),
		mk("300", "0", entity.MethodCash, entity.PaymentCompleted, daysAgo(2)),
		mk("50", "0", entity.MethodUPI, entity.PaymentCompleted, daysAgo(3)),
		mk("70", "0", entity.MethodCash, entity.PaymentFailed, daysAgo(1)),
		mk("80", "0", entity.MethodCash, entity.PaymentCompleted, daysAgo(90)),
	}

	s := SummarizePayments(payments, daysAgo(30), today)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, "450", s.TotalAmount.String())
	assert.Equal(t, "449", s.NetAmount.String())
	assert.Equal(t, "150.00", s.Average.StringFixed(2))
	require.Len(t, s.ByMethod, 2)
	assert.Equal(t, entity.MethodCash, s.ByMethod[0].Method)
	assert.Equal(t, entity.MethodUPI, s.ByMethod[1].Method)
	assert.Equal(t, 2, s.ByMethod[1].Count)
}
