package report

import (
	"sort"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClientRevenue is one client's invoiced, paid and pending totals
type ClientRevenue struct {
	ClientID      int64           `json:"client_id"`
	ClientName    string          `json:"client_name"`
	Email         string          `json:"email,omitempty"`
	TotalInvoices int             `json:"total_invoices"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// ClientRevenueRollup folds invoices per client, ordered by total amount descending.
// Clients keep the order of the clients slice on ties; invoices of unknown clients
// follow in order of first appearance. Clients with nothing billed are omitted.
func ClientRevenueRollup(clients []*entity.Client, invoices []*entity.Invoice, dir Directory) []ClientRevenue {
	rows := make([]ClientRevenue, 0, len(clients))
	index := make(map[int64]int, len(clients))

	row := func(clientID int64) *ClientRevenue {
		i, ok := index[clientID]
		if !ok {
			i = len(rows)
			index[clientID] = i
			rows = append(rows, ClientRevenue{
				ClientID:      clientID,
				ClientName:    dir.ClientName(clientID),
				Email:         dir.ClientEmail(clientID),
				PaidAmount:    decimal.Zero,
				PendingAmount: decimal.Zero,
				TotalAmount:   decimal.Zero,
			})
		}
		return &rows[i]
	}

	for _, c := range clients {
		row(c.ID)
	}
	for _, inv := range invoices {
		r := row(inv.ClientID)
		r.TotalInvoices++
		switch {
		case inv.Status == entity.InvoicePaid:
			r.PaidAmount = r.PaidAmount.Add(inv.TotalAmount())
		case inv.Status.IsOpen():
			r.PendingAmount = r.PendingAmount.Add(inv.TotalAmount())
		}
		r.TotalAmount = r.PaidAmount.Add(r.PendingAmount)
	}

	billed := rows[:0]
	for _, r := range rows {
		if r.TotalAmount.IsPositive() {
			billed = append(billed, r)
		}
	}
	sort.SliceStable(billed, func(i, j int) bool {
		return billed[i].TotalAmount.GreaterThan(billed[j].TotalAmount)
	})
	return billed
}

// ProjectSummary is one project's logged hours and billed value
type ProjectSummary struct {
	ProjectID      int64                `json:"project_id"`
	ProjectName    string               `json:"project_name"`
	ClientName     string               `json:"client_name"`
	Status         entity.ProjectStatus `json:"status"`
	RateType       string               `json:"rate_type"`
	Rate           decimal.Decimal      `json:"rate"`
	HoursWorked    decimal.Decimal      `json:"hours_worked"`
	Amount         decimal.Decimal      `json:"amount"`
	InvoiceCount   int                  `json:"invoice_count"`
	InvoicedAmount decimal.Decimal      `json:"invoiced_amount"`
}

// ProjectRollup folds projects with their invoices, ordered by hours worked descending
// and stable on the order of the projects slice.
func ProjectRollup(projects []*entity.Project, invoices []*entity.Invoice, dir Directory) []ProjectSummary {
	type billed struct {
		count  int
		amount decimal.Decimal
	}
	perProject := make(map[int64]*billed)
	for _, inv := range invoices {
		if inv.ProjectID == nil || inv.Status == entity.InvoiceCancelled {
			continue
		}
		b, ok := perProject[*inv.ProjectID]
		if !ok {
			b = &billed{amount: decimal.Zero}
			perProject[*inv.ProjectID] = b
		}
		b.count++
		b.amount = b.amount.Add(inv.TotalAmount())
	}

	rows := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		s := ProjectSummary{
			ProjectID:      p.ID,
			ProjectName:    p.Name,
			ClientName:     dir.ClientName(p.ClientID),
			Status:         p.Status,
			RateType:       p.RateType(),
			Rate:           p.Rate(),
			HoursWorked:    p.HoursWorked,
			Amount:         p.CalculateAmount(),
			InvoicedAmount: decimal.Zero,
		}
		if b, ok := perProject[p.ID]; ok {
			s.InvoiceCount = b.count
			s.InvoicedAmount = b.amount
		}
		rows = append(rows, s)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].HoursWorked.GreaterThan(rows[j].HoursWorked)
	})
	return rows
}

// TimeTracking totals the hours logged on hourly projects
type TimeTracking struct {
	TotalHours     decimal.Decimal  `json:"total_hours"`
	BillableAmount decimal.Decimal  `json:"billable_amount"`
	ActiveProjects int              `json:"active_projects"`
	Projects       []ProjectSummary `json:"projects"`
}

// TrackTime rolls up hourly projects only, ordered by hours descending
func TrackTime(projects []*entity.Project, dir Directory) TimeTracking {
	hourly := make([]*entity.Project, 0, len(projects))
	for _, p := range projects {
		if p.IsHourly() {
			hourly = append(hourly, p)
		}
	}

	t := TimeTracking{
		TotalHours:     decimal.Zero,
		BillableAmount: decimal.Zero,
		Projects:       ProjectRollup(hourly, nil, dir),
	}
	for _, p := range hourly {
		t.TotalHours = t.TotalHours.Add(p.HoursWorked)
		t.BillableAmount = t.BillableAmount.Add(p.CalculateAmount())
		if p.Status == entity.ProjectActive {
			t.ActiveProjects++
		}
	}
	return t
}

// InvoiceRow is an invoice flattened for listing
type InvoiceRow struct {
	InvoiceID     int64                `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	ClientName    string               `json:"client_name"`
	Status        entity.InvoiceStatus `json:"status"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       time.Time            `json:"due_date"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
}

// StatusGroup lists the invoices sharing an effective status
type StatusGroup struct {
	Status   entity.InvoiceStatus `json:"status"`
	Count    int                  `json:"count"`
	Amount   decimal.Decimal      `json:"amount"`
	Invoices []InvoiceRow         `json:"invoices"`
}

// StatusBreakdown groups invoices by effective status (overdue derived from today),
// in the order of entity.InvoiceStatuses. Empty groups are omitted.
func StatusBreakdown(invoices []*entity.Invoice, dir Directory, today time.Time) []StatusGroup {
	groups := make(map[entity.InvoiceStatus]*StatusGroup)
	for _, inv := range invoices {
		status := inv.EffectiveStatus(today)
		g, ok := groups[status]
		if !ok {
			g = &StatusGroup{Status: status, Amount: decimal.Zero}
			groups[status] = g
		}
		g.Count++
		g.Amount = g.Amount.Add(inv.TotalAmount())
		g.Invoices = append(g.Invoices, InvoiceRow{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientName:    dir.ClientName(inv.ClientID),
			Status:        status,
			IssueDate:     inv.IssueDate,
			DueDate:       inv.DueDate,
			TotalAmount:   inv.TotalAmount(),
		})
	}

	out := make([]StatusGroup, 0, len(groups))
	for _, status := range entity.InvoiceStatuses {
		if g, ok := groups[status]; ok {
			out = append(out, *g)
		}
	}
	return out
}
