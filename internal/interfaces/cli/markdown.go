package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/reconcile"
	"github.com/garyjia/freelance-billing/internal/domain/report"
)

const dateLayout = "2006-01-02"

// doc accumulates a markdown document
type doc struct {
	b strings.Builder
}

func (d *doc) h1(s string) { fmt.Fprintf(&d.b, "# %s\n\n", s) }
func (d *doc) h2(s string) { fmt.Fprintf(&d.b, "## %s\n\n", s) }

func (d *doc) line(format string, args ...interface{}) {
	fmt.Fprintf(&d.b, format+"\n", args...)
}

func (d *doc) para(format string, args ...interface{}) {
	fmt.Fprintf(&d.b, format+"\n\n", args...)
}

func (d *doc) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		d.para("_none_")
		return
	}
	d.line("| %s |", strings.Join(header, " | "))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	d.line("| %s |", strings.Join(sep, " | "))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		d.line("| %s |", strings.Join(cells, " | "))
	}
	d.b.WriteString("\n")
}

func (d *doc) String() string { return d.b.String() }

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func (a *App) clientsMarkdown(clients []*entity.Client) string {
	var d doc
	d.h1(fmt.Sprintf("Clients (%d)", len(clients)))
	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{fmt.Sprint(c.ID), c.Name, c.Email, c.Phone, c.Company})
	}
	d.table([]string{"ID", "Name", "Email", "Phone", "Company"}, rows)
	return d.String()
}

func (a *App) clientMarkdown(c *entity.Client) string {
	var d doc
	d.h1(c.DisplayName())
	d.line("- **ID:** %d", c.ID)
	d.line("- **Email:** %s", c.Email)
	if c.Phone != "" {
		d.line("- **Phone:** %s", c.Phone)
	}
	if c.Address != "" {
		d.line("- **Address:** %s", c.Address)
	}
	d.line("- **Created:** %s", c.CreatedAt.Format(dateLayout))
	return d.String()
}

func (a *App) projectsMarkdown(projects []*entity.Project) string {
	var d doc
	d.h1(fmt.Sprintf("Projects (%d)", len(projects)))
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			fmt.Sprint(p.ID), p.Name, fmt.Sprint(p.ClientID), string(p.Status),
			p.RateType(), a.money(p.Rate()), p.HoursWorked.String(), a.money(p.CalculateAmount()),
		})
	}
	d.table([]string{"ID", "Name", "Client", "Status", "Type", "Rate", "Hours", "Amount"}, rows)
	return d.String()
}

func (a *App) invoicesMarkdown(invoices []*entity.Invoice) string {
	var d doc
	d.h1(fmt.Sprintf("Invoices (%d)", len(invoices)))
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []string{
			fmt.Sprint(inv.ID), inv.InvoiceNumber, fmt.Sprint(inv.ClientID),
			inv.IssueDate.Format(dateLayout), inv.DueDate.Format(dateLayout),
			string(inv.Status), a.money(inv.TotalAmount()),
		})
	}
	d.table([]string{"ID", "Number", "Client", "Issued", "Due", "Status", "Total"}, rows)
	return d.String()
}

func (a *App) invoiceMarkdown(inv *entity.Invoice, balance *reconcile.Balance) string {
	var d doc
	d.h1("Invoice " + inv.InvoiceNumber)
	d.line("- **Status:** %s", inv.Status)
	d.line("- **Client:** %d", inv.ClientID)
	if inv.ProjectID != nil {
		d.line("- **Project:** %d", *inv.ProjectID)
	}
	d.line("- **Issued:** %s", inv.IssueDate.Format(dateLayout))
	d.para("- **Due:** %s", inv.DueDate.Format(dateLayout))

	d.h2("Items")
	items := inv.Items()
	rows := make([][]string, 0, len(items))
	for i, it := range items {
		rows = append(rows, []string{fmt.Sprint(i), it.Description, it.Quantity.String(), a.money(it.Rate), a.money(it.Amount())})
	}
	d.table([]string{"#", "Description", "Qty", "Rate", "Amount"}, rows)

	d.line("- Subtotal: %s", a.money(inv.Subtotal()))
	d.line("- Tax (%s): %s", percent(inv.TaxRate.Shift(2)), a.money(inv.TaxAmount()))
	d.para("- **Total: %s**", a.money(inv.TotalAmount()))

	if balance != nil {
		d.h2("Payments")
		d.line("- Paid: %s (%s)", a.money(balance.Paid), percent(balance.Percentage))
		d.para("- Remaining: %s", a.money(balance.Remaining))
	}
	if inv.Notes != "" {
		d.h2("Notes")
		d.para("%s", inv.Notes)
	}
	return d.String()
}

func (a *App) paymentsMarkdown(payments []*entity.Payment) string {
	var d doc
	d.h1(fmt.Sprintf("Payments (%d)", len(payments)))
	rows := make([][]string, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []string{
			fmt.Sprint(p.ID), fmt.Sprint(p.InvoiceID), p.PaymentDate.Format(dateLayout),
			p.Method.Label(), string(p.Status), a.money(p.Amount), a.money(p.NetAmount()), p.TransactionID,
		})
	}
	d.table([]string{"ID", "Invoice", "Date", "Method", "Status", "Amount", "Net", "Transaction"}, rows)
	return d.String()
}

func (a *App) summaryMarkdown(s report.RevenueSummary) string {
	var d doc
	d.h1("Revenue Summary")
	d.table([]string{"Metric", "Value"}, [][]string{
		{"Total invoices", fmt.Sprint(s.TotalInvoices)},
		{"Paid invoices", fmt.Sprint(s.PaidInvoices)},
		{"Overdue invoices", fmt.Sprint(s.OverdueInvoices)},
		{"Total revenue", a.money(s.TotalRevenue)},
		{"Outstanding", a.money(s.OutstandingAmount)},
		{"Overdue", a.money(s.OverdueAmount)},
		{"Payment rate", percent(s.PaymentRate)},
	})

	d.h2("By status")
	rows := make([][]string, 0, len(s.ByStatus))
	for _, st := range s.ByStatus {
		rows = append(rows, []string{string(st.Status), fmt.Sprint(st.Count), a.money(st.Amount)})
	}
	d.table([]string{"Status", "Invoices", "Amount"}, rows)
	return d.String()
}

func (a *App) agingMarkdown(r report.AgingReport) string {
	var d doc
	d.h1("Aging Report")
	d.para("As of %s, outstanding **%s**", r.AsOf.Format(dateLayout), a.money(r.TotalOutstanding))

	rows := make([][]string, 0, len(r.Buckets))
	for _, b := range r.Buckets {
		rows = append(rows, []string{b.Label, fmt.Sprint(b.Count), a.money(b.Amount)})
	}
	d.table([]string{"Bucket", "Invoices", "Amount"}, rows)

	for _, b := range r.Buckets {
		if len(b.Invoices) == 0 {
			continue
		}
		d.h2(b.Label)
		entries := make([][]string, 0, len(b.Invoices))
		for _, e := range b.Invoices {
			entries = append(entries, []string{e.InvoiceNumber, e.ClientName, e.DueDate.Format(dateLayout), fmt.Sprint(e.DaysOverdue), a.money(e.Amount)})
		}
		d.table([]string{"Invoice", "Client", "Due", "Days overdue", "Amount"}, entries)
	}
	return d.String()
}

func (a *App) clientRevenueMarkdown(rows []report.ClientRevenue) string {
	var d doc
	d.h1("Revenue by Client")
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.ClientName, fmt.Sprint(r.TotalInvoices), a.money(r.PaidAmount), a.money(r.PendingAmount), a.money(r.TotalAmount)})
	}
	d.table([]string{"Client", "Invoices", "Paid", "Pending", "Total"}, out)
	return d.String()
}

func (a *App) projectSummaryMarkdown(rows []report.ProjectSummary) string {
	var d doc
	d.h1("Projects")
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.ProjectName, r.ClientName, string(r.Status), r.RateType,
			r.HoursWorked.String(), a.money(r.Amount), fmt.Sprint(r.InvoiceCount), a.money(r.InvoicedAmount),
		})
	}
	d.table([]string{"Project", "Client", "Status", "Type", "Hours", "Amount", "Invoices", "Invoiced"}, out)
	return d.String()
}

func (a *App) monthlyMarkdown(months []report.MonthRevenue) string {
	var d doc
	d.h1("Monthly Revenue")
	out := make([][]string, 0, len(months))
	total := decimal.Zero
	for _, m := range months {
		total = total.Add(m.Revenue)
		out = append(out, []string{m.Label, fmt.Sprint(m.Count), a.money(m.Revenue), a.money(m.Average)})
	}
	d.table([]string{"Month", "Paid invoices", "Revenue", "Average"}, out)
	d.para("**Total: %s**", a.money(total))
	return d.String()
}
