package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/dispatcher"
	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// In-memory repositories. Each stores copies so a service only sees its
// changes after calling the repository, as with the real store.

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockLogger struct {
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  { m.infos = append(m.infos, msg) }
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) { m.errors = append(m.errors, msg) }

type mockClientRepo struct {
	clients   map[int64]*entity.Client
	nextID    int64
	createErr error
}

func newMockClientRepo() *mockClientRepo {
	return &mockClientRepo{clients: map[int64]*entity.Client{}}
}

func (m *mockClientRepo) Create(ctx context.Context, c *entity.Client) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	if c, ok := m.clients[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *mockClientRepo) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	for _, c := range m.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockClientRepo) List(ctx context.Context) ([]*entity.Client, error) {
	out := []*entity.Client{}
	for _, c := range m.clients {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockClientRepo) Search(ctx context.Context, term string) ([]*entity.Client, error) {
	all, _ := m.List(ctx)
	out := []*entity.Client{}
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name+c.Email+c.Company), strings.ToLower(term)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockClientRepo) Update(ctx context.Context, c *entity.Client) error {
	if _, ok := m.clients[c.ID]; !ok {
		return entity.ErrClientNotFound
	}
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *mockClientRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.clients[id]; !ok {
		return entity.ErrClientNotFound
	}
	delete(m.clients, id)
	return nil
}

type mockProjectRepo struct {
	projects map[int64]*entity.Project
	nextID   int64
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: map[int64]*entity.Project{}}
}

func (m *mockProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	if p, ok := m.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockProjectRepo) List(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error) {
	out := []*entity.Project{}
	for _, p := range m.projects {
		if filter.ClientID != 0 && p.ClientID != filter.ClientID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, p *entity.Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return entity.ErrProjectNotFound
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.projects[id]; !ok {
		return entity.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *mockProjectRepo) CountByClient(ctx context.Context, clientID int64) (int, error) {
	n := 0
	for _, p := range m.projects {
		if p.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

type mockInvoiceRepo struct {
	invoices map[int64]*entity.Invoice
	nextID   int64
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: map[int64]*entity.Invoice{}}
}

func copyInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	cp.LoadItems(inv.Items())
	return &cp
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return copyInvoice(inv), nil
	}
	return nil, nil
}

func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.InvoiceNumber == number {
			return copyInvoice(inv), nil
		}
	}
	return nil, nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	out := []*entity.Invoice{}
	for _, inv := range m.invoices {
		if filter.ClientID != 0 && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.ProjectID != 0 && (inv.ProjectID == nil || *inv.ProjectID != filter.ProjectID) {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	if _, ok := m.invoices[inv.ID]; !ok {
		return entity.ErrInvoiceNotFound
	}
	m.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error {
	inv, ok := m.invoices[id]
	if !ok {
		return entity.ErrInvoiceNotFound
	}
	inv.Status = status
	return nil
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return entity.ErrInvoiceNotFound
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockInvoiceRepo) CountByClient(ctx context.Context, clientID int64) (int, error) {
	list, _ := m.List(ctx, port.InvoiceFilter{ClientID: clientID})
	return len(list), nil
}

func (m *mockInvoiceRepo) CountByProject(ctx context.Context, projectID int64) (int, error) {
	list, _ := m.List(ctx, port.InvoiceFilter{ProjectID: projectID})
	return len(list), nil
}

type mockPaymentRepo struct {
	payments  map[int64]*entity.Payment
	nextID    int64
	updateErr error
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: map[int64]*entity.Payment{}}
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	m.nextID++
	p.ID = m.nextID
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (m *mockPaymentRepo) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockPaymentRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	return m.List(ctx, port.PaymentFilter{InvoiceID: invoiceID})
}

func (m *mockPaymentRepo) List(ctx context.Context, filter port.PaymentFilter) ([]*entity.Payment, error) {
	out := []*entity.Payment{}
	for _, p := range m.payments {
		if filter.InvoiceID != 0 && p.InvoiceID != filter.InvoiceID {
			continue
		}
		if !filter.From.IsZero() && p.PaymentDate.Before(entity.Date(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && p.PaymentDate.After(entity.Date(filter.To)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.payments[p.ID]; !ok {
		return entity.ErrPaymentNotFound
	}
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.payments[id]; !ok {
		return entity.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

type mockHistoryRepo struct {
	changes []*entity.StatusChange
}

func (m *mockHistoryRepo) Create(ctx context.Context, c *entity.StatusChange) error {
	c.ID = int64(len(m.changes) + 1)
	m.changes = append(m.changes, c)
	return nil
}

func (m *mockHistoryRepo) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusChange, error) {
	out := []*entity.StatusChange{}
	for _, c := range m.changes {
		if c.EntityType == entityType && c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fixture wires every service over the in-memory repositories
type fixture struct {
	clients  *mockClientRepo
	projects *mockProjectRepo
	invoices *mockInvoiceRepo
	payments *mockPaymentRepo
	history  *mockHistoryRepo
	tx       *mockTxManager
	logger   *mockLogger
	settings Settings

	clientSvc  ClientService
	projectSvc ProjectService
	invoiceSvc InvoiceService
	paymentSvc PaymentService
	reportSvc  ReportService
}

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		clients:  newMockClientRepo(),
		projects: newMockProjectRepo(),
		invoices: newMockInvoiceRepo(),
		payments: newMockPaymentRepo(),
		history:  &mockHistoryRepo{},
		tx:       &mockTxManager{},
		logger:   &mockLogger{},
		settings: DefaultSettings(),
	}
	f.settings.Now = func() time.Time { return fixedNow }

	events := dispatcher.NewDispatcher()
	dispatcher.RegisterHistory(events, f.history)

	f.clientSvc = NewClientService(f.clients, f.projects, f.invoices, f.tx, f.logger)
	f.projectSvc = NewProjectService(f.projects, f.clients, f.invoices, f.tx, events, f.settings, f.logger)
	f.invoiceSvc = NewInvoiceService(f.invoices, f.clients, f.projects, f.payments, f.history, f.tx, events, f.settings, f.logger)
	f.paymentSvc = NewPaymentService(f.payments, f.invoices, f.tx, events, f.settings, f.logger)
	f.reportSvc = NewReportService(f.clients, f.projects, f.invoices, f.payments, f.settings, f.logger)
	return f
}

func str(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
