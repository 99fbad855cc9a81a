package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/dispatcher"
	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/event"
	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/internal/domain/reconcile"
)

// maxNumberAttempts bounds the suffixes tried when a generated invoice number is taken
const maxNumberAttempts = 10

// ItemInput describes one invoice line
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// CreateInvoiceRequest describes a new invoice. Zero values take configured defaults.
type CreateInvoiceRequest struct {
	ClientID      int64       `json:"client_id"`
	ProjectID     *int64      `json:"project_id,omitempty"`
	InvoiceNumber string      `json:"invoice_number,omitempty"`
	IssueDate     *time.Time  `json:"issue_date,omitempty"`
	DueDays       *int        `json:"due_days,omitempty"`
	Notes         string      `json:"notes,omitempty"`
	Items         []ItemInput `json:"items,omitempty"`
}

// InvoiceService manages invoices, their items and their manual lifecycle steps
type InvoiceService interface {
	// CreateInvoice creates a draft; a project adds its billable amount as the first item
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*entity.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	GetInvoiceByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	// ListOverdue returns open invoices whose due date has passed
	ListOverdue(ctx context.Context) ([]*entity.Invoice, error)

	AddItem(ctx context.Context, id int64, item ItemInput) (*entity.Invoice, error)
	RemoveItem(ctx context.Context, id int64, index int) (*entity.Invoice, error)

	SendInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	CancelInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	// DeleteInvoice refuses invoices that have payments
	DeleteInvoice(ctx context.Context, id int64) error

	History(ctx context.Context, id int64) ([]*entity.StatusChange, error)
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	paymentRepo port.PaymentRepository
	historyRepo port.StatusChangeRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	settings    Settings
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	paymentRepo port.PaymentRepository,
	historyRepo port.StatusChangeRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	settings Settings,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		paymentRepo: paymentRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		events:      events,
		settings:    settings,
		logger:      logger,
	}
}

func (s *invoiceServiceImpl) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*entity.Invoice, error) {
	issue := s.settings.today()
	if req.IssueDate != nil {
		issue = entity.Date(*req.IssueDate)
	}
	dueDays := s.settings.DefaultDueDays
	if req.DueDays != nil {
		dueDays = *req.DueDays
	}
	if dueDays < 0 {
		return nil, entity.Invalid("due days cannot be negative")
	}

	var invoice *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.clientRepo.GetByID(ctx, req.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("%w: id %d", entity.ErrClientNotFound, req.ClientID)
		}

		var project *entity.Project
		if req.ProjectID != nil {
			project, err = s.projectRepo.GetByID(ctx, *req.ProjectID)
			if err != nil {
				return err
			}
			if project == nil {
				return fmt.Errorf("%w: id %d", entity.ErrProjectNotFound, *req.ProjectID)
			}
			if project.ClientID != client.ID {
				return entity.Invalid("project %d does not belong to client %d", project.ID, client.ID)
			}
		}

		number, err := s.invoiceNumber(ctx, req.InvoiceNumber)
		if err != nil {
			return err
		}

		invoice, err = entity.NewInvoice(entity.InvoiceParams{
			InvoiceNumber: number,
			ClientID:      client.ID,
			ProjectID:     req.ProjectID,
			IssueDate:     issue,
			DueDate:       issue.AddDate(0, 0, dueDays),
			TaxRate:       s.settings.TaxRate,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}

		if project != nil {
			if err := s.addProjectItem(invoice, project); err != nil {
				return err
			}
		}
		for _, item := range req.Items {
			if _, err := invoice.AddItem(item.Description, item.Quantity, item.Rate, s.settings.Limits); err != nil {
				return err
			}
		}

		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			return err
		}
		return s.events.Publish(ctx, event.NewEvent(event.TypeInvoiceCreated, entity.EntityInvoice, invoice.ID,
			map[string]interface{}{"invoice_number": invoice.InvoiceNumber, event.KeyAmount: invoice.TotalAmount().String()}))
	})
	if err != nil {
		s.logger.Error("Failed to create invoice", "client_id", req.ClientID, "error", err)
		return nil, err
	}

	s.logger.Info("Invoice created",
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"total", invoice.TotalAmount().String())
	return invoice, nil
}

// addProjectItem bills the project's current amount as a single line
func (s *invoiceServiceImpl) addProjectItem(invoice *entity.Invoice, project *entity.Project) error {
	amount := project.CalculateAmount()
	if !amount.IsPositive() {
		return nil
	}

	description := fmt.Sprintf("Project: %s (Fixed Price)", project.Name)
	if project.IsHourly() {
		description = fmt.Sprintf("Work on project: %s (%s hours @ %s/hr)",
			project.Name, project.HoursWorked.String(), money.Format(project.Rate(), s.settings.Currency))
	}
	_, err := invoice.AddItem(description, decimal.NewFromInt(1), amount, s.settings.Limits)
	return err
}

// invoiceNumber returns requested when free, or generates one from the configured prefix
func (s *invoiceServiceImpl) invoiceNumber(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		existing, err := s.invoiceRepo.GetByNumber(ctx, requested)
		if err != nil {
			return "", err
		}
		if existing != nil {
			return "", fmt.Errorf("%w: invoice number %s already exists", entity.ErrDuplicate, requested)
		}
		return requested, nil
	}

	base := entity.GenerateInvoiceNumber(s.settings.InvoicePrefix, s.settings.now())
	candidate := base
	for attempt := 2; attempt <= maxNumberAttempts+1; attempt++ {
		existing, err := s.invoiceRepo.GetByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, attempt)
	}
	return "", fmt.Errorf("%w: could not generate a free invoice number from %s", entity.ErrDuplicate, base)
}

func (s *invoiceServiceImpl) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrInvoiceNotFound, id)
	}
	return invoice, nil
}

func (s *invoiceServiceImpl) GetInvoiceByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: number %s", entity.ErrInvoiceNotFound, number)
	}
	return invoice, nil
}

func (s *invoiceServiceImpl) ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceServiceImpl) ListOverdue(ctx context.Context) ([]*entity.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{})
	if err != nil {
		return nil, err
	}
	today := s.settings.today()
	overdue := []*entity.Invoice{}
	for _, inv := range invoices {
		if inv.IsOverdue(today) {
			overdue = append(overdue, inv)
		}
	}
	return overdue, nil
}

func (s *invoiceServiceImpl) AddItem(ctx context.Context, id int64, item ItemInput) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "Invoice item added", func(inv *entity.Invoice) error {
		_, err := inv.AddItem(item.Description, item.Quantity, item.Rate, s.settings.Limits)
		return err
	})
}

func (s *invoiceServiceImpl) RemoveItem(ctx context.Context, id int64, index int) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "Invoice item removed", func(inv *entity.Invoice) error {
		_, err := inv.RemoveItem(index)
		return err
	})
}

func (s *invoiceServiceImpl) SendInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return s.transition(ctx, id, "invoice sent", (*entity.Invoice).Send)
}

func (s *invoiceServiceImpl) CancelInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	return s.transition(ctx, id, "invoice cancelled", (*entity.Invoice).Cancel)
}

func (s *invoiceServiceImpl) DeleteInvoice(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		payments, err := s.paymentRepo.ListByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return entity.NotAllowed("invoice %s has %d payment(s)", invoice.InvoiceNumber, len(payments))
		}
		if err := s.invoiceRepo.Delete(ctx, id); err != nil {
			return err
		}
		return s.events.Publish(ctx, event.NewEvent(event.TypeInvoiceDeleted, entity.EntityInvoice, id,
			map[string]interface{}{"invoice_number": invoice.InvoiceNumber}))
	})
	if err != nil {
		s.logger.Error("Failed to delete invoice", "invoice_id", id, "error", err)
		return err
	}

	s.logger.Info("Invoice deleted", "invoice_id", id)
	return nil
}

func (s *invoiceServiceImpl) History(ctx context.Context, id int64) ([]*entity.StatusChange, error) {
	if _, err := s.GetInvoice(ctx, id); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByEntity(ctx, entity.EntityInvoice, id)
}

func (s *invoiceServiceImpl) transition(ctx context.Context, id int64, reason string, fire func(*entity.Invoice, context.Context) error) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		previous := invoice.Status
		if err := fire(invoice, ctx); err != nil {
			return err
		}
		if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, invoice.Status); err != nil {
			return err
		}
		if previous == invoice.Status {
			return nil
		}
		return s.events.Publish(ctx, event.StatusChanged(event.TypeInvoiceStatusChanged,
			entity.EntityInvoice, invoice.ID, previous.String(), invoice.Status.String(), reason))
	})
	if err != nil {
		s.logger.Error("Failed to change invoice status", "invoice_id", id, "action", reason, "error", err)
		return nil, err
	}

	s.logger.Info("Invoice status changed", "invoice_id", id, "status", invoice.Status)
	return invoice, nil
}

func (s *invoiceServiceImpl) mutate(ctx context.Context, id int64, msg string, apply func(*entity.Invoice) error) (*entity.Invoice, error) {
	var invoice *entity.Invoice
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		invoice, err = s.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(invoice); err != nil {
			return err
		}

		// recorded payments bound how far the total may drop
		payments, err := s.paymentRepo.ListByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if active := reconcile.Sum(payments, 0).Active; active.GreaterThan(invoice.TotalAmount()) {
			return entity.NotAllowed("invoice %s total %s would fall below its payments (%s)",
				invoice.InvoiceNumber, invoice.TotalAmount().StringFixed(money.Scale), active.StringFixed(money.Scale))
		}
		return s.invoiceRepo.Update(ctx, invoice)
	})
	if err != nil {
		s.logger.Error("Failed to update invoice", "invoice_id", id, "error", err)
		return nil, err
	}

	s.logger.Info(msg, "invoice_id", id, "total", invoice.TotalAmount().String())
	return invoice, nil
}
