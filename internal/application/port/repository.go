package port

import (
	"context"
	"time"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// Repositories return (nil, nil) from lookups when the record does not exist.
// Unique-constraint violations are reported as entity.ErrDuplicate and store
// failures as entity.ErrPersistence.

// ClientRepository defines persistence operations for Client
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
	GetByEmail(ctx context.Context, email string) (*entity.Client, error)
	List(ctx context.Context) ([]*entity.Client, error)
	Search(ctx context.Context, term string) ([]*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, id int64) error
}

// ProjectFilter narrows project listings. Zero values match everything.
type ProjectFilter struct {
	ClientID int64
	Status   entity.ProjectStatus
	// Search matches name or description, case-insensitively
	Search string
}

// ProjectRepository defines persistence operations for Project
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id int64) (*entity.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]*entity.Project, error)
	Update(ctx context.Context, project *entity.Project) error
	Delete(ctx context.Context, id int64) error
	CountByClient(ctx context.Context, clientID int64) (int, error)
}

// InvoiceFilter narrows invoice listings. Zero values match everything.
type InvoiceFilter struct {
	ClientID  int64
	ProjectID int64
	Status    entity.InvoiceStatus
}

// InvoiceRepository defines persistence operations for Invoice and its items
type InvoiceRepository interface {
	// Create inserts the invoice and its items
	Create(ctx context.Context, invoice *entity.Invoice) error
	// GetByID loads the invoice with its items
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	// Update writes the header, derived totals and status, and replaces the items
	Update(ctx context.Context, invoice *entity.Invoice) error
	UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error
	Delete(ctx context.Context, id int64) error
	CountByClient(ctx context.Context, clientID int64) (int, error)
	CountByProject(ctx context.Context, projectID int64) (int, error)
}

// PaymentFilter narrows payment listings. Zero values match everything.
type PaymentFilter struct {
	InvoiceID int64
	From      time.Time
	To        time.Time
}

// PaymentRepository defines persistence operations for Payment
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
	Delete(ctx context.Context, id int64) error
}

// StatusChangeRepository stores the audit trail of status transitions
type StatusChangeRepository interface {
	Create(ctx context.Context, change *entity.StatusChange) error
	ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusChange, error)
}

// TransactionManager defines transaction management operations
type TransactionManager interface {
	// WithTransaction runs fn in a transaction, committing on nil and rolling back otherwise.
	// Nested calls join the outer transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
