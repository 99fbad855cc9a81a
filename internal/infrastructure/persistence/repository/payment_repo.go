package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/sqlite"
)

const paymentColumns = `id, invoice_id, amount, payment_date, payment_method, status,
	transaction_id, transaction_fee, notes, created_at, updated_at`

// PaymentRepository implements port.PaymentRepository
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) port.PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a payment and assigns its ID
func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	payment.Touch(time.Now().UTC())
	payment.Recalculate()

	query := `
		INSERT INTO payments (
			invoice_id, amount, payment_date, payment_method, status,
			transaction_id, transaction_fee, net_amount, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		payment.InvoiceID,
		payment.Amount,
		payment.PaymentDate,
		string(payment.Method),
		string(payment.Status),
		nullString(payment.TransactionID),
		payment.TransactionFee,
		payment.NetAmount(),
		payment.Notes,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.Int64("invoice_id", payment.InvoiceID),
			zap.String("transaction_id", payment.TransactionID),
			zap.Error(err))
		return wrapPaymentErr("create payment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.Wrap("get last insert id", err)
	}
	payment.ID = id
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
}

// GetByTransactionID retrieves a payment by its external transaction reference
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = ?`, transactionID)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.Payment, error) {
	payment, err := scanPayment(sqlite.Exec(ctx, r.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment",
			zap.Any("key", arg),
			zap.Error(err))
		return nil, sqlite.Wrap("get payment", err)
	}
	return payment, nil
}

// ListByInvoice returns an invoice's payments in payment order
func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*entity.Payment, error) {
	return r.List(ctx, port.PaymentFilter{InvoiceID: invoiceID})
}

// List returns payments matching filter ordered by payment date. From and To are inclusive.
func (r *PaymentRepository) List(ctx context.Context, filter port.PaymentFilter) ([]*entity.Payment, error) {
	var conds []string
	var args []interface{}
	if filter.InvoiceID != 0 {
		conds = append(conds, "invoice_id = ?")
		args = append(args, filter.InvoiceID)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "payment_date >= ?")
		args = append(args, entity.Date(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "payment_date <= ?")
		args = append(args, entity.Date(filter.To))
	}
	query := `SELECT ` + paymentColumns + ` FROM payments` + where(conds) + ` ORDER BY payment_date, id`

	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payments",
			zap.Int64("invoice_id", filter.InvoiceID),
			zap.Error(err))
		return nil, sqlite.Wrap("list payments", err)
	}
	defer rows.Close()

	payments := []*entity.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, sqlite.Wrap("scan payment", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update writes every mutable field including status
func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	payment.Touch(time.Now().UTC())
	payment.Recalculate()

	query := `
		UPDATE payments
		SET amount = ?, payment_date = ?, payment_method = ?, status = ?,
			transaction_id = ?, transaction_fee = ?, net_amount = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		payment.Amount,
		payment.PaymentDate,
		string(payment.Method),
		string(payment.Status),
		nullString(payment.TransactionID),
		payment.TransactionFee,
		payment.NetAmount(),
		payment.Notes,
		payment.UpdatedAt,
		payment.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update payment",
			zap.Int64("id", payment.ID),
			zap.Error(err))
		return wrapPaymentErr("update payment", err)
	}
	return requireAffected(result, entity.ErrPaymentNotFound)
}

// Delete removes a payment
func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete payment",
			zap.Int64("id", id),
			zap.Error(err))
		return sqlite.Wrap("delete payment", err)
	}
	return requireAffected(result, entity.ErrPaymentNotFound)
}

// transaction_id is the only unique column on payments
func wrapPaymentErr(action string, err error) error {
	if sqlite.IsUniqueViolation(err) {
		return entity.ErrDuplicateTransaction
	}
	return sqlite.Wrap(action, err)
}

// nullString stores "" as NULL so the UNIQUE index ignores payments without a reference
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanPayment(row scanner) (*entity.Payment, error) {
	var p entity.Payment
	var method, status string
	var transactionID sql.NullString
	err := row.Scan(
		&p.ID,
		&p.InvoiceID,
		&p.Amount,
		&p.PaymentDate,
		&method,
		&status,
		&transactionID,
		&p.TransactionFee,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Method = entity.PaymentMethod(method)
	p.Status = entity.PaymentStatus(status)
	p.TransactionID = transactionID.String
	p.Recalculate()
	return &p, nil
}

var _ port.PaymentRepository = (*PaymentRepository)(nil)
