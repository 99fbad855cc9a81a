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

const invoiceColumns = `id, invoice_number, client_id, project_id, issue_date, due_date,
	status, tax_rate, notes, created_at, updated_at`

// InvoiceRepository implements port.InvoiceRepository. Items live in
// invoice_items and are always written together with their invoice.
type InvoiceRepository struct {
	db     *sql.DB
	tx     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		tx:     sqlite.NewDB(db, logger),
		logger: logger,
	}
}

// Create inserts the invoice header and its items
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	invoice.Touch(time.Now().UTC())

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO invoices (
				invoice_number, client_id, project_id, issue_date, due_date, status,
				tax_rate, subtotal, tax_amount, total_amount, notes, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
			invoice.InvoiceNumber,
			invoice.ClientID,
			invoice.ProjectID,
			invoice.IssueDate,
			invoice.DueDate,
			string(invoice.Status),
			invoice.TaxRate,
			invoice.Subtotal(),
			invoice.TaxAmount(),
			invoice.TotalAmount(),
			invoice.Notes,
			invoice.CreatedAt,
			invoice.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create invoice",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Error(err))
			return sqlite.Wrap("create invoice", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return sqlite.Wrap("get last insert id", err)
		}
		invoice.ID = id

		return r.writeItems(ctx, invoice)
	})
}

// GetByID retrieves an invoice with its items
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
}

// GetByNumber retrieves an invoice with its items by invoice number
func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_number = ?`, number)
}

func (r *InvoiceRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.Invoice, error) {
	invoice, err := scanInvoice(sqlite.Exec(ctx, r.db).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice",
			zap.Any("key", arg),
			zap.Error(err))
		return nil, sqlite.Wrap("get invoice", err)
	}

	if err := r.loadItems(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// List returns invoices matching filter with their items, newest issue date first
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	var conds []string
	var args []interface{}
	if filter.ClientID != 0 {
		conds = append(conds, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.ProjectID != 0 {
		conds = append(conds, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where(conds) + ` ORDER BY issue_date DESC, id DESC`

	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, sqlite.Wrap("list invoices", err)
	}

	invoices := []*entity.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, sqlite.Wrap("scan invoice", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, sqlite.Wrap("list invoices", err)
	}
	// Close before issuing item queries; a transaction holds a single connection.
	rows.Close()

	for _, inv := range invoices {
		if err := r.loadItems(ctx, inv); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// Update writes the header, derived totals and status, and replaces the items
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	invoice.Touch(time.Now().UTC())

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		query := `
			UPDATE invoices
			SET invoice_number = ?, client_id = ?, project_id = ?, issue_date = ?, due_date = ?,
				status = ?, tax_rate = ?, subtotal = ?, tax_amount = ?, total_amount = ?,
				notes = ?, updated_at = ?
			WHERE id = ?
		`
		result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
			invoice.InvoiceNumber,
			invoice.ClientID,
			invoice.ProjectID,
			invoice.IssueDate,
			invoice.DueDate,
			string(invoice.Status),
			invoice.TaxRate,
			invoice.Subtotal(),
			invoice.TaxAmount(),
			invoice.TotalAmount(),
			invoice.Notes,
			invoice.UpdatedAt,
			invoice.ID,
		)
		if err != nil {
			r.logger.Error("Failed to update invoice",
				zap.Int64("id", invoice.ID),
				zap.Error(err))
			return sqlite.Wrap("update invoice", err)
		}
		if err := requireAffected(result, entity.ErrInvoiceNotFound); err != nil {
			return err
		}

		if _, err := sqlite.Exec(ctx, r.db).ExecContext(ctx,
			`DELETE FROM invoice_items WHERE invoice_id = ?`, invoice.ID); err != nil {
			return sqlite.Wrap("clear invoice items", err)
		}
		return r.writeItems(ctx, invoice)
	})
}

// UpdateStatus changes only the status column
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error {
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update invoice status",
			zap.Int64("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return sqlite.Wrap("update invoice status", err)
	}
	return requireAffected(result, entity.ErrInvoiceNotFound)
}

// Delete removes an invoice; its items cascade
func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete invoice",
			zap.Int64("id", id),
			zap.Error(err))
		return sqlite.Wrap("delete invoice", err)
	}
	return requireAffected(result, entity.ErrInvoiceNotFound)
}

// CountByClient returns how many invoices bill a client
func (r *InvoiceRepository) CountByClient(ctx context.Context, clientID int64) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM invoices WHERE client_id = ?`, clientID)
}

// CountByProject returns how many invoices reference a project
func (r *InvoiceRepository) CountByProject(ctx context.Context, projectID int64) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM invoices WHERE project_id = ?`, projectID)
}

func (r *InvoiceRepository) writeItems(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoice_items (invoice_id, position, description, quantity, rate, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	items := invoice.Items()
	for i, item := range items {
		result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
			invoice.ID,
			i,
			item.Description,
			item.Quantity,
			item.Rate,
			item.Amount(),
		)
		if err != nil {
			r.logger.Error("Failed to insert invoice item",
				zap.Int64("invoice_id", invoice.ID),
				zap.Int("position", i),
				zap.Error(err))
			return sqlite.Wrap("insert invoice item", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return sqlite.Wrap("get last insert id", err)
		}
		items[i].ID = id
		items[i].InvoiceID = invoice.ID
	}
	invoice.LoadItems(items)
	return nil
}

func (r *InvoiceRepository) loadItems(ctx context.Context, invoice *entity.Invoice) error {
	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, `
		SELECT id, invoice_id, description, quantity, rate
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY position
	`, invoice.ID)
	if err != nil {
		r.logger.Error("Failed to load invoice items",
			zap.Int64("invoice_id", invoice.ID),
			zap.Error(err))
		return sqlite.Wrap("load invoice items", err)
	}
	defer rows.Close()

	var items []entity.InvoiceItem
	for rows.Next() {
		var item entity.InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.Rate); err != nil {
			return sqlite.Wrap("scan invoice item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return sqlite.Wrap("load invoice items", err)
	}

	// Amounts and totals are recomputed from quantity and rate
	invoice.LoadItems(items)
	return nil
}

func scanInvoice(row scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var projectID sql.NullInt64
	var status string
	err := row.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.ClientID,
		&projectID,
		&inv.IssueDate,
		&inv.DueDate,
		&status,
		&inv.TaxRate,
		&inv.Notes,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if projectID.Valid {
		id := projectID.Int64
		inv.ProjectID = &id
	}
	inv.Status = entity.InvoiceStatus(status)
	return &inv, nil
}

var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
