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

const clientColumns = `id, name, email, phone, company, address, created_at, updated_at`

// ClientRepository implements port.ClientRepository
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a client and assigns its ID
func (r *ClientRepository) Create(ctx context.Context, client *entity.Client) error {
	client.Touch(time.Now().UTC())

	query := `
		INSERT INTO clients (name, email, phone, company, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.Company,
		client.Address,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create client",
			zap.String("email", client.Email),
			zap.Error(err))
		return sqlite.Wrap("create client", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.Wrap("get last insert id", err)
	}
	client.ID = id
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = ?`

	client, err := scanClient(sqlite.Exec(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client by ID",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, sqlite.Wrap("get client", err)
	}
	return client, nil
}

// GetByEmail retrieves a client by normalised email
func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE email = ?`

	client, err := scanClient(sqlite.Exec(ctx, r.db).QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client by email",
			zap.String("email", email),
			zap.Error(err))
		return nil, sqlite.Wrap("get client", err)
	}
	return client, nil
}

// List returns all clients ordered by name
func (r *ClientRepository) List(ctx context.Context) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients ORDER BY name COLLATE NOCASE, id`

	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list clients", zap.Error(err))
		return nil, sqlite.Wrap("list clients", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

// Search matches term case-insensitively against name, email and company
func (r *ClientRepository) Search(ctx context.Context, term string) ([]*entity.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients
		WHERE name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR company LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE, id`

	pattern := "%" + escapeLike(term) + "%"
	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query, pattern, pattern, pattern)
	if err != nil {
		r.logger.Error("Failed to search clients",
			zap.String("term", term),
			zap.Error(err))
		return nil, sqlite.Wrap("search clients", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

// Update writes every editable field
func (r *ClientRepository) Update(ctx context.Context, client *entity.Client) error {
	client.Touch(time.Now().UTC())

	query := `
		UPDATE clients
		SET name = ?, email = ?, phone = ?, company = ?, address = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.Company,
		client.Address,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update client",
			zap.Int64("id", client.ID),
			zap.Error(err))
		return sqlite.Wrap("update client", err)
	}
	return requireAffected(result, entity.ErrClientNotFound)
}

// Delete removes a client
func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete client",
			zap.Int64("id", id),
			zap.Error(err))
		return sqlite.Wrap("delete client", err)
	}
	return requireAffected(result, entity.ErrClientNotFound)
}

func scanClient(row scanner) (*entity.Client, error) {
	var c entity.Client
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Company,
		&c.Address,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanClients(rows *sql.Rows) ([]*entity.Client, error) {
	clients := []*entity.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, sqlite.Wrap("scan client", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

var _ port.ClientRepository = (*ClientRepository)(nil)
