package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/infrastructure/persistence/sqlite"
)

// StatusChangeRepository implements port.StatusChangeRepository
type StatusChangeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusChangeRepository creates a new status history repository
func NewStatusChangeRepository(db *sql.DB, logger *zap.Logger) port.StatusChangeRepository {
	return &StatusChangeRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one transition to the history
func (r *StatusChangeRepository) Create(ctx context.Context, change *entity.StatusChange) error {
	query := `
		INSERT INTO status_changes (entity_type, entity_id, previous_status, new_status, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		change.EntityType,
		change.EntityID,
		change.PreviousStatus,
		change.NewStatus,
		change.Reason,
		change.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to record status change",
			zap.String("entity_type", change.EntityType),
			zap.Int64("entity_id", change.EntityID),
			zap.Error(err))
		return sqlite.Wrap("record status change", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.Wrap("get last insert id", err)
	}
	change.ID = id
	return nil
}

// ListByEntity returns one entity's transitions, oldest first
func (r *StatusChangeRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusChange, error) {
	query := `
		SELECT id, entity_type, entity_id, previous_status, new_status, reason, occurred_at
		FROM status_changes
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY occurred_at, id
	`
	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to list status changes",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, sqlite.Wrap("list status changes", err)
	}
	defer rows.Close()

	changes := []*entity.StatusChange{}
	for rows.Next() {
		var c entity.StatusChange
		if err := rows.Scan(
			&c.ID,
			&c.EntityType,
			&c.EntityID,
			&c.PreviousStatus,
			&c.NewStatus,
			&c.Reason,
			&c.OccurredAt,
		); err != nil {
			return nil, sqlite.Wrap("scan status change", err)
		}
		changes = append(changes, &c)
	}
	return changes, rows.Err()
}

var _ port.StatusChangeRepository = (*StatusChangeRepository)(nil)
