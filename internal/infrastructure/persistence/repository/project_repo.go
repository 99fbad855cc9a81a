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

const projectColumns = `id, client_id, name, description, hourly_rate, fixed_rate,
	hours_worked, status, created_at, updated_at`

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a project and assigns its ID
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	project.Touch(time.Now().UTC())

	query := `
		INSERT INTO projects (
			client_id, name, description, hourly_rate, fixed_rate,
			hours_worked, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		project.ClientID,
		project.Name,
		project.Description,
		project.HourlyRate,
		project.FixedRate,
		project.HoursWorked,
		string(project.Status),
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project",
			zap.Int64("client_id", project.ClientID),
			zap.String("name", project.Name),
			zap.Error(err))
		return sqlite.Wrap("create project", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return sqlite.Wrap("get last insert id", err)
	}
	project.ID = id
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	project, err := scanProject(sqlite.Exec(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project by ID",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, sqlite.Wrap("get project", err)
	}
	return project, nil
}

// List returns projects matching filter, newest first
func (r *ProjectRepository) List(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error) {
	var conds []string
	var args []interface{}
	if filter.ClientID != 0 {
		conds = append(conds, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query := `SELECT ` + projectColumns + ` FROM projects` + where(conds) + ` ORDER BY created_at DESC, id DESC`

	rows, err := sqlite.Exec(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list projects",
			zap.Int64("client_id", filter.ClientID),
			zap.String("status", string(filter.Status)),
			zap.Error(err))
		return nil, sqlite.Wrap("list projects", err)
	}
	defer rows.Close()

	projects := []*entity.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, sqlite.Wrap("scan project", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update writes every mutable field including status and hours
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	project.Touch(time.Now().UTC())

	query := `
		UPDATE projects
		SET name = ?, description = ?, hourly_rate = ?, fixed_rate = ?,
			hours_worked = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, query,
		project.Name,
		project.Description,
		project.HourlyRate,
		project.FixedRate,
		project.HoursWorked,
		string(project.Status),
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project",
			zap.Int64("id", project.ID),
			zap.Error(err))
		return sqlite.Wrap("update project", err)
	}
	return requireAffected(result, entity.ErrProjectNotFound)
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := sqlite.Exec(ctx, r.db).ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete project",
			zap.Int64("id", id),
			zap.Error(err))
		return sqlite.Wrap("delete project", err)
	}
	return requireAffected(result, entity.ErrProjectNotFound)
}

// CountByClient returns how many projects belong to a client
func (r *ProjectRepository) CountByClient(ctx context.Context, clientID int64) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM projects WHERE client_id = ?`, clientID)
}

func scanProject(row scanner) (*entity.Project, error) {
	var p entity.Project
	var status string
	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&p.Name,
		&p.Description,
		&p.HourlyRate,
		&p.FixedRate,
		&p.HoursWorked,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = entity.ProjectStatus(status)
	return &p, nil
}

var _ port.ProjectRepository = (*ProjectRepository)(nil)
