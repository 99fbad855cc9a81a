package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/dispatcher"
	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/event"
)

// ProjectService manages projects, logged hours and project lifecycle
type ProjectService interface {
	CreateProject(ctx context.Context, in entity.ProjectInput) (*entity.Project, error)
	GetProject(ctx context.Context, id int64) (*entity.Project, error)
	ListProjects(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error)
	UpdateProject(ctx context.Context, id int64, in entity.ProjectInput) (*entity.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	AddHours(ctx context.Context, id int64, hours decimal.Decimal) (*entity.Project, error)
	CorrectHours(ctx context.Context, id int64, hours decimal.Decimal) (*entity.Project, error)

	CompleteProject(ctx context.Context, id int64) (*entity.Project, error)
	PauseProject(ctx context.Context, id int64) (*entity.Project, error)
	ResumeProject(ctx context.Context, id int64) (*entity.Project, error)
	CancelProject(ctx context.Context, id int64) (*entity.Project, error)

	// ProjectEarnings sums the totals of the project's paid invoices
	ProjectEarnings(ctx context.Context, id int64) (decimal.Decimal, error)
}

type projectServiceImpl struct {
	projectRepo port.ProjectRepository
	clientRepo  port.ClientRepository
	invoiceRepo port.InvoiceRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	settings    Settings
	logger      Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo port.ProjectRepository,
	clientRepo port.ClientRepository,
	invoiceRepo port.InvoiceRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	settings Settings,
	logger Logger,
) ProjectService {
	return &projectServiceImpl{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		events:      events,
		settings:    settings,
		logger:      logger,
	}
}

func (s *projectServiceImpl) CreateProject(ctx context.Context, in entity.ProjectInput) (*entity.Project, error) {
	project, err := entity.NewProject(in, s.settings.Limits)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.clientRepo.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("%w: id %d", entity.ErrClientNotFound, in.ClientID)
		}
		return s.projectRepo.Create(ctx, project)
	})
	if err != nil {
		s.logger.Error("Failed to create project", "client_id", in.ClientID, "error", err)
		return nil, err
	}

	s.logger.Info("Project created", "project_id", project.ID, "client_id", project.ClientID, "rate_type", project.RateType())
	return project, nil
}

func (s *projectServiceImpl) GetProject(ctx context.Context, id int64) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrProjectNotFound, id)
	}
	return project, nil
}

func (s *projectServiceImpl) ListProjects(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error) {
	return s.projectRepo.List(ctx, filter)
}

func (s *projectServiceImpl) UpdateProject(ctx context.Context, id int64, in entity.ProjectInput) (*entity.Project, error) {
	return s.mutate(ctx, id, "Project updated", func(p *entity.Project) error {
		return p.Update(in, s.settings.Limits)
	})
}

func (s *projectServiceImpl) DeleteProject(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		project, err := s.GetProject(ctx, id)
		if err != nil {
			return err
		}
		n, err := s.invoiceRepo.CountByProject(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return entity.NotAllowed("project %q is referenced by %d invoice(s)", project.Name, n)
		}
		return s.projectRepo.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete project", "project_id", id, "error", err)
		return err
	}

	s.logger.Info("Project deleted", "project_id", id)
	return nil
}

func (s *projectServiceImpl) AddHours(ctx context.Context, id int64, hours decimal.Decimal) (*entity.Project, error) {
	return s.mutate(ctx, id, "Hours added", func(p *entity.Project) error {
		return p.AddHours(hours, s.settings.Limits)
	})
}

func (s *projectServiceImpl) CorrectHours(ctx context.Context, id int64, hours decimal.Decimal) (*entity.Project, error) {
	return s.mutate(ctx, id, "Hours corrected", func(p *entity.Project) error {
		return p.CorrectHours(hours)
	})
}

func (s *projectServiceImpl) CompleteProject(ctx context.Context, id int64) (*entity.Project, error) {
	return s.transition(ctx, id, "completed", (*entity.Project).Complete)
}

func (s *projectServiceImpl) PauseProject(ctx context.Context, id int64) (*entity.Project, error) {
	return s.transition(ctx, id, "paused", (*entity.Project).Pause)
}

func (s *projectServiceImpl) ResumeProject(ctx context.Context, id int64) (*entity.Project, error) {
	return s.transition(ctx, id, "resumed", (*entity.Project).Resume)
}

func (s *projectServiceImpl) CancelProject(ctx context.Context, id int64) (*entity.Project, error) {
	return s.transition(ctx, id, "cancelled", (*entity.Project).Cancel)
}

func (s *projectServiceImpl) ProjectEarnings(ctx context.Context, id int64) (decimal.Decimal, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return decimal.Zero, err
	}
	invoices, err := s.invoiceRepo.List(ctx, port.InvoiceFilter{ProjectID: id, Status: entity.InvoicePaid})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.TotalAmount())
	}
	return total, nil
}

// transition fires a lifecycle method and publishes the status change in the same transaction
func (s *projectServiceImpl) transition(ctx context.Context, id int64, reason string, fire func(*entity.Project, context.Context) error) (*entity.Project, error) {
	var project *entity.Project
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		project, err = s.GetProject(ctx, id)
		if err != nil {
			return err
		}
		previous := project.Status
		if err := fire(project, ctx); err != nil {
			return err
		}
		if err := s.projectRepo.Update(ctx, project); err != nil {
			return err
		}
		return s.events.Publish(ctx, event.StatusChanged(event.TypeProjectStatusChanged,
			entity.EntityProject, project.ID, previous.String(), project.Status.String(), "project "+reason))
	})
	if err != nil {
		s.logger.Error("Failed to change project status", "project_id", id, "action", reason, "error", err)
		return nil, err
	}

	s.logger.Info("Project status changed", "project_id", id, "status", project.Status)
	return project, nil
}

func (s *projectServiceImpl) mutate(ctx context.Context, id int64, msg string, apply func(*entity.Project) error) (*entity.Project, error) {
	var project *entity.Project
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		project, err = s.GetProject(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(project); err != nil {
			return err
		}
		return s.projectRepo.Update(ctx, project)
	})
	if err != nil {
		s.logger.Error("Failed to update project", "project_id", id, "error", err)
		return nil, err
	}

	s.logger.Info(msg, "project_id", id, "hours_worked", project.HoursWorked.String())
	return project, nil
}
