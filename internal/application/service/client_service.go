package service

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// ClientService manages clients
type ClientService interface {
	CreateClient(ctx context.Context, in entity.ClientInput) (*entity.Client, error)
	GetClient(ctx context.Context, id int64) (*entity.Client, error)
	ListClients(ctx context.Context) ([]*entity.Client, error)
	SearchClients(ctx context.Context, term string) ([]*entity.Client, error)
	UpdateClient(ctx context.Context, id int64, in entity.ClientInput) (*entity.Client, error)
	// DeleteClient refuses clients that still have projects or invoices
	DeleteClient(ctx context.Context, id int64) error
}

type clientServiceImpl struct {
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	invoiceRepo port.InvoiceRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewClientService creates a new ClientService
func NewClientService(
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	invoiceRepo port.InvoiceRepository,
	txManager port.TransactionManager,
	logger Logger,
) ClientService {
	return &clientServiceImpl{
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

func (s *clientServiceImpl) CreateClient(ctx context.Context, in entity.ClientInput) (*entity.Client, error) {
	client, err := entity.NewClient(in)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureEmailFree(ctx, client.Email, 0); err != nil {
			return err
		}
		return s.clientRepo.Create(ctx, client)
	})
	if err != nil {
		s.logger.Error("Failed to create client", "email", client.Email, "error", err)
		return nil, err
	}

	s.logger.Info("Client created", "client_id", client.ID, "name", client.DisplayName())
	return client, nil
}

func (s *clientServiceImpl) GetClient(ctx context.Context, id int64) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrClientNotFound, id)
	}
	return client, nil
}

func (s *clientServiceImpl) ListClients(ctx context.Context) ([]*entity.Client, error) {
	return s.clientRepo.List(ctx)
}

func (s *clientServiceImpl) SearchClients(ctx context.Context, term string) ([]*entity.Client, error) {
	return s.clientRepo.Search(ctx, term)
}

func (s *clientServiceImpl) UpdateClient(ctx context.Context, id int64, in entity.ClientInput) (*entity.Client, error) {
	var client *entity.Client
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		client, err = s.GetClient(ctx, id)
		if err != nil {
			return err
		}
		if err := client.Update(in); err != nil {
			return err
		}
		if err := s.ensureEmailFree(ctx, client.Email, client.ID); err != nil {
			return err
		}
		return s.clientRepo.Update(ctx, client)
	})
	if err != nil {
		s.logger.Error("Failed to update client", "client_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("Client updated", "client_id", id)
	return client, nil
}

func (s *clientServiceImpl) DeleteClient(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		client, err := s.GetClient(ctx, id)
		if err != nil {
			return err
		}

		invoices, err := s.invoiceRepo.CountByClient(ctx, id)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return entity.NotAllowed("client %q has %d invoice(s)", client.Name, invoices)
		}

		projects, err := s.projectRepo.CountByClient(ctx, id)
		if err != nil {
			return err
		}
		if projects > 0 {
			return entity.NotAllowed("client %q has %d project(s)", client.Name, projects)
		}

		return s.clientRepo.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete client", "client_id", id, "error", err)
		return err
	}

	s.logger.Info("Client deleted", "client_id", id)
	return nil
}

// ensureEmailFree fails with ErrDuplicate when another client owns email
func (s *clientServiceImpl) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.clientRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return fmt.Errorf("%w: client with email %s already exists", entity.ErrDuplicate, email)
	}
	return nil
}
