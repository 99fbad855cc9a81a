package service

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/application/dispatcher"
	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/event"
	"github.com/garyjia/freelance-billing/internal/domain/reconcile"
)

// RecordPaymentRequest describes a payment against an invoice
type RecordPaymentRequest struct {
	entity.PaymentInput
	InvoiceID int64 `json:"invoice_id"`
	// Status defaults to completed; only pending or completed are accepted
	Status entity.PaymentStatus `json:"status,omitempty"`
}

// PaymentService records payments and keeps invoice status in step with them
type PaymentService interface {
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*entity.Payment, error)
	GetPayment(ctx context.Context, id int64) (*entity.Payment, error)
	ListPayments(ctx context.Context, filter port.PaymentFilter) ([]*entity.Payment, error)
	// ListRecentPayments returns payments dated within the last days days
	ListRecentPayments(ctx context.Context, days int) ([]*entity.Payment, error)
	UpdatePayment(ctx context.Context, id int64, in entity.PaymentInput) (*entity.Payment, error)
	DeletePayment(ctx context.Context, id int64) error

	CompletePayment(ctx context.Context, id int64) (*entity.Payment, error)
	FailPayment(ctx context.Context, id int64) (*entity.Payment, error)
	CancelPayment(ctx context.Context, id int64) (*entity.Payment, error)

	PaymentStatus(ctx context.Context, invoiceID int64) (*reconcile.Balance, error)
}

type paymentServiceImpl struct {
	paymentRepo port.PaymentRepository
	invoiceRepo port.InvoiceRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	settings    Settings
	logger      Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo port.PaymentRepository,
	invoiceRepo port.InvoiceRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	settings Settings,
	logger Logger,
) PaymentService {
	return &paymentServiceImpl{
		paymentRepo: paymentRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		events:      events,
		settings:    settings,
		logger:      logger,
	}
}

func (s *paymentServiceImpl) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*entity.Payment, error) {
	status := req.Status
	if status == "" {
		status = entity.PaymentCompleted
	}

	var payment *entity.Payment
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.invoice(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == entity.InvoiceCancelled {
			return entity.NotAllowed("cannot record payment on cancelled invoice %s", invoice.InvoiceNumber)
		}

		payment, err = entity.NewPayment(invoice.ID, status, req.PaymentInput, s.settings.Limits, s.settings.today())
		if err != nil {
			return err
		}

		existing, err := s.paymentRepo.ListByInvoice(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if err := reconcile.CheckAmount(invoice.TotalAmount(), reconcile.Sum(existing, 0).Active, payment.Amount); err != nil {
			return err
		}
		if err := s.ensureTransactionFree(ctx, payment.TransactionID, 0); err != nil {
			return err
		}

		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		recorded := event.NewEvent(event.TypePaymentRecorded, entity.EntityPayment, payment.ID, map[string]interface{}{
			event.KeyInvoiceID: invoice.ID,
			event.KeyAmount:    payment.Amount.String(),
		})
		if err := s.events.Publish(ctx, recorded); err != nil {
			return err
		}
		return s.settle(ctx, invoice, "payment recorded", recorded)
	})
	if err != nil {
		s.logger.Error("Failed to record payment", "invoice_id", req.InvoiceID, "error", err)
		return nil, err
	}

	s.logger.Info("Payment recorded",
		"payment_id", payment.ID,
		"invoice_id", payment.InvoiceID,
		"amount", payment.Amount.String(),
		"method", payment.Method)
	return payment, nil
}

func (s *paymentServiceImpl) GetPayment(ctx context.Context, id int64) (*entity.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrPaymentNotFound, id)
	}
	return payment, nil
}

func (s *paymentServiceImpl) ListPayments(ctx context.Context, filter port.PaymentFilter) ([]*entity.Payment, error) {
	return s.paymentRepo.List(ctx, filter)
}

func (s *paymentServiceImpl) ListRecentPayments(ctx context.Context, days int) ([]*entity.Payment, error) {
	if days <= 0 {
		return nil, entity.Invalid("days must be positive")
	}
	today := s.settings.today()
	return s.paymentRepo.List(ctx, port.PaymentFilter{From: today.AddDate(0, 0, -days), To: today})
}

func (s *paymentServiceImpl) UpdatePayment(ctx context.Context, id int64, in entity.PaymentInput) (*entity.Payment, error) {
	var payment *entity.Payment
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		invoice, err := s.invoice(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == entity.InvoiceCancelled {
			return entity.NotAllowed("cannot edit payment on cancelled invoice %s", invoice.InvoiceNumber)
		}

		if err := payment.Update(in, s.settings.Limits); err != nil {
			return err
		}
		if err := s.ensureTransactionFree(ctx, payment.TransactionID, payment.ID); err != nil {
			return err
		}

		others, err := s.paymentRepo.ListByInvoice(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if err := reconcile.CheckAmount(invoice.TotalAmount(), reconcile.Sum(others, payment.ID).Active, payment.Amount); err != nil {
			return err
		}

		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		updated := event.NewEvent(event.TypePaymentUpdated, entity.EntityPayment, payment.ID, map[string]interface{}{
			event.KeyInvoiceID: invoice.ID,
			event.KeyAmount:    payment.Amount.String(),
		})
		if err := s.events.Publish(ctx, updated); err != nil {
			return err
		}
		return s.settle(ctx, invoice, "payment updated", updated)
	})
	if err != nil {
		s.logger.Error("Failed to update payment", "payment_id", id, "error", err)
		return nil, err
	}

	s.logger.Info("Payment updated", "payment_id", id, "amount", payment.Amount.String())
	return payment, nil
}

func (s *paymentServiceImpl) DeletePayment(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		payment, err := s.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		invoice, err := s.invoice(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Delete(ctx, id); err != nil {
			return err
		}

		deleted := event.NewEvent(event.TypePaymentDeleted, entity.EntityPayment, id, map[string]interface{}{
			event.KeyInvoiceID: invoice.ID,
			event.KeyAmount:    payment.Amount.String(),
		})
		if err := s.events.Publish(ctx, deleted); err != nil {
			return err
		}
		return s.settle(ctx, invoice, "payment deleted", deleted)
	})
	if err != nil {
		s.logger.Error("Failed to delete payment", "payment_id", id, "error", err)
		return err
	}

	s.logger.Info("Payment deleted", "payment_id", id)
	return nil
}

func (s *paymentServiceImpl) CompletePayment(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.transition(ctx, id, "payment completed", (*entity.Payment).Complete)
}

func (s *paymentServiceImpl) FailPayment(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.transition(ctx, id, "payment failed", (*entity.Payment).Fail)
}

func (s *paymentServiceImpl) CancelPayment(ctx context.Context, id int64) (*entity.Payment, error) {
	return s.transition(ctx, id, "payment cancelled", (*entity.Payment).Cancel)
}

func (s *paymentServiceImpl) PaymentStatus(ctx context.Context, invoiceID int64) (*reconcile.Balance, error) {
	invoice, err := s.invoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	balance := reconcile.BalanceOf(invoice, payments)
	return &balance, nil
}

func (s *paymentServiceImpl) transition(ctx context.Context, id int64, reason string, fire func(*entity.Payment, context.Context) error) (*entity.Payment, error) {
	var payment *entity.Payment
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		invoice, err := s.invoice(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}

		previous := payment.Status
		if err := fire(payment, ctx); err != nil {
			return err
		}
		if err := s.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		changed := event.StatusChanged(event.TypePaymentStatusChanged, entity.EntityPayment, payment.ID,
			previous.String(), payment.Status.String(), reason)
		if err := s.events.Publish(ctx, changed); err != nil {
			return err
		}
		return s.settle(ctx, invoice, reason, changed)
	})
	if err != nil {
		s.logger.Error("Failed to change payment status", "payment_id", id, "action", reason, "error", err)
		return nil, err
	}

	s.logger.Info("Payment status changed", "payment_id", id, "status", payment.Status)
	return payment, nil
}

// settle recomputes the completed sum from every stored payment and moves the
// invoice to the derived status, publishing the change as caused by cause.
func (s *paymentServiceImpl) settle(ctx context.Context, invoice *entity.Invoice, reason string, cause *event.Event) error {
	payments, err := s.paymentRepo.ListByInvoice(ctx, invoice.ID)
	if err != nil {
		return err
	}

	completed := reconcile.Sum(payments, 0).Completed
	target := reconcile.DeriveStatus(invoice.Status, invoice.TotalAmount(), completed)
	if target == invoice.Status {
		return nil
	}

	previous := invoice.Status
	if err := invoice.ApplySettlement(ctx, target); err != nil {
		return err
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, invoice.ID, invoice.Status); err != nil {
		return err
	}

	s.logger.Info("Invoice status reconciled",
		"invoice_id", invoice.ID,
		"from", previous,
		"to", invoice.Status,
		"completed", completed.String())

	changed := event.StatusChanged(event.TypeInvoiceStatusChanged, entity.EntityInvoice, invoice.ID,
		previous.String(), invoice.Status.String(), reason).Caused(cause)
	return s.events.Publish(ctx, changed)
}

func (s *paymentServiceImpl) invoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrInvoiceNotFound, id)
	}
	return invoice, nil
}

// ensureTransactionFree fails when another payment already carries transactionID
func (s *paymentServiceImpl) ensureTransactionFree(ctx context.Context, transactionID string, self int64) error {
	if transactionID == "" {
		return nil
	}
	existing, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != self {
		return fmt.Errorf("%w %s", entity.ErrDuplicateTransaction, transactionID)
	}
	return nil
}
