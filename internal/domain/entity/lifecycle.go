package entity

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/domain/workflow"
)

// InvoiceTrigger moves an invoice between statuses
type InvoiceTrigger string

const (
	InvoiceTriggerSend    InvoiceTrigger = "send"
	InvoiceTriggerCancel  InvoiceTrigger = "cancel"
	InvoiceTriggerSettle  InvoiceTrigger = "settle"
	InvoiceTriggerPartPay InvoiceTrigger = "part_pay"
	InvoiceTriggerReopen  InvoiceTrigger = "reopen"
)

// ProjectTrigger moves a project between statuses
type ProjectTrigger string

const (
	ProjectTriggerComplete ProjectTrigger = "complete"
	ProjectTriggerPause    ProjectTrigger = "pause"
	ProjectTriggerResume   ProjectTrigger = "resume"
	ProjectTriggerCancel   ProjectTrigger = "cancel"
)

// PaymentTrigger moves a payment between statuses
type PaymentTrigger string

const (
	PaymentTriggerComplete PaymentTrigger = "complete"
	PaymentTriggerFail     PaymentTrigger = "fail"
	PaymentTriggerCancel   PaymentTrigger = "cancel"
)

var (
	invoiceLifecycle = newInvoiceLifecycle()
	projectLifecycle = newProjectLifecycle()
	paymentLifecycle = newPaymentLifecycle()
)

// Settlement triggers (settle, part_pay, reopen) are only fired by payment
// reconciliation.
func newInvoiceLifecycle() workflow.StateMachineBuilder[InvoiceStatus, InvoiceTrigger] {
	b := workflow.NewBuilder[InvoiceStatus, InvoiceTrigger]()

	b.Configure(InvoiceDraft).
		Permit(InvoiceTriggerSend, InvoiceSent).
		Permit(InvoiceTriggerSettle, InvoicePaid).
		Permit(InvoiceTriggerPartPay, InvoicePartiallyPaid).
		Permit(InvoiceTriggerCancel, InvoiceCancelled)

	b.Configure(InvoiceSent).
		Permit(InvoiceTriggerSend, InvoiceSent).
		Permit(InvoiceTriggerSettle, InvoicePaid).
		Permit(InvoiceTriggerPartPay, InvoicePartiallyPaid).
		Permit(InvoiceTriggerCancel, InvoiceCancelled)

	// overdue only exists on rows written before it became a derived view
	b.Configure(InvoiceOverdue).
		Permit(InvoiceTriggerSettle, InvoicePaid).
		Permit(InvoiceTriggerPartPay, InvoicePartiallyPaid).
		Permit(InvoiceTriggerCancel, InvoiceCancelled)

	b.Configure(InvoicePartiallyPaid).
		Permit(InvoiceTriggerSettle, InvoicePaid).
		Permit(InvoiceTriggerPartPay, InvoicePartiallyPaid).
		Permit(InvoiceTriggerReopen, InvoiceSent).
		Permit(InvoiceTriggerCancel, InvoiceCancelled)

	b.Configure(InvoicePaid).
		Permit(InvoiceTriggerSettle, InvoicePaid).
		Permit(InvoiceTriggerPartPay, InvoicePartiallyPaid)

	return b
}

func newProjectLifecycle() workflow.StateMachineBuilder[ProjectStatus, ProjectTrigger] {
	b := workflow.NewBuilder[ProjectStatus, ProjectTrigger]()

	b.Configure(ProjectActive).
		Permit(ProjectTriggerComplete, ProjectCompleted).
		Permit(ProjectTriggerPause, ProjectOnHold).
		Permit(ProjectTriggerCancel, ProjectCancelled)

	b.Configure(ProjectOnHold).
		Permit(ProjectTriggerResume, ProjectActive).
		Permit(ProjectTriggerComplete, ProjectCompleted).
		Permit(ProjectTriggerCancel, ProjectCancelled)

	return b
}

func newPaymentLifecycle() workflow.StateMachineBuilder[PaymentStatus, PaymentTrigger] {
	b := workflow.NewBuilder[PaymentStatus, PaymentTrigger]()

	b.Configure(PaymentPending).
		Permit(PaymentTriggerComplete, PaymentCompleted).
		Permit(PaymentTriggerFail, PaymentFailed).
		Permit(PaymentTriggerCancel, PaymentCancelled)

	return b
}

// fire runs one transition and returns the resulting status.
// Rejected transitions are reported as ErrInvalidOperation.
func fire[S workflow.State, T workflow.Trigger](ctx context.Context, lifecycle workflow.StateMachineBuilder[S, T], current S, trigger T) (S, error) {
	m, err := lifecycle.Build(current)
	if err != nil {
		return current, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	if err := m.Fire(ctx, trigger); err != nil {
		return current, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return m.State(), nil
}

// PermittedInvoiceActions lists the triggers available from status
func PermittedInvoiceActions(status InvoiceStatus) []InvoiceTrigger {
	m, err := invoiceLifecycle.Build(status)
	if err != nil {
		return nil
	}
	return m.PermittedTriggers()
}
