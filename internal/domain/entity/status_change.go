package entity

import "time"

// Entity types recorded in the status history
const (
	EntityInvoice = "invoice"
	EntityProject = "project"
	EntityPayment = "payment"
)

// StatusChange is one entry in the audit trail of status transitions
type StatusChange struct {
	ID             int64     `json:"id"`
	EntityType     string    `json:"entity_type"`
	EntityID       int64     `json:"entity_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
