package event

import (
	"testing"

	"github.com/google/uuid"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"invoice created", TypeInvoiceCreated, true},
		{"invoice status changed", TypeInvoiceStatusChanged, true},
		{"payment recorded", TypePaymentRecorded, true},
		{"project status changed", TypeProjectStatusChanged, true},
		{"unknown", Type("unknown.type"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_IsStatusChange(t *testing.T) {
	if !TypeInvoiceStatusChanged.IsStatusChange() {
		t.Error("expected invoice.status_changed to be a status change")
	}
	if TypePaymentRecorded.IsStatusChange() {
		t.Error("expected payment.recorded not to be a status change")
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypePaymentRecorded, "payment", 9, map[string]interface{}{KeyInvoiceID: int64(3)})

	if _, err := uuid.Parse(evt.ID); err != nil {
		t.Errorf("expected uuid id, got %q: %v", evt.ID, err)
	}
	if evt.CorrelationID != evt.ID {
		t.Errorf("expected correlation id to default to event id")
	}
	if evt.EntityType != "payment" || evt.EntityID != 9 {
		t.Errorf("unexpected entity %s/%d", evt.EntityType, evt.EntityID)
	}
	if got := evt.GetPayloadInt(KeyInvoiceID); got != 3 {
		t.Errorf("GetPayloadInt() = %d, want 3", got)
	}
	if evt.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestStatusChangedAndCaused(t *testing.T) {
	cause := NewEvent(TypePaymentRecorded, "payment", 1, nil)
	evt := StatusChanged(TypeInvoiceStatusChanged, "invoice", 2, "sent", "paid", "payment recorded").Caused(cause)

	if evt.GetPayloadString(KeyPreviousStatus) != "sent" || evt.GetPayloadString(KeyNewStatus) != "paid" {
		t.Errorf("unexpected payload %v", evt.Payload)
	}
	if evt.CorrelationID != cause.CorrelationID {
		t.Errorf("expected correlation %s, got %s", cause.CorrelationID, evt.CorrelationID)
	}
	if evt.ID == cause.ID {
		t.Error("expected distinct event ids")
	}
}

func TestWithPayloadDoesNotMutate(t *testing.T) {
	evt := NewEvent(TypeInvoiceCreated, "invoice", 1, map[string]interface{}{"a": "1"})
	next := evt.WithPayload("b", "2")

	if _, ok := evt.Payload["b"]; ok {
		t.Error("expected original payload to be unchanged")
	}
	if next.GetPayloadString("a") != "1" || next.GetPayloadString("b") != "2" {
		t.Errorf("unexpected payload %v", next.Payload)
	}
	if next.GetPayloadString("missing") != "" || next.GetPayloadInt("a") != 0 {
		t.Error("expected zero values for missing or mistyped keys")
	}
}
