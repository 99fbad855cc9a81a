package dispatcher

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
	"github.com/garyjia/freelance-billing/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// HistoryHandlerName is the registration name of the status history handler
const HistoryHandlerName = "status-history"

// HistoryHandler appends a StatusChange row for every status transition event
func HistoryHandler(repo port.StatusChangeRepository) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if !evt.Type.IsStatusChange() {
			return nil
		}
		change := &entity.StatusChange{
			EntityType:     evt.EntityType,
			EntityID:       evt.EntityID,
			PreviousStatus: evt.GetPayloadString(event.KeyPreviousStatus),
			NewStatus:      evt.GetPayloadString(event.KeyNewStatus),
			Reason:         evt.GetPayloadString(event.KeyReason),
			OccurredAt:     evt.Timestamp,
		}
		if err := repo.Create(ctx, change); err != nil {
			return fmt.Errorf("record %s history: %w", evt.EntityType, err)
		}
		return nil
	}
}

// RegisterHistory subscribes HistoryHandler to every status transition event
func RegisterHistory(d Dispatcher, repo port.StatusChangeRepository) {
	d.SubscribeFunc(HistoryHandlerName, event.Type.IsStatusChange, HistoryHandler(repo))
}
