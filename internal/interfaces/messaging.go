package interfaces

import (
	"context"
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

type NotificationKind string

const (
	// Published by the order service once a stage change is stored.
	NotificationStageChanged NotificationKind = "stage_changed"
	// Published by a board terminal for its own transition requests.
	NotificationTransitionSucceeded NotificationKind = "transition_succeeded"
	NotificationTransitionFailed    NotificationKind = "transition_failed"
)

// RabbitMQ messages
type NotificationMessage struct {
	Kind        NotificationKind `json:"kind"`
	OrderID     string           `json:"order_id"`
	TableNumber *int             `json:"table_number,omitempty"`
	OldStage    domain.Stage     `json:"old_stage,omitempty"`
	NewStage    domain.Stage     `json:"new_stage"`
	ChangedBy   string           `json:"changed_by"`
	Error       string           `json:"error,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

type MessagePublisher interface {
	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
