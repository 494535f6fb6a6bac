package notification

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

// TransitionRecorder counts transitions issued by a terminal.
type TransitionRecorder interface {
	RecordTransition(ctx context.Context) error
}

// Notifier reports the outcome of board transitions on the notifications
// exchange. Publish failures are logged and otherwise ignored.
type Notifier struct {
	publisher interfaces.MessagePublisher
	recorder  TransitionRecorder
	logger    logger.Logger
	clock     clockwork.Clock
	terminal  string
}

func NewNotifier(publisher interfaces.MessagePublisher, recorder TransitionRecorder, logger logger.Logger, clock clockwork.Clock, terminal string) *Notifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Notifier{
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		clock:     clock,
		terminal:  terminal,
	}
}

func (n *Notifier) TransitionSucceeded(ctx context.Context, order domain.Order, from domain.Stage) {
	if n.recorder != nil {
		if err := n.recorder.RecordTransition(ctx); err != nil {
			n.logger.Error("db_error", "Failed to increment terminal stats", "", nil, err)
		}
	}

	msg := interfaces.NotificationMessage{
		Kind:      interfaces.NotificationTransitionSucceeded,
		OrderID:   order.ID,
		OldStage:  from,
		NewStage:  order.Stage,
		ChangedBy: n.terminal,
		Timestamp: n.clock.Now().UTC(),
	}
	if order.Table != nil {
		num := order.Table.Number
		msg.TableNumber = &num
	}
	n.publish(ctx, msg)
}

func (n *Notifier) TransitionFailed(ctx context.Context, orderID string, to domain.Stage, err error) {
	msg := interfaces.NotificationMessage{
		Kind:      interfaces.NotificationTransitionFailed,
		OrderID:   orderID,
		NewStage:  to,
		ChangedBy: n.terminal,
		Timestamp: n.clock.Now().UTC(),
	}
	if err != nil {
		msg.Error = err.Error()
	}
	n.publish(ctx, msg)
}

func (n *Notifier) publish(ctx context.Context, msg interfaces.NotificationMessage) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishNotification(ctx, msg); err != nil {
		n.logger.Error("rabbitmq_publish_failed", "Failed to publish notification", "", map[string]interface{}{
			"kind":     msg.Kind,
			"order_id": msg.OrderID,
		}, err)
	}
}
