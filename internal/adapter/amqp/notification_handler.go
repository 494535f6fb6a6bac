package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

// NotificationHandler prints one toast line per notification.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	if out == nil {
		out = os.Stdout
	}
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received %s for order %s", msg.Kind, msg.OrderID),
		msg.OrderID, map[string]interface{}{
			"kind":      msg.Kind,
			"order_id":  msg.OrderID,
			"new_stage": msg.NewStage,
		})

	_, err := fmt.Fprintln(h.out, Toast(msg))
	return err
}

// Toast renders a notification as a single human readable line.
func Toast(msg interfaces.NotificationMessage) string {
	order := "Order " + msg.OrderID
	if msg.TableNumber != nil {
		order = fmt.Sprintf("Table %d order %s", *msg.TableNumber, msg.OrderID)
	}

	switch msg.Kind {
	case interfaces.NotificationTransitionSucceeded:
		return fmt.Sprintf("[%s] %s moved from %s to %s", msg.ChangedBy, order, msg.OldStage, msg.NewStage)
	case interfaces.NotificationTransitionFailed:
		return fmt.Sprintf("[%s] Could not move order %s to %s: %s", msg.ChangedBy, msg.OrderID, msg.NewStage, msg.Error)
	default:
		if msg.OldStage == "" {
			return fmt.Sprintf("%s received as %s", order, msg.NewStage)
		}
		return fmt.Sprintf("%s: stage changed from %s to %s by %s", order, msg.OldStage, msg.NewStage, msg.ChangedBy)
	}
}
