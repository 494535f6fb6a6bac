package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

const serviceName = "order-service"

type Service struct {
	repo      interfaces.OrderRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	clock     clockwork.Clock
}

func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, logger logger.Logger, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		clock:     clock,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	lines := make([]domain.OrderLine, len(cmd.Lines))
	for i, l := range cmd.Lines {
		itemID := l.MenuItemID
		if itemID == "" {
			itemID = uuid.NewString()
		}
		lines[i] = domain.OrderLine{
			ID:       uuid.NewString(),
			Quantity: l.Quantity,
			Note:     l.Note,
			MenuItem: domain.MenuItem{
				ID:         itemID,
				Name:       l.Name,
				CategoryID: l.CategoryID,
			},
		}
	}

	var table *domain.TableRef
	if cmd.TableNumber != nil {
		table = &domain.TableRef{Number: *cmd.TableNumber}
		if cmd.TableID != nil {
			table.ID = *cmd.TableID
		}
	}

	order, err := domain.NewOrder(uuid.NewString(), table, lines, s.clock.Now().UTC())
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}
	s.logger.Debug("order_received", "Order created in DB", "", map[string]interface{}{"order_id": order.ID})

	s.publishChange(ctx, order, "", serviceName)
	return order, nil
}

func (s *Service) ListKitchenOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListActive(ctx)
}

// UpdateStage moves an order to stage. Asking for the stage the order is
// already in succeeds without writing anything.
func (s *Service) UpdateStage(ctx context.Context, orderID string, stage domain.Stage, changedBy string) (*domain.Order, error) {
	if !stage.Valid() {
		return nil, domain.ErrInvalidStage
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	old := order.Stage
	if err := order.TransitionTo(stage, s.clock.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrStageUnchanged) {
			return order, nil
		}
		return nil, err
	}

	if changedBy == "" {
		changedBy = serviceName
	}
	if err := s.repo.UpdateStage(ctx, order, changedBy); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to update order stage", "", map[string]interface{}{"order_id": orderID}, err)
		return nil, fmt.Errorf("failed to update order stage: %w", err)
	}

	s.logger.Debug("stage_changed", fmt.Sprintf("Order %s moved to %s", order.ID, order.Stage), "", map[string]interface{}{
		"order_id":   order.ID,
		"old_stage":  old,
		"new_stage":  order.Stage,
		"changed_by": changedBy,
	})

	s.publishChange(ctx, order, old, changedBy)
	return order, nil
}

// ArchiveOrder takes a finished order off the kitchen boards. Only orders in
// the DONE stage may be archived.
func (s *Service) ArchiveOrder(ctx context.Context, orderID string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Stage != domain.StageDone {
		return fmt.Errorf("%w: %s is %s", domain.ErrOrderNotDone, order.ID, order.Stage)
	}

	if err := s.repo.Archive(ctx, order.ID, s.clock.Now().UTC()); err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			s.logger.Error("db_transaction_failed", "Failed to archive order", "", map[string]interface{}{"order_id": orderID}, err)
		}
		return err
	}

	s.logger.Debug("order_archived", fmt.Sprintf("Order %s archived", order.ID), "", map[string]interface{}{"order_id": order.ID})
	return nil
}

// publishChange announces a stored stage change. A failed publish does not
// undo the change.
func (s *Service) publishChange(ctx context.Context, order *domain.Order, old domain.Stage, changedBy string) {
	if s.publisher == nil {
		return
	}

	msg := interfaces.NotificationMessage{
		Kind:      interfaces.NotificationStageChanged,
		OrderID:   order.ID,
		OldStage:  old,
		NewStage:  order.Stage,
		ChangedBy: changedBy,
		Timestamp: s.clock.Now().UTC(),
	}
	if order.Table != nil {
		n := order.Table.Number
		msg.TableNumber = &n
	}

	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish stage change", "", map[string]interface{}{"order_id": order.ID}, err)
		return
	}
	s.logger.Debug("notification_published", "Stage change published to RabbitMQ", "", map[string]interface{}{"order_id": order.ID})
}
