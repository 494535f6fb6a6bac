package interfaces

import (
	"context"
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

// Services (business logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	ListKitchenOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStage(ctx context.Context, orderID string, stage domain.Stage, changedBy string) (*domain.Order, error)
	ArchiveOrder(ctx context.Context, orderID string) error
}

type TrackingService interface {
	GetStageHistory(ctx context.Context, orderID string) ([]*domain.StageLog, error)
	GetTerminalsStatus(ctx context.Context) ([]*TerminalStatusResponse, error)
}

// OrderSource is the order service as seen by a kitchen board.
// FetchKitchenOrders must be free of side effects.
type OrderSource interface {
	FetchKitchenOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrderStage(ctx context.Context, orderID string, stage domain.Stage) (*domain.Order, error)
}

// Notifier receives the outcome of board transition requests.
type Notifier interface {
	TransitionSucceeded(ctx context.Context, order domain.Order, from domain.Stage)
	TransitionFailed(ctx context.Context, orderID string, to domain.Stage, err error)
}

// Commands
type CreateOrderCommand struct {
	TableID     *string
	TableNumber *int
	Lines       []CreateOrderLineCommand
}

type CreateOrderLineCommand struct {
	MenuItemID string
	Name       string
	CategoryID *string
	Quantity   int
	Note       *string
}

type TerminalStatusResponse struct {
	Name              string
	Status            domain.TerminalStatus
	TransitionsIssued int
	LastSeen          time.Time
}
