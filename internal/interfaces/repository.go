package interfaces

import (
	"context"
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

// Repositories (Adapter/Postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListActive(ctx context.Context) ([]*domain.Order, error)
	UpdateStage(ctx context.Context, order *domain.Order, changedBy string) error
	GetStageHistory(ctx context.Context, orderID string) ([]*domain.StageLog, error)
	Archive(ctx context.Context, id string, at time.Time) error
}

type TerminalRepository interface {
	Create(ctx context.Context, terminal *domain.Terminal) error
	FindByName(ctx context.Context, name string) (*domain.Terminal, error)
	Update(ctx context.Context, terminal *domain.Terminal) error
	UpdateHeartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.Terminal, error)
	IncrementTransitionsIssued(ctx context.Context, name string) error
}
