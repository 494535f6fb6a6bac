package tracking

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

type Service struct {
	orderRepo         interfaces.OrderRepository
	terminalRepo      interfaces.TerminalRepository
	logger            logger.Logger
	clock             clockwork.Clock
	heartbeatInterval time.Duration
}

func NewService(orderRepo interfaces.OrderRepository, terminalRepo interfaces.TerminalRepository, logger logger.Logger, clock clockwork.Clock, heartbeatInterval time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Service{
		orderRepo:         orderRepo,
		terminalRepo:      terminalRepo,
		logger:            logger,
		clock:             clock,
		heartbeatInterval: heartbeatInterval,
	}
}

func (s *Service) GetStageHistory(ctx context.Context, orderID string) ([]*domain.StageLog, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.GetStageHistory(ctx, orderID)
}

// GetTerminalsStatus reports board terminals. A terminal that missed two
// heartbeats is reported offline even if it never said goodbye.
func (s *Service) GetTerminalsStatus(ctx context.Context) ([]*interfaces.TerminalStatusResponse, error) {
	terminals, err := s.terminalRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	timeout := 2 * s.heartbeatInterval

	resp := make([]*interfaces.TerminalStatusResponse, 0, len(terminals))
	for _, t := range terminals {
		status := domain.TerminalStatusOffline
		if t.IsOnline(now, timeout) {
			status = domain.TerminalStatusOnline
		}

		resp = append(resp, &interfaces.TerminalStatusResponse{
			Name:              t.Name,
			Status:            status,
			TransitionsIssued: t.TransitionsIssued,
			LastSeen:          t.LastSeen,
		})
	}

	return resp, nil
}
