package terminal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

var ErrAlreadyOnline = errors.New("terminal already online")

// Service keeps a board host registered while it runs.
type Service struct {
	repo              interfaces.TerminalRepository
	logger            logger.Logger
	clock             clockwork.Clock
	name              string
	heartbeatInterval time.Duration
}

func NewService(repo interfaces.TerminalRepository, logger logger.Logger, clock clockwork.Clock, name string, heartbeatInterval time.Duration) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Service{
		repo:              repo,
		logger:            logger,
		clock:             clock,
		name:              name,
		heartbeatInterval: heartbeatInterval,
	}
}

func (s *Service) Name() string {
	return s.name
}

// Start registers the terminal and keeps its heartbeat going until ctx ends.
// A terminal still marked online whose heartbeat has gone stale is taken
// over, since its previous host died without marking it offline.
func (s *Service) Start(ctx context.Context) error {
	now := s.clock.Now().UTC()

	terminal, err := s.repo.FindByName(ctx, s.name)
	switch {
	case err == nil:
		if terminal.IsOnline(now, 2*s.heartbeatInterval) {
			return fmt.Errorf("%w: %s", ErrAlreadyOnline, s.name)
		}
		terminal.UpdateHeartbeat(now)
		if err := s.repo.Update(ctx, terminal); err != nil {
			return err
		}
	case errors.Is(err, domain.ErrTerminalNotFound):
		terminal, err = domain.NewTerminal(s.name, now)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, terminal); err != nil {
			return err
		}
	default:
		return fmt.Errorf("failed to look up terminal %s: %w", s.name, err)
	}

	s.logger.Info("terminal_registered", fmt.Sprintf("Terminal %s registered", s.name), "", nil)

	go s.heartbeatLoop(ctx)

	return nil
}

func (s *Service) heartbeatLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.repo.UpdateHeartbeat(ctx, s.name); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

// RecordTransition counts a stage change issued from this terminal.
func (s *Service) RecordTransition(ctx context.Context) error {
	return s.repo.IncrementTransitionsIssued(ctx, s.name)
}

func (s *Service) Shutdown(ctx context.Context) error {
	terminal, err := s.repo.FindByName(ctx, s.name)
	if err != nil {
		return err
	}
	terminal.SetOffline()
	return s.repo.Update(ctx, terminal)
}
