package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

var ErrTerminalNotFound = domain.ErrTerminalNotFound

type terminalRepository struct {
	db DB
}

func NewTerminalRepository(db DB) interfaces.TerminalRepository {
	return &terminalRepository{db: db}
}

func (r *terminalRepository) Create(ctx context.Context, t *domain.Terminal) error {
	query := `
		INSERT INTO board_terminals (name, status, last_seen, transitions_issued, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		t.Name, t.Status, t.LastSeen, t.TransitionsIssued, t.CreatedAt,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	return nil
}

func (r *terminalRepository) FindByName(ctx context.Context, name string) (*domain.Terminal, error) {
	query := `
		SELECT id, name, status, last_seen, transitions_issued, created_at
		FROM board_terminals
		WHERE name = $1
	`

	var t domain.Terminal
	err := r.db.QueryRow(ctx, query, name).Scan(
		&t.ID, &t.Name, &t.Status, &t.LastSeen, &t.TransitionsIssued, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTerminalNotFound
		}
		return nil, fmt.Errorf("failed to load terminal: %w", err)
	}

	return &t, nil
}

func (r *terminalRepository) Update(ctx context.Context, t *domain.Terminal) error {
	query := `
		UPDATE board_terminals
		SET status = $1, last_seen = $2, transitions_issued = $3
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, t.Status, t.LastSeen, t.TransitionsIssued, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update terminal: %w", err)
	}
	return nil
}

func (r *terminalRepository) UpdateHeartbeat(ctx context.Context, name string) error {
	query := `
		UPDATE board_terminals
		SET last_seen = $1, status = $2
		WHERE name = $3
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), domain.TerminalStatusOnline, name)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

func (r *terminalRepository) ListAll(ctx context.Context) ([]*domain.Terminal, error) {
	query := `
		SELECT id, name, status, last_seen, transitions_issued, created_at
		FROM board_terminals
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminals: %w", err)
	}
	defer rows.Close()

	var terminals []*domain.Terminal
	for rows.Next() {
		var t domain.Terminal
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.LastSeen, &t.TransitionsIssued, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan terminal: %w", err)
		}
		terminals = append(terminals, &t)
	}

	return terminals, rows.Err()
}

func (r *terminalRepository) IncrementTransitionsIssued(ctx context.Context, name string) error {
	query := `
		UPDATE board_terminals
		SET transitions_issued = transitions_issued + 1
		WHERE name = $1
	`
	_, err := r.db.Exec(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment transitions issued: %w", err)
	}
	return nil
}
