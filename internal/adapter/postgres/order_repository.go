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

const createdBy = "order-service"

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tableID *string
	var tableNumber *int
	if order.Table != nil {
		tableNumber = &order.Table.Number
		if order.Table.ID != "" {
			tableID = &order.Table.ID
		}
	}

	query := `
		INSERT INTO kitchen_orders (id, table_id, table_number, stage, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query, order.ID, tableID, tableNumber, order.Stage, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, line := range order.Lines {
		lineQuery := `
			INSERT INTO kitchen_order_lines (id, order_id, position, quantity, note, menu_item_id, menu_item_name, category_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err = tx.Exec(ctx, lineQuery,
			line.ID, order.ID, i, line.Quantity, line.Note,
			line.MenuItem.ID, line.MenuItem.Name, line.MenuItem.CategoryID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	if err := logStage(ctx, tx, order, createdBy); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

const selectOrder = `
	SELECT id, table_id, table_number, stage, created_at, updated_at
	FROM kitchen_orders
`

func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if err := r.loadLines(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListActive returns every order that is not archived, oldest first.
func (r *orderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, selectOrder+` WHERE archived_at IS NULL ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `
		SELECT id, order_id, quantity, note, menu_item_id, menu_item_name, category_id
		FROM kitchen_order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.OrderLine
		var orderID string
		if err := rows.Scan(
			&line.ID, &orderID, &line.Quantity, &line.Note,
			&line.MenuItem.ID, &line.MenuItem.Name, &line.MenuItem.CategoryID,
		); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

// UpdateStage stores the order's stage and appends it to the stage log in
// one transaction.
func (r *orderRepository) UpdateStage(ctx context.Context, order *domain.Order, changedBy string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE kitchen_orders
		SET stage = $1, updated_at = $2
		WHERE id = $3
	`
	tag, err := tx.Exec(ctx, query, order.Stage, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	if err := logStage(ctx, tx, order, changedBy); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Archive takes an order off the kitchen list. Archiving an unknown or
// already archived order reports ErrOrderNotFound.
func (r *orderRepository) Archive(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE kitchen_orders
		SET archived_at = $1, updated_at = $1
		WHERE id = $2 AND archived_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to archive order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) GetStageHistory(ctx context.Context, orderID string) ([]*domain.StageLog, error) {
	query := `
		SELECT id, order_id, stage, changed_by, changed_at
		FROM kitchen_order_stage_log
		WHERE order_id = $1
		ORDER BY changed_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage history: %w", err)
	}
	defer rows.Close()

	var logs []*domain.StageLog
	for rows.Next() {
		var log domain.StageLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Stage, &log.ChangedBy, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func logStage(ctx context.Context, tx Tx, order *domain.Order, changedBy string) error {
	query := `
		INSERT INTO kitchen_order_stage_log (order_id, stage, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, order.ID, order.Stage, changedBy, order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to log stage: %w", err)
	}
	return nil
}

func scanOrder(row Row) (*domain.Order, error) {
	var order domain.Order
	var tableID *string
	var tableNumber *int
	if err := row.Scan(&order.ID, &tableID, &tableNumber, &order.Stage, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	if tableNumber != nil {
		order.Table = &domain.TableRef{Number: *tableNumber}
		if tableID != nil {
			order.Table.ID = *tableID
		}
	}
	return &order, nil
}
