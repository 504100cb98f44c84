package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"lottery-bet-bot/internal/model"
)

// OrderRepository handles bet order persistence.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository instance.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new bet order.
func (r *OrderRepository) Create(ctx context.Context, o *model.BetOrder) error {
	const query = `
		INSERT INTO bet_orders (id, user_id, scheme_id, group_id, round_id, game_type,
			targets, amount, status, open_result, payout, profit, is_win, is_simulation,
			created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.pool.Exec(ctx, query,
		o.ID, o.UserID, o.SchemeID, o.GroupID, o.RoundID, o.GameType,
		o.Targets, o.Amount, o.Status, o.OpenResult, o.Payout, o.Profit,
		o.IsWin, o.IsSimulation, o.CreatedAt, o.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update persists an order's settlement fields.
func (r *OrderRepository) Update(ctx context.Context, o *model.BetOrder) error {
	const query = `
		UPDATE bet_orders
		SET status = $2, open_result = $3, payout = $4, profit = $5,
		    is_win = $6, settled_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		o.ID, o.Status, o.OpenResult, o.Payout, o.Profit, o.IsWin, o.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOpenByRound retrieves a group's pending and confirmed orders for one
// round, in creation order.
func (r *OrderRepository) ListOpenByRound(ctx context.Context, groupID int64, roundID string) ([]*model.BetOrder, error) {
	const query = `
		SELECT id, user_id, scheme_id, group_id, round_id, game_type,
		       targets, amount, status, open_result, payout, profit, is_win, is_simulation,
		       created_at, settled_at
		FROM bet_orders
		WHERE group_id = $1 AND round_id = $2 AND status IN ($3, $4)
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query, groupID, roundID, model.OrderPending, model.OrderConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.BetOrder
	for rows.Next() {
		var o model.BetOrder
		err := rows.Scan(
			&o.ID, &o.UserID, &o.SchemeID, &o.GroupID, &o.RoundID, &o.GameType,
			&o.Targets, &o.Amount, &o.Status, &o.OpenResult, &o.Payout, &o.Profit,
			&o.IsWin, &o.IsSimulation, &o.CreatedAt, &o.SettledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// SchemeProfit sums the settled profit across a scheme's orders.
func (r *OrderRepository) SchemeProfit(ctx context.Context, schemeID string) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(profit), 0)
		FROM bet_orders
		WHERE scheme_id = $1 AND status = $2
	`
	var profit float64
	err := r.pool.QueryRow(ctx, query, schemeID, model.OrderSettled).Scan(&profit)
	if err != nil {
		return 0, fmt.Errorf("failed to sum scheme profit: %w", err)
	}
	return profit, nil
}
