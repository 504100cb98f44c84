package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lottery-bet-bot/internal/model"
)

// AggregateRepository accumulates user and scheme profit/turnover, split
// into live and simulated buckets.
type AggregateRepository struct {
	pool *pgxpool.Pool
}

// NewAggregateRepository creates a new AggregateRepository instance.
func NewAggregateRepository(pool *pgxpool.Pool) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

// AddUser folds one settled order into the user's aggregate.
func (r *AggregateRepository) AddUser(ctx context.Context, userID int64, profit, turnover float64, simulated bool) error {
	liveProfit, liveTurnover, trialProfit, trialTurnover := split(profit, turnover, simulated)
	const query = `
		INSERT INTO user_aggregates (user_id, profit, turnover, trial_profit, trial_turnover)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			profit = user_aggregates.profit + EXCLUDED.profit,
			turnover = user_aggregates.turnover + EXCLUDED.turnover,
			trial_profit = user_aggregates.trial_profit + EXCLUDED.trial_profit,
			trial_turnover = user_aggregates.trial_turnover + EXCLUDED.trial_turnover
	`
	if _, err := r.pool.Exec(ctx, query, userID, liveProfit, liveTurnover, trialProfit, trialTurnover); err != nil {
		return fmt.Errorf("failed to update user aggregate: %w", err)
	}
	return nil
}

// AddScheme folds one settled order into the scheme's aggregate.
func (r *AggregateRepository) AddScheme(ctx context.Context, schemeID string, profit, turnover float64, simulated bool) error {
	liveProfit, liveTurnover, trialProfit, trialTurnover := split(profit, turnover, simulated)
	const query = `
		INSERT INTO scheme_aggregates (scheme_id, profit, turnover, trial_profit, trial_turnover)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scheme_id) DO UPDATE SET
			profit = scheme_aggregates.profit + EXCLUDED.profit,
			turnover = scheme_aggregates.turnover + EXCLUDED.turnover,
			trial_profit = scheme_aggregates.trial_profit + EXCLUDED.trial_profit,
			trial_turnover = scheme_aggregates.trial_turnover + EXCLUDED.trial_turnover
	`
	if _, err := r.pool.Exec(ctx, query, schemeID, liveProfit, liveTurnover, trialProfit, trialTurnover); err != nil {
		return fmt.Errorf("failed to update scheme aggregate: %w", err)
	}
	return nil
}

// GetUser retrieves a user's aggregate, zero-valued when absent.
func (r *AggregateRepository) GetUser(ctx context.Context, userID int64) (*model.UserAggregate, error) {
	const query = `
		SELECT user_id, profit, turnover, trial_profit, trial_turnover
		FROM user_aggregates WHERE user_id = $1
	`
	agg := &model.UserAggregate{UserID: userID}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&agg.UserID, &agg.Profit, &agg.Turnover, &agg.TrialProfit, &agg.TrialTurnover,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No settled orders yet.
			return agg, nil
		}
		return nil, fmt.Errorf("failed to get user aggregate: %w", err)
	}
	return agg, nil
}

func split(profit, turnover float64, simulated bool) (liveProfit, liveTurnover, trialProfit, trialTurnover float64) {
	if simulated {
		return 0, 0, profit, turnover
	}
	return profit, turnover, 0, 0
}
