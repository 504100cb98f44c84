package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lottery-bet-bot/internal/model"
)

// SchemeRepository handles scheme persistence, including the rule/odds
// state documents stored as JSONB.
type SchemeRepository struct {
	pool *pgxpool.Pool
}

// NewSchemeRepository creates a new SchemeRepository instance.
func NewSchemeRepository(pool *pgxpool.Pool) *SchemeRepository {
	return &SchemeRepository{pool: pool}
}

const schemeColumns = `id, user_id, group_id, name, game_type, play_mode,
		rule_kind, odds_kind, rule_state, odds_state,
		enabled, stop_profit, stop_loss, created_at, updated_at`

func scanScheme(row pgx.Row) (*model.Scheme, error) {
	var sc model.Scheme
	err := row.Scan(
		&sc.ID, &sc.UserID, &sc.GroupID, &sc.Name, &sc.GameType, &sc.PlayMode,
		&sc.RuleKind, &sc.OddsKind, &sc.RuleState, &sc.OddsState,
		&sc.Enabled, &sc.StopProfit, &sc.StopLoss, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// Create inserts a new scheme.
func (r *SchemeRepository) Create(ctx context.Context, sc *model.Scheme) error {
	const query = `
		INSERT INTO schemes (id, user_id, group_id, name, game_type, play_mode,
			rule_kind, odds_kind, rule_state, odds_state,
			enabled, stop_profit, stop_loss, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		sc.ID, sc.UserID, sc.GroupID, sc.Name, sc.GameType, sc.PlayMode,
		sc.RuleKind, sc.OddsKind, sc.RuleState, sc.OddsState,
		sc.Enabled, sc.StopProfit, sc.StopLoss,
	)
	if err != nil {
		return fmt.Errorf("failed to create scheme: %w", err)
	}
	return nil
}

// Get retrieves a scheme by id. Returns ErrSchemeNotFound if missing.
func (r *SchemeRepository) Get(ctx context.Context, id string) (*model.Scheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM schemes WHERE id = $1`

	sc, err := scanScheme(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSchemeNotFound
		}
		return nil, fmt.Errorf("failed to get scheme: %w", err)
	}
	return sc, nil
}

// ListByGroup retrieves all schemes bound to a group, across all owning
// users, in creation order.
func (r *SchemeRepository) ListByGroup(ctx context.Context, groupID int64) ([]*model.Scheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM schemes WHERE group_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []*model.Scheme
	for rows.Next() {
		sc, err := scanScheme(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schemes: %w", err)
	}
	return schemes, nil
}

// Update persists a scheme's mutable fields, the state documents included.
func (r *SchemeRepository) Update(ctx context.Context, sc *model.Scheme) error {
	const query = `
		UPDATE schemes
		SET name = $2, rule_state = $3, odds_state = $4, enabled = $5,
		    stop_profit = $6, stop_loss = $7, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		sc.ID, sc.Name, sc.RuleState, sc.OddsState, sc.Enabled,
		sc.StopProfit, sc.StopLoss,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheme: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSchemeNotFound
	}
	return nil
}

// Delete removes a scheme.
func (r *SchemeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM schemes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheme: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSchemeNotFound
	}
	return nil
}
