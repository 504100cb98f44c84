// Package main is the entry point for the lottery betting engine.
package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lottery-bet-bot/internal/config"
	"lottery-bet-bot/internal/engine"
	"lottery-bet-bot/internal/notify"
	"lottery-bet-bot/internal/pkg/db"
	"lottery-bet-bot/internal/repository"
	"lottery-bet-bot/internal/transport"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	schemeRepo := repository.NewSchemeRepository(dbPool.Pool)
	orderRepo := repository.NewOrderRepository(dbPool.Pool)
	aggRepo := repository.NewAggregateRepository(dbPool.Pool)

	// The chat transport is an external collaborator; this binary logs the
	// outbound bet text instead of owning a wire protocol.
	sender := transport.SenderFunc(func(_ context.Context, userID, groupID int64, text string) (string, error) {
		log.Info().
			Int64("user_id", userID).
			Int64("group_id", groupID).
			Str("text", text).
			Msg("outbound bet message")
		return "", nil
	})

	svc := engine.New(cfg, schemeRepo, orderRepo, aggRepo, sender, notify.Log{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Development event feed: one classified-source line per event,
	// "<group_id> <raw game message>".
	go feedEvents(ctx, svc)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	cancel()
	log.Info().Msg("Engine stopped gracefully")
}

// feedEvents reads raw group messages from stdin and hands them to the
// engine. Each group's events are processed in arrival order; distinct
// groups run concurrently.
func feedEvents(ctx context.Context, svc *engine.Service) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		groupField, raw, ok := strings.Cut(line, " ")
		if !ok {
			log.Warn().Str("line", line).Msg("malformed event line")
			continue
		}
		groupID, err := strconv.ParseInt(groupField, 10, 64)
		if err != nil {
			log.Warn().Str("line", line).Msg("malformed group id")
			continue
		}
		if err := svc.HandleMessage(ctx, groupID, raw); err != nil {
			log.Error().Err(err).Int64("group_id", groupID).Msg("event processing failed")
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("event feed closed")
	}
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schemes (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			group_id BIGINT NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			game_type VARCHAR(32) NOT NULL,
			play_mode VARCHAR(16) NOT NULL DEFAULT 'live',
			rule_kind VARCHAR(32) NOT NULL,
			odds_kind VARCHAR(32) NOT NULL,
			rule_state JSONB NOT NULL DEFAULT '{}',
			odds_state JSONB NOT NULL DEFAULT '{}',
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			stop_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			stop_loss DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_schemes_group ON schemes(group_id)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bet_orders (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			scheme_id UUID NOT NULL,
			group_id BIGINT NOT NULL,
			round_id VARCHAR(64) NOT NULL,
			game_type VARCHAR(32) NOT NULL,
			targets TEXT[] NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status VARCHAR(16) NOT NULL,
			open_result VARCHAR(64) NOT NULL DEFAULT '',
			payout DOUBLE PRECISION NOT NULL DEFAULT 0,
			profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_win BOOLEAN NOT NULL DEFAULT FALSE,
			is_simulation BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			settled_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_bet_orders_round ON bet_orders(group_id, round_id, status)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_aggregates (
			user_id BIGINT PRIMARY KEY,
			profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			turnover DOUBLE PRECISION NOT NULL DEFAULT 0,
			trial_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			trial_turnover DOUBLE PRECISION NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scheme_aggregates (
			scheme_id UUID PRIMARY KEY,
			profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			turnover DOUBLE PRECISION NOT NULL DEFAULT 0,
			trial_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			trial_turnover DOUBLE PRECISION NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	log.Info().Msg("Database migrations completed")
	return nil
}
