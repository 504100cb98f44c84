package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"lottery-bet-bot/internal/model"
	"lottery-bet-bot/internal/notify"
	"lottery-bet-bot/internal/odds"
	"lottery-bet-bot/internal/round"
	"lottery-bet-bot/internal/tagger"
)

// settle judges every open order of the round against the announced result,
// applies payouts to the user and scheme aggregates, advances the scheme
// progressions and enforces stop-profit/stop-loss. An order is settled at
// most once; failures stay scoped to the order they hit.
func (s *Service) settle(ctx context.Context, grc *round.Context, roundID, result string) error {
	orders, err := s.orders.ListOpenByRound(ctx, grc.GroupID, roundID)
	if err != nil {
		return fmt.Errorf("load open orders for round %s: %w", roundID, err)
	}

	touched := make(map[string]*model.Scheme)

	for _, o := range orders {
		if o.Status == model.OrderSettled {
			continue
		}
		running, _, logs := s.userSnapshot(o.UserID)
		if !running {
			continue
		}

		s.settleOrder(ctx, o, result, logs)

		if _, seen := touched[o.SchemeID]; !seen {
			sc, err := s.schemes.Get(ctx, o.SchemeID)
			if err != nil {
				log.Error().Err(err).Str("scheme_id", o.SchemeID).Msg("load scheme for settlement")
				touched[o.SchemeID] = nil
			} else {
				touched[o.SchemeID] = sc
			}
		}
		if sc := touched[o.SchemeID]; sc != nil && o.Status == model.OrderSettled {
			s.advanceOdds(ctx, sc, o.IsWin)
		}
	}

	for _, sc := range touched {
		if sc != nil {
			s.applyRiskLimits(ctx, sc)
		}
	}
	return nil
}

// settleOrder judges one order and commits its terminal state. Aggregates
// are only applied after the settled order itself is persisted, so a
// storage failure leaves the order unprocessed rather than half-counted.
func (s *Service) settleOrder(ctx context.Context, o *model.BetOrder, result string, logs *LogRing) {
	matchCount := 0
	for _, target := range o.Targets {
		if tagger.Match(target, result, o.GameType) {
			matchCount++
		}
	}

	payout := 0.0
	if matchCount > 0 && len(o.Targets) > 0 {
		fixedOdds := s.cfg.Games.Odds(o.GameType)
		payout = float64(matchCount) / float64(len(o.Targets)) * o.Amount * fixedOdds
	}

	now := time.Now()
	o.Status = model.OrderSettled
	o.OpenResult = result
	o.Payout = payout
	o.Profit = payout - o.Amount
	o.IsWin = payout > 0
	o.SettledAt = &now

	if err := s.orders.Update(ctx, o); err != nil {
		o.Status = model.OrderConfirmed
		o.SettledAt = nil
		log.Error().Err(err).
			Int64("user_id", o.UserID).
			Str("order_id", o.ID).
			Msg("persist settled order")
		return
	}

	if err := s.aggs.AddUser(ctx, o.UserID, o.Profit, o.Amount, o.IsSimulation); err != nil {
		log.Error().Err(err).Int64("user_id", o.UserID).Msg("update user aggregate")
	}
	if err := s.aggs.AddScheme(ctx, o.SchemeID, o.Profit, o.Amount, o.IsSimulation); err != nil {
		log.Error().Err(err).Str("scheme_id", o.SchemeID).Msg("update scheme aggregate")
	}

	outcome := "输"
	if o.IsWin {
		outcome = "赢"
	}
	s.logUser(logs, fmt.Sprintf("[%s] 开奖 %s %s %s %.2f 盈亏 %+.2f",
		o.RoundID, result, strings.Join(o.Targets, "/"), outcome, o.Payout, o.Profit))

	s.notifier.Notify(o.UserID, notify.KindSettlement, map[string]any{
		"round_id": o.RoundID,
		"result":   result,
		"targets":  o.Targets,
		"payout":   o.Payout,
		"profit":   o.Profit,
		"is_win":   o.IsWin,
	})

	log.Info().
		Int64("user_id", o.UserID).
		Str("scheme_id", o.SchemeID).
		Str("round_id", o.RoundID).
		Float64("payout", o.Payout).
		Float64("profit", o.Profit).
		Bool("is_win", o.IsWin).
		Msg("order settled")
}

// advanceOdds steps the scheme's progression with the settled outcome and
// persists the new state document.
func (s *Service) advanceOdds(ctx context.Context, sc *model.Scheme, won bool) {
	o, err := odds.Decode(sc.OddsKind, sc.OddsState)
	if err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("odds state rejected at settlement")
		return
	}
	o.Advance(won)
	if !o.Dirty() {
		return
	}
	raw, err := odds.Encode(o)
	if err == nil {
		sc.OddsState = raw
		err = s.schemes.Update(ctx, sc)
	}
	if err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("persist odds state")
	}
}

// applyRiskLimits recomputes the scheme's total settled profit and disables
// the scheme once it crosses stop-profit or stop-loss. A zero threshold
// disables the corresponding check.
func (s *Service) applyRiskLimits(ctx context.Context, sc *model.Scheme) {
	if !sc.Enabled || (sc.StopProfit <= 0 && sc.StopLoss <= 0) {
		return
	}
	profit, err := s.orders.SchemeProfit(ctx, sc.ID)
	if err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("compute scheme profit")
		return
	}

	var reason string
	switch {
	case sc.StopProfit > 0 && profit >= sc.StopProfit:
		reason = "stop_profit"
	case sc.StopLoss > 0 && profit <= -sc.StopLoss:
		reason = "stop_loss"
	default:
		return
	}

	sc.Enabled = false
	if err := s.schemes.Update(ctx, sc); err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("disable scheme")
		sc.Enabled = true
		return
	}

	_, _, logs := s.userSnapshot(sc.UserID)
	s.logUser(logs, fmt.Sprintf("方案 %s 触发%s（累计盈亏 %+.2f），已停用", sc.Name, reason, profit))
	s.notifier.Notify(sc.UserID, notify.KindRiskControl, map[string]any{
		"scheme_id": sc.ID,
		"reason":    reason,
		"profit":    profit,
	})
	log.Warn().
		Str("scheme_id", sc.ID).
		Str("reason", reason).
		Float64("profit", profit).
		Msg("scheme disabled by risk control")
}
