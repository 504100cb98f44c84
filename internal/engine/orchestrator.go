package engine

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lottery-bet-bot/internal/model"
	"lottery-bet-bot/internal/notify"
	"lottery-bet-bot/internal/odds"
	"lottery-bet-bot/internal/round"
	"lottery-bet-bot/internal/rule"
)

// placeBets runs the betting orchestration for one opened round: every
// enabled scheme bound to the group, across all running users, gets its
// draw rule and progression evaluated and an order built. A scheme failure
// never blocks the others.
func (s *Service) placeBets(ctx context.Context, grc *round.Context, roundID string) error {
	schemes, err := s.schemes.ListByGroup(ctx, grc.GroupID)
	if err != nil {
		return fmt.Errorf("load schemes for group %d: %w", grc.GroupID, err)
	}

	history := grc.History()

	// Group schemes per owning user, preserving configured order.
	userOrder := make([]int64, 0, len(schemes))
	byUser := make(map[int64][]*model.Scheme)
	for _, sc := range schemes {
		if _, ok := byUser[sc.UserID]; !ok {
			userOrder = append(userOrder, sc.UserID)
		}
		byUser[sc.UserID] = append(byUser[sc.UserID], sc)
	}

	for _, userID := range userOrder {
		running, simulation, logs := s.userSnapshot(userID)
		if !running {
			continue
		}

		var live []*model.BetOrder
		for _, sc := range byUser[userID] {
			if !sc.Enabled {
				continue
			}
			order := s.decide(ctx, sc, history, roundID, simulation, logs)
			if order == nil {
				continue
			}
			if order.IsSimulation {
				order.Status = model.OrderConfirmed
				if err := s.orders.Create(ctx, order); err != nil {
					log.Error().Err(err).
						Int64("user_id", userID).
						Str("scheme_id", sc.ID).
						Msg("persist simulated order")
					continue
				}
				s.logUser(logs, fmt.Sprintf("[%s] 模拟下注 %s %.2f", roundID,
					strings.Join(order.Targets, "/"), order.Amount))
				continue
			}
			live = append(live, order)
		}

		if len(live) > 0 {
			s.sendOrders(ctx, userID, grc.GroupID, roundID, live, logs)
		}
	}
	return nil
}

// decide evaluates one scheme's rule and progression for the round and
// builds its order. Returns nil when the scheme does not bet; configuration
// errors disable only this scheme's decision, logged and skipped.
func (s *Service) decide(ctx context.Context, sc *model.Scheme, history []model.LotteryRecord,
	roundID string, simulation bool, logs *LogRing) *model.BetOrder {

	r, err := rule.Decode(sc.RuleKind, sc.RuleState)
	if err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("rule state rejected")
		s.logUser(logs, fmt.Sprintf("[%s] 方案 %s 规则配置无效", roundID, sc.Name))
		return nil
	}

	env := &rule.Env{Game: sc.GameType, History: history}
	targets := r.Next(env)

	// Persist the automaton's advance before anything can fail downstream.
	if r.Dirty() {
		raw, err := rule.Encode(r)
		if err == nil {
			sc.RuleState = raw
			err = s.schemes.Update(ctx, sc)
		}
		if err != nil {
			log.Error().Err(err).Str("scheme_id", sc.ID).Msg("persist rule state")
			return nil
		}
	}

	if len(targets) == 0 {
		log.Debug().Str("scheme_id", sc.ID).Str("round_id", roundID).Msg("rule produced no bet")
		return nil
	}

	o, err := odds.Decode(sc.OddsKind, sc.OddsState)
	multiplier := 1.0
	if err != nil {
		log.Error().Err(err).Str("scheme_id", sc.ID).Msg("odds state rejected, using multiplier 1")
	} else {
		multiplier = o.Multiplier()
	}

	return &model.BetOrder{
		ID:           uuid.NewString(),
		UserID:       sc.UserID,
		SchemeID:     sc.ID,
		GroupID:      sc.GroupID,
		RoundID:      roundID,
		GameType:     sc.GameType,
		Targets:      targets,
		Amount:       multiplier * float64(len(targets)),
		Status:       model.OrderPending,
		IsSimulation: simulation || sc.PlayMode == model.PlayModeTrial,
		CreatedAt:    time.Now(),
	}
}

// sendLockWait bounds how long one group's send waits while the same user's
// sends from other groups drain.
const sendLockWait = 30 * time.Second

// sendOrders folds a user's live orders for the round into one outbound
// message, applies the randomized send delay and delivers it, then persists
// the orders as confirmed or failed. Sends for one user are serialized
// across groups so the jittered deliveries never interleave.
func (s *Service) sendOrders(ctx context.Context, userID, groupID int64, roundID string,
	orders []*model.BetOrder, logs *LogRing) {

	text := formatOrders(roundID, orders)

	status := model.OrderConfirmed
	err := s.sendLocks.WithLockContext(ctx, strconv.FormatInt(userID, 10), sendLockWait, func() error {
		if d := s.sendDelay(); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
		}
		_, err := s.sender.Send(ctx, userID, groupID, text)
		return err
	})
	if err != nil {
		status = model.OrderFailed
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("round_id", roundID).
			Msg("bet message send failed")
		s.logUser(logs, fmt.Sprintf("[%s] 下注消息发送失败: %v", roundID, err))
		s.notifier.Notify(userID, notify.KindError, map[string]any{
			"round_id": roundID,
			"error":    err.Error(),
		})
	}

	for _, o := range orders {
		o.Status = status
		if err := s.orders.Create(ctx, o); err != nil {
			log.Error().Err(err).
				Int64("user_id", userID).
				Str("order_id", o.ID).
				Msg("persist order")
			continue
		}
		if status == model.OrderConfirmed {
			s.logUser(logs, fmt.Sprintf("[%s] 下注 %s %.2f", roundID,
				strings.Join(o.Targets, "/"), o.Amount))
		}
	}
}

// sendDelay picks a randomized delay between the configured bounds.
func (s *Service) sendDelay() time.Duration {
	min := s.cfg.Engine.SendDelayMin
	max := s.cfg.Engine.SendDelayMax
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// formatOrders builds the outbound bet text for one round.
func formatOrders(roundID string, orders []*model.BetOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "第%s期\n", roundID)
	for _, o := range orders {
		fmt.Fprintf(&b, "%s %.2f\n", strings.Join(o.Targets, "/"), o.Amount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) logUser(logs *LogRing, line string) {
	if logs != nil {
		logs.Append(line)
	}
}
