// Package engine orchestrates the betting lifecycle: it classifies inbound
// group messages, places orders for every enabled scheme when a round opens,
// and settles pending orders when the result is announced. Events for one
// group are processed strictly in arrival order; different groups run in
// parallel.
package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"lottery-bet-bot/internal/config"
	"lottery-bet-bot/internal/model"
	"lottery-bet-bot/internal/notify"
	"lottery-bet-bot/internal/pkg/lock"
	"lottery-bet-bot/internal/round"
	"lottery-bet-bot/internal/transport"
)

// SchemeStore persists scheme records, including their mutable rule/odds
// state documents.
type SchemeStore interface {
	ListByGroup(ctx context.Context, groupID int64) ([]*model.Scheme, error)
	Get(ctx context.Context, id string) (*model.Scheme, error)
	Update(ctx context.Context, s *model.Scheme) error
}

// OrderStore persists bet orders.
type OrderStore interface {
	Create(ctx context.Context, o *model.BetOrder) error
	Update(ctx context.Context, o *model.BetOrder) error
	// ListOpenByRound returns the group's orders for a round still in
	// pending or confirmed status.
	ListOpenByRound(ctx context.Context, groupID int64, roundID string) ([]*model.BetOrder, error)
	// SchemeProfit sums the settled profit of a scheme's orders.
	SchemeProfit(ctx context.Context, schemeID string) (float64, error)
}

// AggregateStore accumulates user and scheme profit/turnover.
type AggregateStore interface {
	AddUser(ctx context.Context, userID int64, profit, turnover float64, simulated bool) error
	AddScheme(ctx context.Context, schemeID string, profit, turnover float64, simulated bool) error
}

// Service is the decision-and-settlement engine. It owns the map of group
// round contexts and the per-user running/simulation flags and log buffers.
type Service struct {
	cfg      *config.Config
	schemes  SchemeStore
	orders   OrderStore
	aggs     AggregateStore
	sender   transport.Sender
	notifier notify.Notifier

	groupLocks *lock.KeyedLock
	sendLocks  *lock.KeyedLock

	mu     sync.Mutex
	groups map[int64]*round.Context
	users  map[int64]*userState
}

// userState carries one user's runtime flags and log ring. Guarded by the
// service mutex for flag flips; the ring synchronizes itself.
type userState struct {
	running    bool
	simulation bool
	logs       *LogRing
}

// New creates the engine service.
func New(cfg *config.Config, schemes SchemeStore, orders OrderStore, aggs AggregateStore,
	sender transport.Sender, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.Log{}
	}
	return &Service{
		cfg:        cfg,
		schemes:    schemes,
		orders:     orders,
		aggs:       aggs,
		sender:     sender,
		notifier:   notifier,
		groupLocks: lock.New(),
		sendLocks:  lock.New(),
		groups:     make(map[int64]*round.Context),
		users:      make(map[int64]*userState),
	}
}

// StartUser enables event processing for a user. Simulation routes the
// user's orders past the transport.
func (s *Service) StartUser(userID int64, simulation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.userLocked(userID)
	st.running = true
	st.simulation = simulation
}

// StopUser disables further event processing for a user. In-flight
// settlement batches run to completion.
func (s *Service) StopUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(userID).running = false
}

// SetSimulation flips a user's simulation flag.
func (s *Service) SetSimulation(userID int64, simulation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userLocked(userID).simulation = simulation
}

// UserLogs returns a snapshot of the user's most recent log lines.
func (s *Service) UserLogs(userID int64) []string {
	s.mu.Lock()
	st, ok := s.users[userID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return st.logs.Snapshot()
}

// GroupHistory returns a copy of a group's result history, most-recent-first.
func (s *Service) GroupHistory(groupID int64) []model.LotteryRecord {
	s.mu.Lock()
	grc, ok := s.groups[groupID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	var history []model.LotteryRecord
	s.groupLocks.WithLock(groupKey(groupID), func() error {
		history = grc.History()
		return nil
	})
	return history
}

// userLocked returns the user's state, creating it stopped. Caller holds mu.
func (s *Service) userLocked(userID int64) *userState {
	st, ok := s.users[userID]
	if !ok {
		st = &userState{logs: NewLogRing(s.cfg.Engine.LogCap)}
		s.users[userID] = st
	}
	return st
}

// userSnapshot reads a user's flags and ring under the service mutex.
func (s *Service) userSnapshot(userID int64) (running, simulation bool, logs *LogRing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		return false, false, nil
	}
	return st.running, st.simulation, st.logs
}

// groupContext returns the group's round context, creating it on first use.
// Only creation/lookup is guarded; per-event processing is serialized by the
// group lock instead.
func (s *Service) groupContext(groupID int64) *round.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	grc, ok := s.groups[groupID]
	if !ok {
		grc = round.NewContext(groupID, s.cfg.Engine.HistoryCap)
		s.groups[groupID] = grc
	}
	return grc
}

func groupKey(groupID int64) string {
	return strconv.FormatInt(groupID, 10)
}

// HandleMessage classifies one raw group message and processes the
// resulting event. Unrecognized messages are dropped. Processing for the
// same group is serialized; callers may invoke this concurrently for any
// mix of groups.
func (s *Service) HandleMessage(ctx context.Context, groupID int64, raw string) error {
	ev := round.Classify(raw)
	if ev.Kind == round.Unrecognized {
		log.Debug().Int64("group_id", groupID).Msg("unrecognized group message")
		return nil
	}

	return s.groupLocks.WithLock(groupKey(groupID), func() error {
		grc := s.groupContext(groupID)
		switch ev.Kind {
		case round.RoundOpened:
			if !grc.Open(ev.RoundID) {
				log.Warn().
					Int64("group_id", groupID).
					Str("round_id", ev.RoundID).
					Msg("duplicate round open dropped")
				return nil
			}
			log.Info().
				Int64("group_id", groupID).
				Str("round_id", ev.RoundID).
				Msg("round opened")
			return s.placeBets(ctx, grc, ev.RoundID)
		case round.ResultAnnounced:
			if !grc.Announce(ev.RoundID, ev.Result) {
				log.Warn().
					Int64("group_id", groupID).
					Str("round_id", ev.RoundID).
					Msg("duplicate result announcement dropped")
				return nil
			}
			log.Info().
				Int64("group_id", groupID).
				Str("round_id", ev.RoundID).
				Str("result", ev.Result).
				Msg("result announced")
			return s.settle(ctx, grc, ev.RoundID, ev.Result)
		}
		return nil
	})
}
