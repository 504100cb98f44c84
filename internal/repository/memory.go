package repository

import (
	"context"
	"sync"

	"lottery-bet-bot/internal/model"
)

// Memory is an in-memory implementation of the engine's scheme, order and
// aggregate stores. It backs tests and pure-simulation runs where no
// database is wanted. The Schemes, Orders and Aggregates views satisfy the
// engine store interfaces.
type Memory struct {
	mu         sync.Mutex
	schemes    map[string]*model.Scheme
	schemeSeq  []string // insertion order
	orders     map[string]*model.BetOrder
	orderSeq   []string
	userAggs   map[int64]*model.UserAggregate
	schemeAggs map[string]*model.SchemeAggregate
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		schemes:    make(map[string]*model.Scheme),
		orders:     make(map[string]*model.BetOrder),
		userAggs:   make(map[int64]*model.UserAggregate),
		schemeAggs: make(map[string]*model.SchemeAggregate),
	}
}

// Schemes returns the scheme-store view.
func (m *Memory) Schemes() *MemorySchemes { return &MemorySchemes{m} }

// Orders returns the order-store view.
func (m *Memory) Orders() *MemoryOrders { return &MemoryOrders{m} }

// Aggregates returns the aggregate-store view.
func (m *Memory) Aggregates() *MemoryAggregates { return &MemoryAggregates{m} }

// PutScheme inserts or replaces a scheme.
func (m *Memory) PutScheme(sc *model.Scheme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemes[sc.ID]; !ok {
		m.schemeSeq = append(m.schemeSeq, sc.ID)
	}
	cp := *sc
	m.schemes[sc.ID] = &cp
}

// AllOrders returns copies of all orders in insertion order, optionally
// filtered by round id ("" matches all).
func (m *Memory) AllOrders(roundID string) []*model.BetOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.BetOrder
	for _, id := range m.orderSeq {
		o := m.orders[id]
		if roundID != "" && o.RoundID != roundID {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out
}

// UserAggregate returns a copy of the user's aggregate, zero-valued when
// absent.
func (m *Memory) UserAggregate(userID int64) model.UserAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agg, ok := m.userAggs[userID]; ok {
		return *agg
	}
	return model.UserAggregate{UserID: userID}
}

// SchemeAggregate returns a copy of the scheme's aggregate, zero-valued
// when absent.
func (m *Memory) SchemeAggregate(schemeID string) model.SchemeAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	if agg, ok := m.schemeAggs[schemeID]; ok {
		return *agg
	}
	return model.SchemeAggregate{SchemeID: schemeID}
}

// MemorySchemes is the scheme-store view of Memory.
type MemorySchemes struct{ m *Memory }

// Get retrieves a scheme by id.
func (s *MemorySchemes) Get(_ context.Context, id string) (*model.Scheme, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sc, ok := s.m.schemes[id]
	if !ok {
		return nil, ErrSchemeNotFound
	}
	cp := *sc
	return &cp, nil
}

// ListByGroup retrieves all schemes bound to a group in insertion order.
func (s *MemorySchemes) ListByGroup(_ context.Context, groupID int64) ([]*model.Scheme, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*model.Scheme
	for _, id := range s.m.schemeSeq {
		if sc := s.m.schemes[id]; sc.GroupID == groupID {
			cp := *sc
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Update persists a scheme's mutable fields.
func (s *MemorySchemes) Update(_ context.Context, sc *model.Scheme) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.schemes[sc.ID]; !ok {
		return ErrSchemeNotFound
	}
	cp := *sc
	s.m.schemes[sc.ID] = &cp
	return nil
}

// MemoryOrders is the order-store view of Memory.
type MemoryOrders struct{ m *Memory }

// Create inserts a bet order.
func (r *MemoryOrders) Create(_ context.Context, o *model.BetOrder) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[o.ID]; !ok {
		r.m.orderSeq = append(r.m.orderSeq, o.ID)
	}
	cp := *o
	r.m.orders[o.ID] = &cp
	return nil
}

// Update persists an order's settlement fields.
func (r *MemoryOrders) Update(_ context.Context, o *model.BetOrder) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[o.ID]; !ok {
		return ErrOrderNotFound
	}
	cp := *o
	r.m.orders[o.ID] = &cp
	return nil
}

// ListOpenByRound retrieves pending/confirmed orders of a group round.
func (r *MemoryOrders) ListOpenByRound(_ context.Context, groupID int64, roundID string) ([]*model.BetOrder, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*model.BetOrder
	for _, id := range r.m.orderSeq {
		o := r.m.orders[id]
		if o.GroupID != groupID || o.RoundID != roundID {
			continue
		}
		if o.Status != model.OrderPending && o.Status != model.OrderConfirmed {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

// SchemeProfit sums settled profit across a scheme's orders.
func (r *MemoryOrders) SchemeProfit(_ context.Context, schemeID string) (float64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var total float64
	for _, o := range r.m.orders {
		if o.SchemeID == schemeID && o.Status == model.OrderSettled {
			total += o.Profit
		}
	}
	return total, nil
}

// MemoryAggregates is the aggregate-store view of Memory.
type MemoryAggregates struct{ m *Memory }

// AddUser folds one settled order into the user's aggregate.
func (a *MemoryAggregates) AddUser(_ context.Context, userID int64, profit, turnover float64, simulated bool) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	agg, ok := a.m.userAggs[userID]
	if !ok {
		agg = &model.UserAggregate{UserID: userID}
		a.m.userAggs[userID] = agg
	}
	if simulated {
		agg.TrialProfit += profit
		agg.TrialTurnover += turnover
	} else {
		agg.Profit += profit
		agg.Turnover += turnover
	}
	return nil
}

// AddScheme folds one settled order into the scheme's aggregate.
func (a *MemoryAggregates) AddScheme(_ context.Context, schemeID string, profit, turnover float64, simulated bool) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	agg, ok := a.m.schemeAggs[schemeID]
	if !ok {
		agg = &model.SchemeAggregate{SchemeID: schemeID}
		a.m.schemeAggs[schemeID] = agg
	}
	if simulated {
		agg.TrialProfit += profit
		agg.TrialTurnover += turnover
	} else {
		agg.Profit += profit
		agg.Turnover += turnover
	}
	return nil
}
