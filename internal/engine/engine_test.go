package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottery-bet-bot/internal/config"
	"lottery-bet-bot/internal/model"
	"lottery-bet-bot/internal/notify"
	"lottery-bet-bot/internal/repository"
	"lottery-bet-bot/internal/rule"
	"lottery-bet-bot/internal/transport"
)

const testGroup int64 = 42

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{HistoryCap: 200, LogCap: 100},
	}
}

// fakeSender records outbound texts and can be told to fail.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSender) Send(_ context.Context, _, _ int64, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("gateway unavailable")
	}
	f.sent = append(f.sent, text)
	return "msg-1", nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// collectNotifier records notification kinds per user.
type collectNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (c *collectNotifier) Notify(_ int64, kind string, _ map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = append(c.kinds, kind)
}

func (c *collectNotifier) has(kind string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func newTestService(mem *repository.Memory, sender transport.Sender, notifier notify.Notifier) *Service {
	if sender == nil {
		sender = &fakeSender{}
	}
	return New(testConfig(), mem.Schemes(), mem.Orders(), mem.Aggregates(), sender, notifier)
}

func fixedScheme(id string, userID int64, targets ...string) *model.Scheme {
	tj, _ := json.Marshal(map[string]any{"targets": targets})
	return &model.Scheme{
		ID:        id,
		UserID:    userID,
		GroupID:   testGroup,
		Name:      "方案" + id,
		GameType:  "dice",
		PlayMode:  model.PlayModeLive,
		RuleKind:  rule.KindFixed,
		OddsKind:  "flat",
		RuleState: tj,
		Enabled:   true,
	}
}

func TestOpenPlacesSimulatedOrder(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	sender := &fakeSender{}
	svc := newTestService(mem, sender, &collectNotifier{})
	svc.StartUser(7, true)

	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "第101期 开始投注"))

	orders := mem.AllOrders("101")
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, model.OrderConfirmed, o.Status)
	assert.True(t, o.IsSimulation)
	assert.Equal(t, []string{"big"}, o.Targets)
	assert.Equal(t, 1.0, o.Amount)
	assert.Empty(t, sender.texts(), "simulated orders bypass the transport")

	logs := svc.UserLogs(7)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[len(logs)-1], "模拟下注")
}

func TestOpenSendsLiveOrders(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	mem.PutScheme(fixedScheme("s2", 7, "odd"))
	sender := &fakeSender{}
	svc := newTestService(mem, sender, &collectNotifier{})
	svc.StartUser(7, false)

	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "第101期 开始投注"))

	// Both orders fold into one outbound message.
	require.Equal(t, []string{"第101期\nbig 1.00\nodd 1.00"}, sender.texts())
	orders := mem.AllOrders("101")
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, model.OrderConfirmed, o.Status)
		assert.False(t, o.IsSimulation)
	}
}

func TestSendFailureMarksOrdersFailed(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	var kinds []string
	notifier := notify.NotifierFunc(func(_ int64, kind string, _ map[string]any) {
		kinds = append(kinds, kind)
	})
	svc := newTestService(mem, &fakeSender{fail: true}, notifier)
	svc.StartUser(7, false)

	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "第101期 开始投注"))

	orders := mem.AllOrders("101")
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderFailed, orders[0].Status)
	assert.Equal(t, []string{notify.KindError}, kinds)
}

func TestDuplicateOpenPlacesOnce(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	svc := newTestService(mem, nil, &collectNotifier{})
	svc.StartUser(7, true)

	ctx := context.Background()
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	assert.Len(t, mem.AllOrders("101"), 1)

	// The round stays closed after its result too.
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开奖结果：5"))
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	assert.Len(t, mem.AllOrders("101"), 1)
}

// TestSendsSerializedPerUser drives two groups concurrently for one user and
// checks the transport never sees overlapping sends.
func TestSendsSerializedPerUser(t *testing.T) {
	mem := repository.NewMemory()
	sc1 := fixedScheme("s1", 7, "big")
	sc2 := fixedScheme("s2", 7, "small")
	sc2.GroupID = testGroup + 1
	mem.PutScheme(sc1)
	mem.PutScheme(sc2)

	var inFlight, maxInFlight int32
	sender := transport.SenderFunc(func(_ context.Context, _, _ int64, _ string) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		atomic.AddInt32(&inFlight, -1)
		return "", nil
	})
	svc := newTestService(mem, sender, &collectNotifier{})
	svc.StartUser(7, false)

	var wg sync.WaitGroup
	for _, g := range []int64{testGroup, testGroup + 1} {
		wg.Add(1)
		go func(groupID int64) {
			defer wg.Done()
			assert.NoError(t, svc.HandleMessage(context.Background(), groupID, "第101期 开始投注"))
		}(g)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Len(t, mem.AllOrders("101"), 2)
}

func TestStoppedUserPlacesNothing(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	svc := newTestService(mem, nil, &collectNotifier{})

	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "第101期 开始投注"))
	assert.Empty(t, mem.AllOrders(""))
}

func TestBadRuleStateSkipsOnlyThatScheme(t *testing.T) {
	mem := repository.NewMemory()
	bad := fixedScheme("s1", 7, "big")
	bad.RuleKind = "no_such_rule"
	mem.PutScheme(bad)
	mem.PutScheme(fixedScheme("s2", 7, "small"))
	svc := newTestService(mem, nil, &collectNotifier{})
	svc.StartUser(7, true)

	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "第101期 开始投注"))

	orders := mem.AllOrders("101")
	require.Len(t, orders, 1)
	assert.Equal(t, "s2", orders[0].SchemeID)
}

// TestSettlement exercises the partial-match payout math: two targets, one
// hit, amount staked through a sequence multiplier of 5.
func TestSettlement(t *testing.T) {
	mem := repository.NewMemory()
	sc := fixedScheme("s1", 7, "big", "even")
	sc.OddsKind = "sequence"
	sc.OddsState = json.RawMessage(`{"values":[5,7],"mode":"on_win"}`)
	mem.PutScheme(sc)
	notifier := &collectNotifier{}
	svc := newTestService(mem, nil, notifier)
	svc.StartUser(7, true)

	ctx := context.Background()
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开奖结果：5"))

	orders := mem.AllOrders("101")
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, model.OrderSettled, o.Status)
	assert.Equal(t, "5", o.OpenResult)
	assert.Equal(t, 10.0, o.Amount)
	// One of two targets hit: 1/2 * 10 * 1.95.
	assert.InDelta(t, 9.75, o.Payout, 1e-9)
	assert.InDelta(t, -0.25, o.Profit, 1e-9)
	assert.True(t, o.IsWin)
	require.NotNil(t, o.SettledAt)

	agg := mem.UserAggregate(7)
	assert.InDelta(t, -0.25, agg.TrialProfit, 1e-9)
	assert.InDelta(t, 10.0, agg.TrialTurnover, 1e-9)
	assert.Zero(t, agg.Profit)

	sagg := mem.SchemeAggregate("s1")
	assert.InDelta(t, -0.25, sagg.TrialProfit, 1e-9)

	// The winning outcome advanced the on_win sequence to its next value.
	got, err := mem.Schemes().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, string(got.OddsState), `"index":1`)

	assert.True(t, notifier.has(notify.KindSettlement))
	logs := svc.UserLogs(7)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[len(logs)-1], "开奖")
}

func TestDuplicateAnnouncementSettlesOnce(t *testing.T) {
	mem := repository.NewMemory()
	mem.PutScheme(fixedScheme("s1", 7, "big"))
	svc := newTestService(mem, nil, &collectNotifier{})
	svc.StartUser(7, true)

	ctx := context.Background()
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开奖结果：6"))

	before := mem.UserAggregate(7)
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开奖结果：6"))

	assert.Equal(t, before, mem.UserAggregate(7))
	assert.Len(t, svc.GroupHistory(testGroup), 1)
}

func TestStopLossDisablesScheme(t *testing.T) {
	mem := repository.NewMemory()
	sc := fixedScheme("s1", 7, "small")
	sc.OddsKind = "sequence"
	sc.OddsState = json.RawMessage(`{"values":[10]}`)
	sc.StopLoss = 5
	mem.PutScheme(sc)
	notifier := &collectNotifier{}
	svc := newTestService(mem, nil, notifier)
	svc.StartUser(7, true)

	ctx := context.Background()
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))
	// Result 6 is big: the 10-unit bet on small loses outright.
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开奖结果：6"))

	got, err := mem.Schemes().Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.True(t, notifier.has(notify.KindRiskControl))

	// Disabled schemes sit out the next round.
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第102期 开始投注"))
	assert.Empty(t, mem.AllOrders("102"))
}

// TestRuleStatePersistedOnAdvance: a sequence rule that arms during bet
// placement has its state document written back before the order goes out.
func TestRuleStatePersistedOnAdvance(t *testing.T) {
	mem := repository.NewMemory()
	sc := fixedScheme("s1", 7)
	sc.RuleKind = rule.KindResultFollow
	sc.RuleState = json.RawMessage(`{"zero":"big","one":"small","on_zero":"11"}`)
	mem.PutScheme(sc)
	svc := newTestService(mem, nil, &collectNotifier{})
	svc.StartUser(7, true)

	ctx := context.Background()
	// Seed one result so the rule has something to follow.
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第100期 开奖结果：5"))
	require.NoError(t, svc.HandleMessage(ctx, testGroup, "第101期 开始投注"))

	orders := mem.AllOrders("101")
	require.Len(t, orders, 1)
	assert.Equal(t, []string{"small"}, orders[0].Targets)

	got, err := mem.Schemes().Get(ctx, "s1")
	require.NoError(t, err)
	r, err := rule.Decode(rule.KindResultFollow, got.RuleState)
	require.NoError(t, err)
	rf := r.(*rule.ResultFollow)
	assert.Equal(t, "11", rf.Active)
	assert.Equal(t, 1, rf.Step)
}

func TestUnrecognizedMessageIsDropped(t *testing.T) {
	mem := repository.NewMemory()
	svc := newTestService(mem, nil, &collectNotifier{})
	require.NoError(t, svc.HandleMessage(context.Background(), testGroup, "大家好"))
	assert.Empty(t, mem.AllOrders(""))
	assert.Empty(t, svc.GroupHistory(testGroup))
}
