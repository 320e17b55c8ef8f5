package copytrade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypher/internal/config"
	"cypher/internal/gateway/exchange"
	"cypher/internal/store/journal"
)

type fakeFutures struct {
	balance   exchange.Balance
	positions []exchange.Position

	opened      []exchange.OpenRequest
	closed      []exchange.CloseRequest
	transferred []float64
}

func (f *fakeFutures) Name() string { return "fake" }

func (f *fakeFutures) Balance(ctx context.Context) (exchange.Balance, error) {
	return f.balance, nil
}

func (f *fakeFutures) ListOpenPositions(ctx context.Context) ([]exchange.Position, error) {
	return f.positions, nil
}

func (f *fakeFutures) Open(ctx context.Context, req exchange.OpenRequest) (*exchange.OpenResult, error) {
	f.opened = append(f.opened, req)
	return &exchange.OpenResult{EntryPrice: 0, Quantity: req.Quantity}, nil
}

func (f *fakeFutures) Close(ctx context.Context, req exchange.CloseRequest) error {
	f.closed = append(f.closed, req)
	return nil
}

func (f *fakeFutures) ReplaceStopLoss(ctx context.Context, symbol string, side exchange.Side, trigger float64) error {
	return nil
}

func (f *fakeFutures) Transfer(ctx context.Context, asset string, amount float64, wallet string) error {
	f.transferred = append(f.transferred, amount)
	return nil
}

type memLedger struct {
	fees []journal.FeeRecord
	hwm  map[string]float64
}

func newMemLedger() *memLedger { return &memLedger{hwm: make(map[string]float64)} }

func (l *memLedger) AddFee(ctx context.Context, rec journal.FeeRecord) error {
	l.fees = append(l.fees, rec)
	return nil
}

func (l *memLedger) HighWater(ctx context.Context, follower string) (float64, error) {
	return l.hwm[follower], nil
}

func (l *memLedger) SetHighWater(ctx context.Context, follower string, value float64) error {
	if value > l.hwm[follower] {
		l.hwm[follower] = value
	}
	return nil
}

func copyCfg() config.CopyTradeConfig {
	return config.CopyTradeConfig{
		Enabled:       true,
		FeePct:        0.24,
		AllocScalpPct: 0.25,
		Followers: []config.FollowerConfig{
			{Name: "alice", APIKey: "k", APISecret: "s", Enabled: true},
		},
	}
}

func newTestMirror(t *testing.T, master, followerFut *fakeFutures, ledger FeeLedger) *Mirror {
	t.Helper()
	m, err := New(copyCfg(), master, ledger, "0xfee", func(config.FollowerConfig) (exchange.Futures, error) {
		return followerFut, nil
	})
	require.NoError(t, err)
	return m
}

func TestSyncMirrorsMasterEntry(t *testing.T) {
	master := &fakeFutures{
		balance: exchange.Balance{Total: 1000, Available: 1000},
		positions: []exchange.Position{{
			Symbol:     "BTCUSDT",
			Side:       exchange.SideLong,
			Quantity:   0.04,
			EntryPrice: 50000,
			MarkPrice:  50000,
			Leverage:   10,
			StopLoss:   49000,
			TakeProfit: 52000,
		}},
	}
	follower := &fakeFutures{balance: exchange.Balance{Total: 200, Available: 200}}
	ledger := newMemLedger()
	m := newTestMirror(t, master, follower, ledger)

	require.NoError(t, m.SyncOnce(context.Background()))

	// 名义占比 200% 被截到 10%，按跟单资金 200*0.25=50 -> $5 名义
	require.Len(t, follower.opened, 1)
	req := follower.opened[0]
	assert.Equal(t, "BTCUSDT", req.Symbol)
	assert.Equal(t, exchange.SideLong, req.Side)
	assert.InDelta(t, 5.0/50000, req.Quantity, 1e-9)
	assert.Equal(t, 10, req.Leverage)
	assert.InDelta(t, 49000, req.StopLoss, 1e-9)

	// 首轮落高水位，不收绩效费；交易费 5*0.5%=0.025
	assert.InDelta(t, 200, ledger.hwm["alice"], 1e-9)
	require.Len(t, ledger.fees, 1)
	assert.Equal(t, journal.FeeKindTrade, ledger.fees[0].Kind)
	assert.InDelta(t, 0.025, ledger.fees[0].AmountUSD, 1e-9)

	stats := m.Stats()
	assert.Equal(t, 1, stats.TradesCopied)
	assert.Equal(t, 1, stats.Syncs)
}

func TestSyncClosesAbandonedPosition(t *testing.T) {
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}}
	follower := &fakeFutures{
		balance: exchange.Balance{Total: 200},
		positions: []exchange.Position{{
			Symbol:   "ETHUSDT",
			Side:     exchange.SideShort,
			Quantity: 0.5,
		}},
	}
	m := newTestMirror(t, master, follower, newMemLedger())

	require.NoError(t, m.SyncOnce(context.Background()))

	require.Len(t, follower.closed, 1)
	assert.Equal(t, "ETHUSDT", follower.closed[0].Symbol)
	assert.Equal(t, exchange.SideShort, follower.closed[0].Side)
	assert.Empty(t, follower.opened)
}

func TestSyncSkipsAlreadyMirrored(t *testing.T) {
	pos := exchange.Position{
		Symbol: "BTCUSDT", Side: exchange.SideLong, Quantity: 0.01,
		EntryPrice: 50000, MarkPrice: 50000,
	}
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}, positions: []exchange.Position{pos}}
	follower := &fakeFutures{balance: exchange.Balance{Total: 200}, positions: []exchange.Position{pos}}
	m := newTestMirror(t, master, follower, newMemLedger())

	require.NoError(t, m.SyncOnce(context.Background()))
	assert.Empty(t, follower.opened)
	assert.Empty(t, follower.closed)
}

func TestPerformanceFeeOnNewHigh(t *testing.T) {
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}}
	follower := &fakeFutures{balance: exchange.Balance{Total: 200, Available: 200}}
	ledger := newMemLedger()
	ledger.hwm["alice"] = 100
	m := newTestMirror(t, master, follower, ledger)

	require.NoError(t, m.SyncOnce(context.Background()))

	// 新高 100 -> 200：24% 绩效费 = $24，并上移高水位
	require.Len(t, ledger.fees, 1)
	assert.Equal(t, journal.FeeKindPerformance, ledger.fees[0].Kind)
	assert.InDelta(t, 24.0, ledger.fees[0].AmountUSD, 1e-9)
	assert.InDelta(t, 200, ledger.hwm["alice"], 1e-9)

	// 首轮同步就触发费用划转
	require.Len(t, follower.transferred, 1)
	assert.InDelta(t, 24.0, follower.transferred[0], 1e-9)
	assert.InDelta(t, 0, m.Stats().PendingFeesUSD, 1e-9)
}

func TestNoPerformanceFeeBelowHighWater(t *testing.T) {
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}}
	follower := &fakeFutures{balance: exchange.Balance{Total: 80, Available: 80}}
	ledger := newMemLedger()
	ledger.hwm["alice"] = 100
	m := newTestMirror(t, master, follower, ledger)

	require.NoError(t, m.SyncOnce(context.Background()))

	assert.Empty(t, ledger.fees)
	assert.InDelta(t, 100, ledger.hwm["alice"], 1e-9)
	assert.Empty(t, follower.transferred)
}

func TestFeeCollectionThrottled(t *testing.T) {
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}}
	follower := &fakeFutures{balance: exchange.Balance{Total: 200, Available: 200}}
	ledger := newMemLedger()
	ledger.hwm["alice"] = 100
	m := newTestMirror(t, master, follower, ledger)

	require.NoError(t, m.SyncOnce(context.Background()))
	require.Len(t, follower.transferred, 1)

	// 一小时内不再划转
	follower.balance.Total = 300
	require.NoError(t, m.SyncOnce(context.Background()))
	assert.Len(t, follower.transferred, 1)
	assert.Greater(t, m.Stats().PendingFeesUSD, 0.0)
}

func TestDisabledMirrorIsNoop(t *testing.T) {
	cfg := copyCfg()
	cfg.Enabled = false
	master := &fakeFutures{balance: exchange.Balance{Total: 1000}}
	m, err := New(cfg, master, newMemLedger(), "0xfee", func(config.FollowerConfig) (exchange.Futures, error) {
		t.Fatal("factory should not run when disabled")
		return nil, nil
	})
	require.NoError(t, err)
	require.NoError(t, m.SyncOnce(context.Background()))
	assert.Equal(t, 0, m.Stats().Followers)
}
