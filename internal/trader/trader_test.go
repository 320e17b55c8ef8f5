package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypher/internal/config"
	"cypher/internal/gateway/exchange"
	"cypher/internal/market"
)

type fakeSource struct {
	prices  map[string]float64
	candles map[string][]market.Candle
}

func (f *fakeSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return f.candles[symbol], nil
}

func (f *fakeSource) TopSymbols(ctx context.Context, count int, minQuoteVolume float64) ([]string, error) {
	return nil, nil
}

func (f *fakeSource) MidPrice(ctx context.Context, symbol string) (float64, error) {
	return f.prices[symbol], nil
}

func (f *fakeSource) Close() error { return nil }

type fakeFutures struct {
	balance   float64
	transfers []float64
	closed    []string
	replaced  []float64
}

func (f *fakeFutures) Name() string { return "fake" }

func (f *fakeFutures) Balance(ctx context.Context) (exchange.Balance, error) {
	return exchange.Balance{Asset: "USDT", Total: f.balance, Available: f.balance}, nil
}

func (f *fakeFutures) ListOpenPositions(ctx context.Context) ([]exchange.Position, error) {
	return nil, nil
}

func (f *fakeFutures) Open(ctx context.Context, req exchange.OpenRequest) (*exchange.OpenResult, error) {
	return &exchange.OpenResult{EntryPrice: 0, Quantity: 0}, nil
}

func (f *fakeFutures) Close(ctx context.Context, req exchange.CloseRequest) error {
	f.closed = append(f.closed, req.Symbol)
	return nil
}

func (f *fakeFutures) ReplaceStopLoss(ctx context.Context, symbol string, side exchange.Side, trigger float64) error {
	f.replaced = append(f.replaced, trigger)
	return nil
}

func (f *fakeFutures) Transfer(ctx context.Context, asset string, amount float64, wallet string) error {
	f.transfers = append(f.transfers, amount)
	return nil
}

func dryRunConfig() *config.Config {
	return &config.Config{
		Trading: config.TradingConfig{
			DryRun:          true,
			Leverage:        10,
			MaxRiskPerTrade: 0.08,
			TrailingStopPct: 0.012,
			StopLossPct:     0.02,
			TakeProfitPct:   0.045,
		},
		Risk: config.RiskConfig{
			MaxDailyLossPct:      25,
			MaxConsecutiveLosses: 2,
			CooldownSeconds:      180,
		},
	}
}

func trackLong(t *Trader, symbol string, entry, sl, tp float64) *trackedPosition {
	p := &trackedPosition{
		Symbol:     symbol,
		Side:       exchange.SideLong,
		Quantity:   1,
		EntryPrice: entry,
		StopLoss:   sl,
		TakeProfit: tp,
		OpenedAt:   time.Now(),
	}
	t.open[symbol] = p
	return p
}

func TestManagePositionsTakeProfit(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"BTCUSDT": 105}}
	tr := New(dryRunConfig(), Deps{Source: src})
	trackLong(tr, "BTCUSDT", 100, 98, 104.5)

	tr.managePositions(context.Background())

	stats := tr.Stats()
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 0, stats.Losses)
	assert.Empty(t, tr.OpenPositions())
	// 干跑模式把盈亏记到模拟余额
	assert.InDelta(t, dryRunStartBalance+5, tr.simBalance, 1e-9)
}

func TestManagePositionsStopLossAndCooldown(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"BTCUSDT": 97, "ETHUSDT": 48}}
	tr := New(dryRunConfig(), Deps{Source: src})
	trackLong(tr, "BTCUSDT", 100, 98, 104.5)
	trackLong(tr, "ETHUSDT", 50, 49, 52)

	tr.managePositions(context.Background())

	stats := tr.Stats()
	assert.Equal(t, 2, stats.Losses)
	assert.Equal(t, 2, stats.ConsecutiveLosses)
	// 连续亏损达到上限后进入冷却
	assert.True(t, stats.CooldownUntil.After(time.Now()))
}

func TestManagePositionsTrailsStop(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"BTCUSDT": 103}}
	tr := New(dryRunConfig(), Deps{Source: src})
	p := trackLong(tr, "BTCUSDT", 100, 98, 104.5)

	tr.managePositions(context.Background())

	require.Len(t, tr.OpenPositions(), 1)
	assert.InDelta(t, 103*(1-0.012), p.StopLoss, 1e-9)
	assert.Equal(t, 0, tr.Stats().Wins)
}

func TestCheckWithdrawal(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Trading.DryRun = false
	cfg.Withdrawal = config.WithdrawalConfig{Enabled: true, Wallet: "0xabc", EveryUSD: 10}
	fut := &fakeFutures{balance: 125}
	tr := New(cfg, Deps{Futures: fut})
	tr.startBalance = 100

	// 利润 $25 -> 划转 $20（每 $10 一档）
	tr.checkWithdrawal(context.Background(), 125)
	require.Len(t, fut.transfers, 1)
	assert.InDelta(t, 20, fut.transfers[0], 1e-9)
	assert.InDelta(t, 20, tr.Stats().TotalWithdrawn, 1e-9)

	// 一分钟内不重复检查
	tr.checkWithdrawal(context.Background(), 140)
	assert.Len(t, fut.transfers, 1)
}

func TestDailyLossHalt(t *testing.T) {
	tr := New(dryRunConfig(), Deps{})
	tr.startBalance = 100

	assert.False(t, tr.dailyLossExceeded(90))
	assert.True(t, tr.dailyLossExceeded(70))
	assert.True(t, tr.Stats().DailyHalted)

	// 回撤收窄后解除暂停
	assert.False(t, tr.dailyLossExceeded(95))
	assert.False(t, tr.Stats().DailyHalted)
}

func TestScanListMergesExtrasAndDedupes(t *testing.T) {
	cfg := dryRunConfig()
	cfg.Market.Pairs = []string{"BTCUSDT", "ethusdt"}
	cfg.Market.ExtraPairs = []string{"XAUUSDT", "BTCUSDT"}
	tr := New(cfg, Deps{Source: &fakeSource{}})

	got := tr.scanList(context.Background())
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "XAUUSDT"}, got)
}
