package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func logClosedTrade(t *testing.T, j *Journal, symbol string, pnl float64, win bool) {
	t.Helper()
	ctx := context.Background()
	_, err := j.LogTradeOpen(ctx, TradeRecord{Symbol: symbol, Direction: "LONG", EntryPrice: 100, SizeUSD: 20})
	require.NoError(t, err)
	require.NoError(t, j.LogTradeClose(ctx, symbol, 101, pnl, win))
}

func TestTradeOpenCloseRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	id, err := j.LogTradeOpen(ctx, TradeRecord{
		Symbol:     "btcusdt",
		Direction:  "LONG",
		EntryPrice: 64000,
		SizeUSD:    25,
		Leverage:   10,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	require.NoError(t, j.LogTradeClose(ctx, "BTCUSDT", 64500, 1.2, true))

	trades, err := j.RecentTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "BTCUSDT", trades[0].Symbol)
	assert.Equal(t, ResultWin, trades[0].Result)
	assert.InDelta(t, 1.2, trades[0].PnLUSD, 1e-9)
	assert.InDelta(t, 64500, trades[0].ExitPrice, 1e-9)
}

func TestTradeCloseWithoutOpenIsNoop(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.LogTradeClose(context.Background(), "ETHUSDT", 3000, -1, false))
}

func TestSignalLogging(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.LogSignal(ctx, SignalRecord{
		Symbol:       "solusdt",
		Direction:    "SHORT",
		Confidence:   0.7,
		Price:        150,
		Approved:     false,
		OracleAction: "SKIP",
		OracleReason: "mixed signals",
	}))

	signals, err := j.RecentSignals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "SOLUSDT", signals[0].Symbol)
	assert.False(t, signals[0].Approved)
	assert.Equal(t, "mixed signals", signals[0].OracleReason)
}

func TestShouldAvoidSymbol(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	// 4 笔亏损：样本不足，不回避
	for i := 0; i < 4; i++ {
		logClosedTrade(t, j, "DOGEUSDT", -0.5, false)
	}
	assert.False(t, j.ShouldAvoidSymbol(ctx, "DOGEUSDT"))

	// 第 5 笔后胜率 0% < 30%
	logClosedTrade(t, j, "DOGEUSDT", -0.5, false)
	assert.True(t, j.ShouldAvoidSymbol(ctx, "DOGEUSDT"))

	assert.False(t, j.ShouldAvoidSymbol(ctx, "BTCUSDT"))
}

func TestConfidenceAdjustment(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	assert.InDelta(t, 1.0, j.ConfidenceAdjustment(ctx, "BTCUSDT"), 1e-9)

	// 3W1L = 75% 胜率
	for i := 0; i < 3; i++ {
		logClosedTrade(t, j, "BTCUSDT", 1, true)
	}
	logClosedTrade(t, j, "BTCUSDT", -1, false)
	assert.InDelta(t, 1.3, j.ConfidenceAdjustment(ctx, "BTCUSDT"), 1e-9)

	// 1W4L = 20% 胜率
	logClosedTrade(t, j, "ETHUSDT", 1, true)
	for i := 0; i < 4; i++ {
		logClosedTrade(t, j, "ETHUSDT", -1, false)
	}
	assert.InDelta(t, 0.5, j.ConfidenceAdjustment(ctx, "ETHUSDT"), 1e-9)
}

func TestFeesAndHighWater(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.AddFee(ctx, FeeRecord{Follower: "alice", Kind: FeeKindTrade, AmountUSD: 0.2}))
	require.NoError(t, j.AddFee(ctx, FeeRecord{Follower: "alice", Kind: FeeKindPerformance, AmountUSD: 1.5}))
	require.NoError(t, j.AddFee(ctx, FeeRecord{Follower: "bob", Kind: FeeKindTrade, AmountUSD: 0.1}))

	total, err := j.TotalFees(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 1.7, total, 1e-9)

	all, err := j.TotalFees(ctx, "")
	require.NoError(t, err)
	assert.InDelta(t, 1.8, all, 1e-9)

	require.Error(t, j.AddFee(ctx, FeeRecord{Follower: "alice", AmountUSD: 0}))

	hw, err := j.HighWater(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, hw)

	require.NoError(t, j.SetHighWater(ctx, "alice", 120))
	require.NoError(t, j.SetHighWater(ctx, "alice", 100))
	hw, err = j.HighWater(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 120, hw, 1e-9)
}

func TestSummary(t *testing.T) {
	j := openTestJournal(t)
	logClosedTrade(t, j, "BTCUSDT", 2, true)
	logClosedTrade(t, j, "BTCUSDT", -1, false)

	s := j.Summary(context.Background())
	assert.Contains(t, s, "2 trades")
	assert.Contains(t, s, "1W/1L")
	assert.Contains(t, s, "$1.00")
}
