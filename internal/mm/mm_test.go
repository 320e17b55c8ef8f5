package mm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypher/internal/config"
	"cypher/internal/gateway/exchange"
)

func mmCfg() config.MMConfig {
	return config.MMConfig{
		Enabled:            true,
		Pairs:              []string{"BTC/USDT"},
		SpreadBps:          10,
		SizeUSD:            11,
		MinBalance:         1,
		AllocPct:           0.30,
		DynamicSpread:      true,
		MinSpreadBps:       3,
		MaxSpreadBps:       50,
		InventoryRebalance: true,
	}
}

func TestEstimateVolatility(t *testing.T) {
	// 价差 0.1% -> 波动率代理 0.2%
	assert.InDelta(t, 0.002, estimateVolatility(99.95, 100.05), 1e-9)
	// 窄盘口托底 0.2%
	assert.InDelta(t, 0.002, estimateVolatility(99.999, 100.001), 1e-9)
	// 无效盘口给默认 0.5%
	assert.InDelta(t, 0.005, estimateVolatility(0, 0), 1e-9)
	// 宽盘口线性放大: 1% 价差 -> 2%
	assert.InDelta(t, 0.02, estimateVolatility(99.5, 100.5), 1e-6)
}

func TestDynamicSpread(t *testing.T) {
	cfg := mmCfg()
	// 基准波动 0.5% -> 原价差
	assert.InDelta(t, 10, dynamicSpread(cfg, 10, 0.005), 1e-9)
	// 高波动加宽, 低波动收窄但不低于 0.5 倍
	assert.InDelta(t, 20, dynamicSpread(cfg, 10, 0.01), 1e-9)
	assert.InDelta(t, 5, dynamicSpread(cfg, 10, 0.001), 1e-9)
	// 上限截断
	assert.InDelta(t, 50, dynamicSpread(cfg, 10, 0.05), 1e-9)
	// 关闭动态价差时原样返回
	cfg.DynamicSpread = false
	assert.InDelta(t, 10, dynamicSpread(cfg, 10, 0.05), 1e-9)
}

func TestInventorySkew(t *testing.T) {
	cfg := mmCfg()

	bid, ask := inventorySkew(cfg, 0)
	assert.Equal(t, [2]float64{-1, 2}, [2]float64{bid, ask})

	bid, ask = inventorySkew(cfg, 11)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{bid, ask})

	bid, ask = inventorySkew(cfg, 30)
	assert.Equal(t, [2]float64{3, -2}, [2]float64{bid, ask})

	bid, ask = inventorySkew(cfg, 2)
	assert.Equal(t, [2]float64{-2, 3}, [2]float64{bid, ask})

	cfg.InventoryRebalance = false
	bid, ask = inventorySkew(cfg, 30)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{bid, ask})
}

func TestSplitPair(t *testing.T) {
	base, quote := splitPair("BTC/USDT")
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "USDT", quote)

	base, quote = splitPair("ethusdc")
	assert.Equal(t, "ETH", base)
	assert.Equal(t, "USDC", quote)
}

type fakeSpot struct {
	bid, ask  float64
	balances  map[string][2]float64
	placed    []exchange.SpotOrder
	cancelled []string
}

func (f *fakeSpot) MidPrice(ctx context.Context, pair string) (float64, error) {
	return (f.bid + f.ask) / 2, nil
}

func (f *fakeSpot) BookTop(ctx context.Context, pair string) (float64, float64, error) {
	return f.bid, f.ask, nil
}

func (f *fakeSpot) AssetBalance(ctx context.Context, asset string) (float64, float64, error) {
	b := f.balances[asset]
	return b[0], b[1], nil
}

func (f *fakeSpot) PlaceLimit(ctx context.Context, order exchange.SpotOrder) (string, error) {
	f.placed = append(f.placed, order)
	return "1", nil
}

func (f *fakeSpot) OpenOrders(ctx context.Context, pair string) ([]exchange.SpotOrder, error) {
	return nil, nil
}

func (f *fakeSpot) CancelOpenOrders(ctx context.Context, pair string) error {
	f.cancelled = append(f.cancelled, pair)
	return nil
}

func TestRunCyclePlacesBothSides(t *testing.T) {
	spot := &fakeSpot{
		bid: 99.95,
		ask: 100.05,
		balances: map[string][2]float64{
			"USDT": {100, 0},
			"BTC":  {0.2, 0},
		},
	}
	m := New(mmCfg(), spot, nil)

	require.NoError(t, m.RunCycle(context.Background(), "scheduled"))

	assert.Equal(t, []string{"BTC/USDT"}, spot.cancelled)
	require.Len(t, spot.placed, 2)

	buy, sell := spot.placed[0], spot.placed[1]
	assert.Equal(t, "buy", buy.Side)
	assert.Equal(t, "sell", sell.Side)
	assert.Less(t, buy.Price, 100.0)
	assert.Greater(t, sell.Price, 100.0)
	// 买单名义 >= $11
	assert.GreaterOrEqual(t, buy.Price*buy.Quantity, 11.0)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Cycles)
	assert.Equal(t, "scheduled", stats.LastReason)
}

func TestRunCycleSkipsWhenBroke(t *testing.T) {
	spot := &fakeSpot{
		bid:      99.95,
		ask:      100.05,
		balances: map[string][2]float64{"USDT": {0.2, 0}},
	}
	cfg := mmCfg()
	cfg.MinBalance = 1
	m := New(cfg, spot, nil)

	require.NoError(t, m.RunCycle(context.Background(), "idle-fallback"))
	assert.Empty(t, spot.placed)
}

func TestRunCycleDisabled(t *testing.T) {
	cfg := mmCfg()
	cfg.Enabled = false
	m := New(cfg, &fakeSpot{}, nil)
	require.NoError(t, m.RunCycle(context.Background(), "scheduled"))
	assert.Equal(t, 0, m.Stats().Cycles)
}
