package trader

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cypher/internal/config"
)

func levelsCfg() config.TradingConfig {
	return config.TradingConfig{
		UseATRStops:     true,
		ATRSLMultiplier: 2.5,
		ATRTPMultiplier: 5.5,
		StopLossPct:     0.020,
		TakeProfitPct:   0.045,
	}
}

func TestLevelsATRBased(t *testing.T) {
	sl, tp := Levels(levelsCfg(), 0.01)
	assert.InDelta(t, 0.025, sl, 1e-9)
	assert.InDelta(t, 0.055, tp, 1e-9)
}

func TestLevelsFloorsAndCaps(t *testing.T) {
	// 低波动：SL 抬到 1.5%，TP 保证 2 倍
	sl, tp := Levels(levelsCfg(), 0.002)
	assert.InDelta(t, 0.015, sl, 1e-9)
	assert.InDelta(t, 0.030, tp, 1e-9)

	// 高波动：SL 封顶 4%，TP 封顶 10%
	sl, tp = Levels(levelsCfg(), 0.03)
	assert.InDelta(t, 0.04, sl, 1e-9)
	assert.InDelta(t, 0.10, tp, 1e-9)
}

func TestLevelsFallbackToFixed(t *testing.T) {
	cfg := levelsCfg()
	cfg.UseATRStops = false
	sl, tp := Levels(cfg, 0.01)
	assert.InDelta(t, 0.020, sl, 1e-9)
	assert.InDelta(t, 0.045, tp, 1e-9)

	// ATR 无效时同样回落固定值
	sl, tp = Levels(levelsCfg(), 0)
	assert.InDelta(t, 0.020, sl, 1e-9)
	assert.InDelta(t, 0.045, tp, 1e-9)
}

func TestPositionSize(t *testing.T) {
	// 100 * 0.08 * 15 = 120
	assert.InDelta(t, 120, PositionSize(100, 0.08, 15), 1e-9)

	// 上限：余额一半的名义 100*0.5*15 = 750
	assert.InDelta(t, 750, PositionSize(100, 0.9, 15), 1e-9)

	// 下限 $11
	assert.InDelta(t, 11, PositionSize(5, 0.08, 10), 1e-9)
}

func TestStopPrices(t *testing.T) {
	sl, tp := StopPrices(100, true, 0.02, 0.045)
	assert.InDelta(t, 98, sl, 1e-9)
	assert.InDelta(t, 104.5, tp, 1e-9)

	sl, tp = StopPrices(100, false, 0.02, 0.045)
	assert.InDelta(t, 102, sl, 1e-9)
	assert.InDelta(t, 95.5, tp, 1e-9)
}

func TestTrailStop(t *testing.T) {
	// 多头：价格上行带动止损上移
	sl, moved := TrailStop(110, 98, true, 0.012)
	assert.True(t, moved)
	assert.InDelta(t, 110*(1-0.012), sl, 1e-9)

	// 价格回落时不回撤止损
	sl, moved = TrailStop(99, sl, true, 0.012)
	assert.False(t, moved)
	assert.InDelta(t, 110*(1-0.012), sl, 1e-9)

	// 空头：价格下行带动止损下移
	sl, moved = TrailStop(90, 102, false, 0.012)
	assert.True(t, moved)
	assert.InDelta(t, 90*(1+0.012), sl, 1e-9)

	// trailing 关闭时不动
	sl, moved = TrailStop(120, 98, true, 0)
	assert.False(t, moved)
	assert.InDelta(t, 98, sl, 1e-9)
}
