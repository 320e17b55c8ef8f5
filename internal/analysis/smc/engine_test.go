package smc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypher/internal/market"
)

// zigzag 构造小实体、宽影线的折线行情：步长 0.1，影线 ±0.15。
// 实体远小于 OB/动能阈值，相邻区间互相覆盖不出缺口，
// 因此只产生摆动结构与 BOS/趋势信号，便于精确断言。
func zigzag(turns []struct {
	to    float64
	steps int
}, start float64) []market.Candle {
	var path []float64
	cur := start
	path = append(path, cur)
	for _, leg := range turns {
		step := (leg.to - cur) / float64(leg.steps)
		for i := 0; i < leg.steps; i++ {
			cur += step
			path = append(path, cur)
		}
	}
	candles := make([]market.Candle, len(path))
	prev := path[0]
	for i, p := range path {
		open := prev
		if i == 0 {
			open = p - 0.04
		}
		// 限制实体最大 0.04，方向跟随路径
		if p >= open && p-open > 0.04 {
			open = p - 0.04
		} else if p < open && open-p > 0.04 {
			open = p + 0.04
		}
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     open,
			High:     p + 0.15,
			Low:      p - 0.15,
			Close:    p,
			Volume:   1,
		}
		prev = p
	}
	return candles
}

// bullishStructure 返回 100 根、高低点同步抬升并在末端突破前高的序列。
func bullishStructure() []market.Candle {
	return zigzag([]struct {
		to    float64
		steps int
	}{
		{101.0, 10},
		{100.4, 6},
		{101.6, 12},
		{101.0, 6},
		{102.2, 12},
		{101.6, 6},
		{102.8, 12},
		{102.2, 6},
		{103.4, 12},
		{102.8, 6},
		{103.9, 11},
	}, 100.0)
}

func flatWindow(n int, price float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     price, High: price, Low: price, Close: price,
			Volume: 1,
		}
	}
	return candles
}

// mirror 以 pivot 为轴反射价格，互换 high/low，用于多空对称性检验。
func mirror(candles []market.Candle, pivot float64) []market.Candle {
	out := make([]market.Candle, len(candles))
	for i, c := range candles {
		out[i] = market.Candle{
			OpenTime: c.OpenTime,
			Open:     pivot - c.Open,
			High:     pivot - c.Low,
			Low:      pivot - c.High,
			Close:    pivot - c.Close,
			Volume:   c.Volume,
		}
	}
	return out
}

func TestAnalyzeInsufficientData(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	res := engine.Analyze(flatWindow(50, 100), SignalNeutral)

	assert.Equal(t, SignalNeutral, res.Signal)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "Insufficient data", res.Details)
	// 短窗口直接短路，不触发任何子检测器
	assert.Nil(t, res.BOS)
	assert.Nil(t, res.OrderBlocks)
	assert.Nil(t, res.FVGs)
}

func TestAnalyzeFlatWindowNoSignals(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	res := engine.Analyze(flatWindow(100, 100), SignalNeutral)

	assert.Equal(t, SignalNeutral, res.Signal)
	assert.Zero(t, res.Confidence)
	assert.Equal(t, "No SMC signals detected", res.Details)
}

func TestAnalyzeDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	window := bullishStructure()

	first := engine.Analyze(window, SignalNeutral)
	second := engine.Analyze(window, SignalNeutral)
	assert.Equal(t, first, second)
}

func TestAnalyzeBullishStructure(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	window := bullishStructure()
	require.Len(t, window, 100)

	res := engine.Analyze(window, SignalNeutral)

	assert.Equal(t, SignalLong, res.Signal)
	assert.Equal(t, TrendBullish, res.Trend)
	require.Len(t, res.BOS, 1)
	assert.Equal(t, BullishBOS, res.BOS[0].Kind)
	assert.Empty(t, res.MSS)
	assert.Empty(t, res.OrderBlocks)
	assert.Empty(t, res.FVGs)
	assert.Empty(t, res.Liquidity)
	// BOS(+2) + 趋势(+1)，单一确认不享受合流加成
	assert.InDelta(t, 0.3, res.Confidence, 1e-12)
}

func TestAnalyzeMirrorSymmetry(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	window := bullishStructure()
	reflected := mirror(window, 204.0)

	bull := engine.Analyze(window, SignalNeutral)
	bear := engine.Analyze(reflected, SignalNeutral)

	assert.Equal(t, SignalLong, bull.Signal)
	assert.Equal(t, SignalShort, bear.Signal)
	assert.Equal(t, bull.Confidence, bear.Confidence)
	assert.Equal(t, len(bull.BOS), len(bear.BOS))
	assert.Equal(t, TrendBearish, bear.Trend)
}

func TestAnalyzeHTFBiasAlignment(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	window := bullishStructure()

	base := engine.Analyze(window, SignalNeutral)
	biased := engine.Analyze(window, SignalLong)

	// HTF 同向 +3：BOS(2)+趋势(1)+HTF(3)=6，仍只有 1 个合流确认
	assert.Greater(t, biased.Confidence, base.Confidence)
	assert.InDelta(t, 0.6, biased.Confidence, 1e-12)
	assert.Contains(t, biased.Details, "HTF bias: BULLISH")
}
