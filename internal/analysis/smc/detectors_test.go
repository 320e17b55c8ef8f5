package smc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypher/internal/market"
)

func candle(o, h, l, c float64) market.Candle {
	return market.Candle{Open: o, High: h, Low: l, Close: c, Volume: 1}
}

func series(candles ...market.Candle) []market.Candle {
	for i := range candles {
		candles[i].OpenTime = int64(i) * 60_000
	}
	return candles
}

func TestFindSwingsSinglePeak(t *testing.T) {
	// 严格先升后降，峰值在 15：唯一摆动高点，无内部摆动低点
	candles := make([]market.Candle, 30)
	for i := range candles {
		var p float64
		if i <= 15 {
			p = 100 + float64(i)
		} else {
			p = 100 + 30 - float64(i)
		}
		candles[i] = market.Candle{OpenTime: int64(i), Open: p, High: p, Low: p, Close: p}
	}

	highs, lows := findSwings(candles, 5)
	require.Len(t, highs, 1)
	assert.Equal(t, 15, highs[0].Index)
	assert.Equal(t, 115.0, highs[0].Price)
	assert.Empty(t, lows)
}

func TestFindSwingsShortWindow(t *testing.T) {
	highs, lows := findSwings(make([]market.Candle, 10), 5)
	assert.Empty(t, highs)
	assert.Empty(t, lows)
}

func TestFindSwingsPlateauDuplicates(t *testing.T) {
	// 双顶同价且落在彼此的判定窗口内：两个索引都保留，不去重
	candles := make([]market.Candle, 21)
	base := []float64{
		100.0, 100.3, 100.6, 100.9, 101.2, 101.5, 101.8, 102.1, 103.0, 102.1,
		101.8, 102.1, 103.0, 102.1, 101.8, 101.5, 101.2, 100.9, 100.6, 100.3, 100.0,
	}
	for i, p := range base {
		candles[i] = market.Candle{OpenTime: int64(i), Open: p, High: p, Low: p, Close: p}
	}

	highs, _ := findSwings(candles, 5)
	require.Len(t, highs, 2)
	assert.Equal(t, 8, highs[0].Index)
	assert.Equal(t, 12, highs[1].Index)
	// 两次触顶互相计入强度
	assert.GreaterOrEqual(t, highs[0].Strength, 2)
	assert.GreaterOrEqual(t, highs[1].Strength, 2)
}

func TestDetectBOSBothDirections(t *testing.T) {
	// 收盘价同时越过前高与前低（宽幅行情）：两个方向都要上报，由计分净额化
	candles := series(candle(100, 100, 100, 100))
	candles[0].Close = 105

	highs := []SwingPoint{{Index: 1, Price: 103}, {Index: 2, Price: 104}, {Index: 3, Price: 102}}
	lows := []SwingPoint{{Index: 1, Price: 107}, {Index: 2, Price: 106}, {Index: 3, Price: 108}}

	events := detectBOS(candles, highs, lows)
	require.Len(t, events, 2)
	assert.Equal(t, BullishBOS, events[0].Kind)
	assert.Equal(t, 104.0, events[0].Level)
	assert.Equal(t, BearishBOS, events[1].Kind)
	assert.Equal(t, 106.0, events[1].Level)
}

func TestDetectBOSRequiresTwoSwings(t *testing.T) {
	candles := series(candle(100, 101, 99, 100))
	events := detectBOS(candles, []SwingPoint{{Index: 0, Price: 99}}, nil)
	assert.Empty(t, events)
}

func TestDetectMSSBearishWithDisplacement(t *testing.T) {
	candles := series(
		candle(100.0, 100.2, 99.8, 100.1),
		candle(100.1, 100.3, 99.9, 100.0),
		candle(100.0, 100.1, 99.7, 99.9),
		// 破位后的看跌动能蜡烛：body/range=0.875，body/close≈0.7%
		candle(100.0, 100.05, 99.25, 99.3),
		candle(99.3, 99.5, 99.1, 99.4),
	)
	highs := []SwingPoint{{Index: 0, Price: 100.0}, {Index: 1, Price: 101.0}, {Index: 2, Price: 100.2}}
	lows := []SwingPoint{{Index: 0, Price: 99.5}, {Index: 2, Price: 99.8}, {Index: 3, Price: 99.0}}

	events := detectMSS(candles, highs, lows, 0.003)
	require.Len(t, events, 1)
	assert.Equal(t, BearishMSS, events[0].Kind)
	assert.Equal(t, 99.8, events[0].Level)
	assert.True(t, events[0].Displacement)
}

func TestDetectMSSNoDisplacementNoSignal(t *testing.T) {
	// 结构满足反转形态，但破位后 5 根内没有动能蜡烛：静默
	candles := series(
		candle(100.0, 100.2, 99.8, 100.1),
		candle(100.1, 100.3, 99.9, 100.0),
		candle(100.0, 100.4, 99.7, 99.9),
		candle(99.9, 100.3, 99.6, 99.8),
		candle(99.8, 100.2, 99.5, 99.7),
	)
	highs := []SwingPoint{{Index: 0, Price: 100.0}, {Index: 1, Price: 101.0}, {Index: 2, Price: 100.2}}
	lows := []SwingPoint{{Index: 0, Price: 99.5}, {Index: 2, Price: 99.8}, {Index: 3, Price: 99.0}}

	events := detectMSS(candles, highs, lows, 0.003)
	assert.Empty(t, events)
}

func obFixture() []market.Candle {
	return series(
		candle(100.0, 100.6, 99.4, 100.5),
		candle(100.5, 100.8, 100.2, 100.4),
		// 看涨 OB 候选：阴烛 [99.8, 100.5]
		candle(100.4, 100.5, 99.8, 99.9),
		// 动能阳烛收破前高
		candle(99.9, 101.0, 99.8, 100.9),
		candle(100.9, 101.2, 100.5, 101.0),
	)
}

func TestFindOrderBlocksBullish(t *testing.T) {
	blocks := findOrderBlocks(obFixture(), 0.0015, 0.003)
	require.Len(t, blocks, 1)
	ob := blocks[0]
	assert.Equal(t, BullishOB, ob.Kind)
	assert.Equal(t, 2, ob.Index)
	assert.Equal(t, 100.5, ob.High)
	assert.Equal(t, 99.8, ob.Low)
	assert.False(t, ob.Mitigated)
}

func TestOrderBlockMitigationMonotonic(t *testing.T) {
	window := append(obFixture(),
		// 收破 OB 下沿 → 失效
		candle(101.0, 101.1, 99.5, 99.6),
	)
	for i := range window {
		window[i].OpenTime = int64(i) * 60_000
	}

	blocks := findOrderBlocks(window, 0.0015, 0.003)
	require.Len(t, blocks, 1)
	require.True(t, blocks[0].Mitigated)

	// 追加后续行情（小实体，不产生新 OB）：已失效状态不可逆转
	extended := window
	for i := 0; i < 6; i++ {
		p := 100.0 + float64(i)*0.01
		extended = append(extended, candle(p, p+0.3, p-0.3, p+0.01))
	}
	for i := range extended {
		extended[i].OpenTime = int64(i) * 60_000
	}

	blocks = findOrderBlocks(extended, 0.0015, 0.003)
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].Index)
	assert.True(t, blocks[0].Mitigated)
}

func TestFindFVGFillOneWay(t *testing.T) {
	base := series(
		candle(100.0, 100.5, 99.5, 100.2),
		candle(100.2, 100.9, 100.1, 100.8),
		// 向上跳空：缺口 [100.5, 101.4]，中线 100.95
		candle(101.5, 102.2, 101.4, 102.0),
		candle(101.9, 102.1, 101.5, 102.0),
	)

	gaps := findFVGs(base, 0.0003)
	var target *FairValueGap
	for i := range gaps {
		if gaps[i].Index == 1 {
			target = &gaps[i]
		}
	}
	require.NotNil(t, target)
	assert.Equal(t, BullishFVG, target.Kind)
	assert.False(t, target.Filled)

	// 回踩触及中线 → 回补；其后无论走多远都不会恢复未回补状态
	filled := append(base, candle(101.8, 102.0, 100.9, 101.0))
	extended := append(filled,
		candle(101.0, 102.6, 101.0, 102.5),
		candle(102.5, 103.0, 102.0, 102.9),
	)
	for i := range extended {
		extended[i].OpenTime = int64(i) * 60_000
	}

	for _, window := range [][]market.Candle{filled, extended} {
		gaps := findFVGs(window, 0.0003)
		found := false
		for _, g := range gaps {
			if g.Index == 1 {
				found = true
				assert.True(t, g.Filled)
			}
		}
		require.True(t, found)
	}
}

func TestDetectLiquiditySweeps(t *testing.T) {
	lows := []SwingPoint{{Index: 1, Price: 99.0}, {Index: 3, Price: 99.2}, {Index: 5, Price: 99.4}}
	highs := []SwingPoint{{Index: 2, Price: 102.0}, {Index: 4, Price: 102.2}, {Index: 6, Price: 102.4}}

	candles := series(
		candle(100.0, 100.5, 99.6, 100.2),
		candle(100.2, 100.6, 99.7, 100.3),
		candle(100.3, 100.7, 99.8, 100.4),
		candle(100.4, 100.8, 99.9, 100.5),
		candle(100.5, 100.9, 100.0, 100.6),
		// 倒数第二根：影线扫破 99.4 的摆动低点后收回上方
		candle(100.6, 100.7, 99.3, 100.0),
		// 下一根收阳 → 确认
		candle(100.0, 100.8, 99.9, 100.7),
	)

	sweeps := detectLiquiditySweeps(candles, highs, lows)
	require.Len(t, sweeps, 1)
	s := sweeps[0]
	assert.Equal(t, BullishSweep, s.Kind)
	assert.Equal(t, 99.4, s.Level)
	assert.True(t, s.Confirmed)
	assert.Equal(t, 1, s.CandlesAgo)
	assert.InDelta(t, 99.4-99.3, s.WickDepth, 1e-9)
}

func TestDetectLiquiditySweepLatestCandleUnconfirmed(t *testing.T) {
	lows := []SwingPoint{{Index: 1, Price: 99.0}, {Index: 3, Price: 99.2}, {Index: 5, Price: 99.4}}
	highs := []SwingPoint{{Index: 2, Price: 102.0}, {Index: 4, Price: 102.2}, {Index: 6, Price: 102.4}}

	candles := series(
		candle(100.0, 100.5, 99.6, 100.2),
		candle(100.2, 100.6, 99.7, 100.3),
		candle(100.3, 100.7, 99.8, 100.4),
		candle(100.4, 100.8, 99.9, 100.5),
		candle(100.5, 100.9, 100.0, 100.6),
		candle(100.6, 101.0, 100.1, 100.7),
		// 最新蜡烛上的扫荡：无下一根，无从确认
		candle(100.7, 100.8, 99.3, 100.0),
	)

	sweeps := detectLiquiditySweeps(candles, highs, lows)
	require.Len(t, sweeps, 1)
	assert.Equal(t, BullishSweep, sweeps[0].Kind)
	assert.False(t, sweeps[0].Confirmed)
	assert.Equal(t, 0, sweeps[0].CandlesAgo)
}

func TestDetectDisplacement(t *testing.T) {
	candles := series(
		candle(100.0, 100.2, 99.8, 100.1),
		candle(100.1, 100.3, 99.9, 100.0),
		candle(100.0, 100.2, 99.8, 100.1),
		// 冲量阳烛：body/range=0.9/1.0，body/close≈0.89%
		candle(100.1, 101.1, 100.1, 101.0),
		candle(101.0, 101.2, 100.8, 101.1),
	)

	out := detectDisplacement(candles, 0.003)
	require.Len(t, out, 1)
	d := out[0]
	assert.Equal(t, BullishDisplacement, d.Kind)
	assert.Equal(t, 1, d.CandlesAgo)
	assert.InDelta(t, 0.9, d.BodyRatio, 1e-9)
}

func TestClassifyTrend(t *testing.T) {
	mk := func(prices ...float64) []SwingPoint {
		out := make([]SwingPoint, len(prices))
		for i, p := range prices {
			out[i] = SwingPoint{Index: i, Price: p}
		}
		return out
	}

	tests := []struct {
		name  string
		highs []SwingPoint
		lows  []SwingPoint
		want  Trend
	}{
		{"bullish", mk(101, 102, 103), mk(99, 100, 101), TrendBullish},
		{"bearish", mk(103, 102, 101), mk(101, 100, 99), TrendBearish},
		{"weak bullish on higher highs only", mk(101, 102, 103), mk(100, 99, 100), TrendWeakBullish},
		{"weak bearish on lower lows only", mk(102, 101, 102), mk(101, 100, 99), TrendWeakBearish},
		{"neutral on mixed", mk(102, 101, 102), mk(99, 100, 99), TrendNeutral},
		{"neutral on insufficient swings", mk(101, 102), mk(99, 100, 101), TrendNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTrend(tt.highs, tt.lows))
		})
	}
}
