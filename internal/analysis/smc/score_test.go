package smc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cypher/internal/market"
)

// scoreWindow 收盘价 100 的最小窗口，供计分器单测使用。
func scoreWindow() []market.Candle {
	return flatWindow(10, 100)
}

func TestScoreTieIsLowConfidenceNoise(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	bos := []StructureEvent{
		{Kind: BullishBOS, Level: 99.5, Strength: 0.005},
		{Kind: BearishBOS, Level: 100.5, Strength: 0.005},
	}

	signal, confidence, details := engine.score(
		scoreWindow(), bos, nil, nil, nil, nil, nil, TrendNeutral, SignalNeutral,
	)

	assert.Equal(t, SignalNeutral, signal)
	assert.InDelta(t, 0.2, confidence, 1e-12)
	assert.Equal(t, "BULLISH_BOS at 99.50 | BEARISH_BOS at 100.50", details)
}

func TestScoreNoFactors(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	signal, confidence, details := engine.score(
		scoreWindow(), nil, nil, nil, nil, nil, nil, TrendNeutral, SignalNeutral,
	)

	assert.Equal(t, SignalNeutral, signal)
	assert.Zero(t, confidence)
	assert.Equal(t, "No SMC signals detected", details)
}

func TestScorePremiumConfluence(t *testing.T) {
	// 确认扫荡(5) + BOS(2) + 价格在未失效 OB 内(4) = 11 原始分，
	// 3 个同向确认 + OB 贴近 → 合流加成；置信度触顶 1.0
	engine := NewEngine(DefaultConfig())
	bos := []StructureEvent{{Kind: BullishBOS, Level: 99.2, Strength: 0.008}}
	blocks := []OrderBlock{{Kind: BullishOB, High: 100.4, Low: 99.6, Index: 3, Strength: 0.004}}
	sweeps := []LiquiditySweep{{Kind: BullishSweep, Level: 99.5, WickDepth: 0.3, Confirmed: true, CandlesAgo: 1}}

	signal, confidence, details := engine.score(
		scoreWindow(), bos, nil, blocks, nil, sweeps, nil, TrendNeutral, SignalNeutral,
	)

	assert.Equal(t, SignalLong, signal)
	assert.Equal(t, 1.0, confidence)
	assert.Contains(t, details, "Price in BULLISH OB [99.60-100.40]")
	assert.Contains(t, details, "BULLISH sweep at 99.50 (confirmed)")
	assert.Contains(t, details, "PREMIUM CONFLUENCE (3+ bull confirmations + OB)")
}

func TestScoreMitigatedOBIgnored(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	blocks := []OrderBlock{{Kind: BullishOB, High: 100.4, Low: 99.6, Mitigated: true}}

	signal, confidence, details := engine.score(
		scoreWindow(), nil, nil, blocks, nil, nil, nil, TrendNeutral, SignalNeutral,
	)

	assert.Equal(t, SignalNeutral, signal)
	assert.Zero(t, confidence)
	assert.Equal(t, "No SMC signals detected", details)
}

func TestScoreOBProximityBonus(t *testing.T) {
	// 价格不在区域内但 OB 中点距离 <0.15%：给一半分值
	engine := NewEngine(DefaultConfig())
	blocks := []OrderBlock{{Kind: BearishOB, High: 100.12, Low: 100.05}}

	signal, confidence, details := engine.score(
		scoreWindow(), nil, nil, blocks, nil, nil, nil, TrendNeutral, SignalNeutral,
	)

	assert.Equal(t, SignalShort, signal)
	assert.InDelta(t, 0.2, confidence, 1e-12)
	assert.Contains(t, details, "Price near BEARISH OB [100.05-100.12]")
}

func TestScoreStaleDisplacementIgnored(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	disp := []Displacement{
		{Kind: BullishDisplacement, BodyRatio: 0.8, MovePct: 0.005, CandlesAgo: 4},
	}

	signal, confidence, _ := engine.score(
		scoreWindow(), nil, nil, nil, nil, nil, disp, TrendNeutral, SignalNeutral,
	)
	assert.Equal(t, SignalNeutral, signal)
	assert.Zero(t, confidence)

	disp[0].CandlesAgo = 3
	signal, confidence, details := engine.score(
		scoreWindow(), nil, nil, nil, nil, nil, disp, TrendNeutral, SignalNeutral,
	)
	assert.Equal(t, SignalLong, signal)
	assert.InDelta(t, 0.2, confidence, 1e-12)
	assert.Contains(t, details, "Recent BULLISH displacement (0.5%)")
}

func TestScoreDetailsOrderIsStable(t *testing.T) {
	// details 顺序：结构 → OB → FVG → 扫荡 → 动能 → 趋势 → HTF → 合流加成
	engine := NewEngine(DefaultConfig())
	bos := []StructureEvent{{Kind: BullishBOS, Level: 99.0, Strength: 0.01}}
	mss := []StructureEvent{{Kind: BullishMSS, Level: 99.4, Strength: 0.004, Displacement: true}}
	blocks := []OrderBlock{{Kind: BullishOB, High: 100.3, Low: 99.7}}
	fvgs := []FairValueGap{{Kind: BullishFVG, Top: 100.2, Bottom: 99.8, Size: 0.004}}
	sweeps := []LiquiditySweep{{Kind: BullishSweep, Level: 99.6, Confirmed: false, CandlesAgo: 0}}
	disp := []Displacement{{Kind: BullishDisplacement, BodyRatio: 0.7, MovePct: 0.004, CandlesAgo: 1}}

	_, _, details := engine.score(
		scoreWindow(), bos, mss, blocks, fvgs, sweeps, disp, TrendBullish, SignalLong,
	)

	assert.Equal(t,
		"BULLISH_BOS at 99.00 | BULLISH_MSS (displacement=true) | "+
			"Price in BULLISH OB [99.70-100.30] | Price in unfilled BULLISH FVG | "+
			"BULLISH sweep at 99.60 (pending) | Recent BULLISH displacement (0.4%) | "+
			"HTF bias: BULLISH | PREMIUM CONFLUENCE (3+ bull confirmations + OB)",
		details,
	)
}
