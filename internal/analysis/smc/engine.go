package smc

import (
	"fmt"
	"math"
	"strings"

	"cypher/internal/market"
)

// Config 引擎阈值。全部显式传入，引擎本身不持有任何环境态。
type Config struct {
	// Lookback 分析窗口长度；不足该长度时直接降级为 NEUTRAL。
	Lookback int
	// SwingWindow 摆动点判定的单侧窗口。
	SwingWindow int
	// OBThreshold 订单块候选蜡烛的最小实体占比（body/close）。
	OBThreshold float64
	// FVGMinGap 缺口的最小相对尺寸（gap/close）。
	FVGMinGap float64
	// DisplacementMin 动能蜡烛的最小实体涨跌幅（body/close）。
	DisplacementMin float64
}

// DefaultConfig 与线上调参一致的默认阈值。
func DefaultConfig() Config {
	return Config{
		Lookback:        100,
		SwingWindow:     5,
		OBThreshold:     0.0015,
		FVGMinGap:       0.0003,
		DisplacementMin: 0.003,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Lookback <= 0 {
		c.Lookback = def.Lookback
	}
	if c.SwingWindow <= 0 {
		c.SwingWindow = def.SwingWindow
	}
	if c.OBThreshold <= 0 {
		c.OBThreshold = def.OBThreshold
	}
	if c.FVGMinGap <= 0 {
		c.FVGMinGap = def.FVGMinGap
	}
	if c.DisplacementMin <= 0 {
		c.DisplacementMin = def.DisplacementMin
	}
	return c
}

// Engine SMC 信号引擎。纯内存计算，无 I/O，可并发调用（每次传入独立窗口）。
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Analyze 对给定 K 线窗口跑完整 SMC 分析。
// 窗口不足 Lookback 时不触发任何子检测器，直接返回 NEUTRAL/0。
// htfBias 为外部传入的高周期方向（可为 NEUTRAL）。
func (e *Engine) Analyze(candles []market.Candle, htfBias Signal) AnalysisResult {
	if len(candles) < e.cfg.Lookback {
		return AnalysisResult{
			Signal:     SignalNeutral,
			Confidence: 0,
			Trend:      TrendNeutral,
			Details:    "Insufficient data",
		}
	}

	// 取尾部 Lookback 根作为工作副本，调用期间输入不被修改。
	window := make([]market.Candle, e.cfg.Lookback)
	copy(window, candles[len(candles)-e.cfg.Lookback:])

	swingHighs, swingLows := findSwings(window, e.cfg.SwingWindow)
	bos := detectBOS(window, swingHighs, swingLows)
	mss := detectMSS(window, swingHighs, swingLows, e.cfg.DisplacementMin)
	orderBlocks := findOrderBlocks(window, e.cfg.OBThreshold, e.cfg.DisplacementMin)
	fvgs := findFVGs(window, e.cfg.FVGMinGap)
	liquidity := detectLiquiditySweeps(window, swingHighs, swingLows)
	displacement := detectDisplacement(window, e.cfg.DisplacementMin)
	trend := classifyTrend(swingHighs, swingLows)

	signal, confidence, details := e.score(
		window, bos, mss, orderBlocks, fvgs, liquidity, displacement, trend, htfBias,
	)

	return AnalysisResult{
		Signal:       signal,
		Confidence:   confidence,
		BOS:          bos,
		MSS:          mss,
		OrderBlocks:  orderBlocks,
		FVGs:         fvgs,
		Liquidity:    liquidity,
		Displacement: displacement,
		Trend:        trend,
		Details:      details,
	}
}

// score 合流计分。各因子独立累加到多空两侧，最终按净胜方向出信号。
// details 按 结构→OB→FVG→扫荡→动能→趋势→HTF→合流加成 的固定顺序拼接，
// 下游展示会截断该串，顺序不能变。
func (e *Engine) score(
	window []market.Candle,
	bos, mss []StructureEvent,
	orderBlocks []OrderBlock,
	fvgs []FairValueGap,
	liquidity []LiquiditySweep,
	displacement []Displacement,
	trend Trend,
	htfBias Signal,
) (Signal, float64, string) {
	var bullScore, bearScore float64
	var bullCount, bearCount int
	var details []string

	for _, b := range bos {
		if b.Kind == BullishBOS {
			bullScore += 2
			bullCount++
		} else {
			bearScore += 2
			bearCount++
		}
		details = append(details, fmt.Sprintf("%s at %.2f", b.Kind, b.Level))
	}

	// MSS 比 BOS 权重高：反转且带动能确认。
	for _, m := range mss {
		if m.Kind == BullishMSS {
			bullScore += 4
			bullCount++
		} else {
			bearScore += 4
			bearCount++
		}
		details = append(details, fmt.Sprintf("%s (displacement=%t)", m.Kind, m.Displacement))
	}

	currentPrice := window[len(window)-1].Close
	obProximity := false
	for _, ob := range orderBlocks {
		if ob.Mitigated {
			continue
		}
		mid := (ob.High + ob.Low) / 2
		proximity := math.Abs(currentPrice-mid) / currentPrice
		inside := ob.Low <= currentPrice && currentPrice <= ob.High
		if !inside && proximity >= 0.0015 {
			continue
		}
		score := 2.0
		rel := "near"
		if inside {
			score = 4.0
			rel = "in"
		}
		switch ob.Kind {
		case BullishOB:
			bullScore += score
			bullCount++
		case BearishOB:
			bearScore += score
			bearCount++
		}
		obProximity = true
		side := strings.TrimSuffix(string(ob.Kind), "_OB")
		details = append(details, fmt.Sprintf("Price %s %s OB [%.2f-%.2f]", rel, side, ob.Low, ob.High))
	}

	for _, fvg := range fvgs {
		if fvg.Filled {
			continue
		}
		if fvg.Bottom <= currentPrice && currentPrice <= fvg.Top {
			if fvg.Kind == BullishFVG {
				bullScore += 3
				bullCount++
				details = append(details, "Price in unfilled BULLISH FVG")
			} else {
				bearScore += 3
				bearCount++
				details = append(details, "Price in unfilled BEARISH FVG")
			}
		}
	}

	// 确认过的扫荡是单因子最高权重。
	for _, sweep := range liquidity {
		base := 3.0
		state := "pending"
		if sweep.Confirmed {
			base = 5.0
			state = "confirmed"
		}
		if sweep.Kind == BullishSweep {
			bullScore += base
			bullCount++
			details = append(details, fmt.Sprintf("BULLISH sweep at %.2f (%s)", sweep.Level, state))
		} else {
			bearScore += base
			bearCount++
			details = append(details, fmt.Sprintf("BEARISH sweep at %.2f (%s)", sweep.Level, state))
		}
	}

	for _, d := range displacement {
		if d.CandlesAgo > 3 {
			continue
		}
		if d.Kind == BullishDisplacement {
			bullScore += 2
			details = append(details, fmt.Sprintf("Recent BULLISH displacement (%.1f%%)", d.MovePct*100))
		} else {
			bearScore += 2
			details = append(details, fmt.Sprintf("Recent BEARISH displacement (%.1f%%)", d.MovePct*100))
		}
	}

	switch trend {
	case TrendBullish, TrendWeakBullish:
		bullScore++
	case TrendBearish, TrendWeakBearish:
		bearScore++
	}

	switch htfBias {
	case SignalLong:
		bullScore += 3
		details = append(details, "HTF bias: BULLISH")
	case SignalShort:
		bearScore += 3
		details = append(details, "HTF bias: BEARISH")
	}

	// 合流加成：同向确认 ≥3 且价格贴近订单块。
	if bullCount >= 3 && obProximity {
		bullScore += 3
		details = append(details, "PREMIUM CONFLUENCE (3+ bull confirmations + OB)")
	}
	if bearCount >= 3 && obProximity {
		bearScore += 3
		details = append(details, "PREMIUM CONFLUENCE (3+ bear confirmations + OB)")
	}

	if bullScore+bearScore == 0 {
		return SignalNeutral, 0, "No SMC signals detected"
	}

	joined := strings.Join(details, " | ")
	switch {
	case bullScore > bearScore:
		confidence := math.Min(bullScore/10.0, 1.0)
		if bullCount >= 2 {
			confidence = math.Min(confidence*1.3, 1.0)
		}
		return SignalLong, confidence, joined
	case bearScore > bullScore:
		confidence := math.Min(bearScore/10.0, 1.0)
		if bearCount >= 2 {
			confidence = math.Min(confidence*1.3, 1.0)
		}
		return SignalShort, confidence, joined
	default:
		// 多空打平：刻意的低置信"噪声"态，不等同于无信号。
		return SignalNeutral, 0.2, joined
	}
}
