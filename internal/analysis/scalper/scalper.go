package scalper

import (
	"fmt"
	"math"
	"strings"

	"github.com/markcheno/go-talib"

	"cypher/internal/analysis/smc"
	"cypher/internal/market"
)

// Config 均线剥头皮策略参数。
type Config struct {
	EMAFast       int
	EMASlow       int
	EMATrend      int
	RSIPeriod     int
	RSIOverbought float64
	RSIOversold   float64
}

// DefaultConfig 1m 剥头皮默认参数。
func DefaultConfig() Config {
	return Config{
		EMAFast:       8,
		EMASlow:       21,
		EMATrend:      55,
		RSIPeriod:     14,
		RSIOverbought: 65,
		RSIOversold:   35,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.EMAFast <= 0 {
		c.EMAFast = def.EMAFast
	}
	if c.EMASlow <= 0 {
		c.EMASlow = def.EMASlow
	}
	if c.EMATrend <= 0 {
		c.EMATrend = def.EMATrend
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = def.RSIPeriod
	}
	if c.RSIOverbought == 0 {
		c.RSIOverbought = def.RSIOverbought
	}
	if c.RSIOversold == 0 {
		c.RSIOversold = def.RSIOversold
	}
	return c
}

// Result 与 SMC 引擎同构的 {signal, confidence, details} 输出，
// 外加剥头皮自己的辅助指标，供风控（ATR 止损）与过滤（量比）使用。
type Result struct {
	Signal     smc.Signal `json:"signal"`
	Confidence float64    `json:"confidence"`
	EMAFast    float64    `json:"ema_fast"`
	EMASlow    float64    `json:"ema_slow"`
	EMATrend   float64    `json:"ema_trend"`
	RSI        float64    `json:"rsi"`
	RSISlope   float64    `json:"rsi_slope"`
	ATRPct     float64    `json:"atr_pct"`
	VWAP       float64    `json:"vwap"`
	VolSpike   bool       `json:"vol_spike"`
	VolRatio   float64    `json:"vol_ratio"`
	Details    string     `json:"details"`
}

// Scalper EMA/RSI/VWAP/量能驱动的次级信号引擎。与 SMC 引擎独立计分，
// 由调用方做一致性调和。纯计算，无共享状态。
type Scalper struct {
	cfg Config
}

func New(cfg Config) *Scalper {
	return &Scalper{cfg: cfg.withDefaults()}
}

// Analyze 对 K 线窗口计算全部指标并加权计分。
// 窗口不足 EMATrend+10 根时降级为 NEUTRAL/0。
func (s *Scalper) Analyze(candles []market.Candle) Result {
	if len(candles) < s.cfg.EMATrend+10 {
		return Result{Signal: smc.SignalNeutral, VolRatio: 1, Details: "Insufficient data"}
	}

	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	volumes := market.Volumes(candles)
	n := len(candles)

	emaFast := talib.Ema(closes, s.cfg.EMAFast)
	emaSlow := talib.Ema(closes, s.cfg.EMASlow)
	emaTrend := talib.Ema(closes, s.cfg.EMATrend)
	rsi := talib.Rsi(closes, s.cfg.RSIPeriod)

	atr := talib.Atr(highs, lows, closes, 14)
	atrPct := 0.0
	if closes[n-1] != 0 {
		atrPct = atr[n-1] / closes[n-1]
	}

	vwap := rollingVWAP(closes, volumes, 20)
	volSMA := talib.Sma(volumes, 20)
	// 均量过小（冷门时段）时按 1 计，保留原始量能而不是钳到 1.0
	volBase := volSMA[n-1]
	if volBase < 1 {
		volBase = 1
	}
	volRatio := volumes[n-1] / volBase
	volSpike := volSMA[n-1] > 0 && volumes[n-1] > volSMA[n-1]*1.5

	rsiSlope := rsi[n-1] - rsi[n-4]

	// EMA squeeze：快慢线间距收敛到均值一半以下时提示即将扩张
	spread := make([]float64, n)
	for i := range spread {
		if closes[i] != 0 {
			spread[i] = math.Abs(emaFast[i]-emaSlow[i]) / closes[i] * 100
		}
	}
	spreadAvg := talib.Sma(spread, 20)

	res := Result{
		EMAFast:  emaFast[n-1],
		EMASlow:  emaSlow[n-1],
		EMATrend: emaTrend[n-1],
		RSI:      rsi[n-1],
		RSISlope: rsiSlope,
		ATRPct:   atrPct,
		VWAP:     vwap,
		VolSpike: volSpike,
		VolRatio: volRatio,
	}

	res.Signal, res.Confidence, res.Details = s.score(scoreInput{
		candles:   candles,
		closes:    closes,
		rsi:       rsi,
		emaFast:   emaFast,
		emaSlow:   emaSlow,
		emaTrend:  emaTrend,
		vwap:      vwap,
		volRatio:  volRatio,
		rsiSlope:  rsiSlope,
		spread:    spread[n-1],
		spreadAvg: spreadAvg[n-1],
	})
	return res
}

type scoreInput struct {
	candles   []market.Candle
	closes    []float64
	rsi       []float64
	emaFast   []float64
	emaSlow   []float64
	emaTrend  []float64
	vwap      float64
	volRatio  float64
	rsiSlope  float64
	spread    float64
	spreadAvg float64
}

func (s *Scalper) score(in scoreInput) (smc.Signal, float64, string) {
	var bullScore, bearScore float64
	var details []string
	n := len(in.closes)
	latest := in.candles[n-1]
	prev := in.candles[n-2]
	latestClose := in.closes[n-1]

	// EMA 金叉/死叉：剥头皮最重要的触发
	crossedAbove := in.emaFast[n-2] <= in.emaSlow[n-2] && in.emaFast[n-1] > in.emaSlow[n-1]
	crossedBelow := in.emaFast[n-2] >= in.emaSlow[n-2] && in.emaFast[n-1] < in.emaSlow[n-1]
	if crossedAbove {
		bullScore += 3
		details = append(details, fmt.Sprintf("EMA%d crossed above EMA%d (BULLISH)", s.cfg.EMAFast, s.cfg.EMASlow))
	} else if crossedBelow {
		bearScore += 3
		details = append(details, fmt.Sprintf("EMA%d crossed below EMA%d (BEARISH)", s.cfg.EMAFast, s.cfg.EMASlow))
	}

	// 三线排列
	if in.emaFast[n-1] > in.emaSlow[n-1] && in.emaSlow[n-1] > in.emaTrend[n-1] {
		bullScore += 2
		details = append(details, fmt.Sprintf("EMAs aligned BULLISH (%d>%d>%d)", s.cfg.EMAFast, s.cfg.EMASlow, s.cfg.EMATrend))
	} else if in.emaFast[n-1] < in.emaSlow[n-1] && in.emaSlow[n-1] < in.emaTrend[n-1] {
		bearScore += 2
		details = append(details, fmt.Sprintf("EMAs aligned BEARISH (%d<%d<%d)", s.cfg.EMAFast, s.cfg.EMASlow, s.cfg.EMATrend))
	}

	// VWAP 机构参考位
	if in.vwap > 0 {
		vwapDist := (latestClose - in.vwap) / in.vwap
		if latestClose > in.vwap && vwapDist > 0.001 {
			bullScore++
			details = append(details, fmt.Sprintf("Price above VWAP (+%.2f%%)", vwapDist*100))
		} else if latestClose < in.vwap && vwapDist < -0.001 {
			bearScore++
			details = append(details, fmt.Sprintf("Price below VWAP (%.2f%%)", vwapDist*100))
		}
	}

	// RSI：不只看数值，还看斜率（动量质量）
	rsiVal := in.rsi[n-1]
	switch {
	case rsiVal < s.cfg.RSIOversold:
		if in.rsiSlope > 0 {
			bullScore += 3
			details = append(details, fmt.Sprintf("RSI oversold + turning up (%.1f, slope: %+.1f)", rsiVal, in.rsiSlope))
		} else {
			bullScore += 2
			details = append(details, fmt.Sprintf("RSI oversold (%.1f)", rsiVal))
		}
	case rsiVal > s.cfg.RSIOverbought:
		if in.rsiSlope < 0 {
			bearScore += 3
			details = append(details, fmt.Sprintf("RSI overbought + turning down (%.1f, slope: %+.1f)", rsiVal, in.rsiSlope))
		} else {
			bearScore += 2
			details = append(details, fmt.Sprintf("RSI overbought (%.1f)", rsiVal))
		}
	case rsiVal > 45 && rsiVal < 55:
		details = append(details, fmt.Sprintf("RSI neutral zone (%.1f) - weak momentum", rsiVal))
	}

	// 15 根窗口的 RSI 背离
	if n > 15 {
		priceHigher := latestClose > in.closes[n-15]
		rsiLower := rsiVal < in.rsi[n-15]
		priceLower := latestClose < in.closes[n-15]
		rsiHigher := rsiVal > in.rsi[n-15]
		if priceHigher && rsiLower {
			bearScore += 2
			details = append(details, "Bearish RSI divergence (15 candles)")
		} else if priceLower && rsiHigher {
			bullScore += 2
			details = append(details, "Bullish RSI divergence (15 candles)")
		}
	}

	// 量能确认：只给当前领先的一侧加分
	if in.volRatio > 1.5 {
		if bullScore > bearScore {
			bullScore += 2
			details = append(details, fmt.Sprintf("High volume confirms BULL (%.1fx avg)", in.volRatio))
		} else if bearScore > bullScore {
			bearScore += 2
			details = append(details, fmt.Sprintf("High volume confirms BEAR (%.1fx avg)", in.volRatio))
		}
	} else if in.volRatio < 0.5 {
		details = append(details, fmt.Sprintf("Low volume (%.1fx avg) - weak signal", in.volRatio))
	}

	// 回踩慢线的顺势入场
	if math.Abs(latestClose-in.emaSlow[n-1])/latestClose < 0.0012 {
		if in.emaFast[n-1] > in.emaSlow[n-1] {
			bullScore += 2
			details = append(details, fmt.Sprintf("Pullback to EMA%d in uptrend", s.cfg.EMASlow))
		} else if in.emaFast[n-1] < in.emaSlow[n-1] {
			bearScore += 2
			details = append(details, fmt.Sprintf("Pullback to EMA%d in downtrend", s.cfg.EMASlow))
		}
	}

	// 蜡烛形态确认
	body := latest.Body()
	if rng := latest.Range(); rng > 0 {
		bodyRatio := body / rng
		upperWick := latest.High - math.Max(latest.Close, latest.Open)
		lowerWick := math.Min(latest.Close, latest.Open) - latest.Low

		if latest.Bullish() && bodyRatio > 0.6 && body > prev.Body()*1.2 {
			bullScore++
			details = append(details, "Bullish engulfing candle")
		} else if latest.Bearish() && bodyRatio > 0.6 && body > prev.Body()*1.2 {
			bearScore++
			details = append(details, "Bearish engulfing candle")
		}

		if lowerWick > body*2 && lowerWick > upperWick*2 {
			bullScore++
			details = append(details, "Bullish pin bar (rejection wick)")
		}
		if upperWick > body*2 && upperWick > lowerWick*2 {
			bearScore++
			details = append(details, "Bearish pin bar (rejection wick)")
		}
	}

	if in.spreadAvg > 0 && in.spread < in.spreadAvg*0.5 {
		details = append(details, "EMA SQUEEZE detected - expansion expected")
	}

	if bullScore+bearScore == 0 {
		return smc.SignalNeutral, 0, "No MA signals"
	}
	joined := strings.Join(details, " | ")
	switch {
	case bullScore > bearScore:
		return smc.SignalLong, math.Min(bullScore/10.0, 1.0), joined
	case bearScore > bullScore:
		return smc.SignalShort, math.Min(bearScore/10.0, 1.0), joined
	default:
		return smc.SignalNeutral, 0.2, joined
	}
}

// rollingVWAP 最近 window 根的量加权均价。
func rollingVWAP(closes, volumes []float64, window int) float64 {
	n := len(closes)
	start := n - window
	if start < 0 {
		start = 0
	}
	var pv, vol float64
	for i := start; i < n; i++ {
		pv += closes[i] * volumes[i]
		vol += volumes[i]
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}
