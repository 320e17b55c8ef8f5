package trader

import (
	"fmt"
	"math"

	"cypher/internal/analysis/scalper"
	"cypher/internal/analysis/smc"
	"cypher/internal/config"
)

// obProximityPct 未回补 OB 中点距现价在 0.2% 内才算入场区。
const obProximityPct = 0.002

// FilterInput 入场前置过滤所需的全部上下文。
type FilterInput struct {
	Cfg     config.TradingConfig
	SMC     smc.AnalysisResult
	MA      scalper.Result
	Trend5m smc.Signal
	Bias15m smc.Signal
	Price   float64
}

// FilterVerdict 过滤结论：SkipReason 为空表示放行。
type FilterVerdict struct {
	Direction  smc.Signal
	Confidence float64
	SkipReason string
}

// EvaluateFilters 依次套用七道入场过滤，任何一道不过即跳过该币。
func EvaluateFilters(in FilterInput) FilterVerdict {
	smcSig := in.SMC.Signal
	maSig := in.MA.Signal

	// 两套引擎必须同向，或一方有信号另一方中性
	if smcSig == smc.SignalNeutral && maSig == smc.SignalNeutral {
		return skipVerdict("no signal from either engine")
	}
	if smcSig != smc.SignalNeutral && maSig != smc.SignalNeutral && smcSig != maSig {
		return skipVerdict(fmt.Sprintf("engines disagree (SMC %s vs MA %s)", smcSig, maSig))
	}
	direction := smcSig
	if direction == smc.SignalNeutral {
		direction = maSig
	}
	conf := math.Max(in.SMC.Confidence, in.MA.Confidence)

	// 5m 趋势不得反向；高置信度信号可无视反向的 5m 趋势
	if in.Cfg.RequireTrendAlignment && in.Trend5m != smc.SignalNeutral && in.Trend5m != direction {
		if conf < in.Cfg.HighConfTrendBypass {
			return skipVerdict(fmt.Sprintf("5m trend (%s) opposes signal (%s)", in.Trend5m, direction))
		}
	}

	// 15m 结构偏向不得反向（中性放行）
	if in.Cfg.RequireHTFBias && in.Bias15m != smc.SignalNeutral && in.Bias15m != direction {
		return skipVerdict(fmt.Sprintf("15m bias (%s) opposes signal (%s)", in.Bias15m, direction))
	}

	if conf < in.Cfg.MinConfidence {
		return skipVerdict(fmt.Sprintf("low confidence (%.2f < %.2f)", conf, in.Cfg.MinConfidence))
	}

	// 现价必须贴近一个未回补 OB 或落在未填补 FVG 内
	if in.Cfg.RequireEntryZone && !nearEntryZone(in.SMC, in.Price) {
		return skipVerdict("no OB/FVG near price")
	}

	// 结构确认：BOS/MSS 或已确认的流动性扫荡
	if in.Cfg.RequireStructure && !hasStructure(in.SMC) {
		return skipVerdict("no BOS/MSS/confirmed sweep")
	}

	// 缩量时只放行高置信度信号
	if in.MA.VolRatio < in.Cfg.MinVolumeRatio && conf < 0.7 {
		return skipVerdict(fmt.Sprintf("low volume (%.1fx) + moderate conf", in.MA.VolRatio))
	}

	return FilterVerdict{Direction: direction, Confidence: conf}
}

func skipVerdict(reason string) FilterVerdict {
	return FilterVerdict{Direction: smc.SignalNeutral, SkipReason: reason}
}

func nearEntryZone(res smc.AnalysisResult, price float64) bool {
	if price <= 0 {
		return false
	}
	for _, ob := range res.OrderBlocks {
		if ob.Mitigated {
			continue
		}
		mid := (ob.High + ob.Low) / 2
		if math.Abs(price-mid)/price < obProximityPct {
			return true
		}
	}
	for _, fvg := range res.FVGs {
		if fvg.Filled {
			continue
		}
		if fvg.Bottom <= price && price <= fvg.Top {
			return true
		}
	}
	return false
}

func hasStructure(res smc.AnalysisResult) bool {
	if len(res.BOS) > 0 || len(res.MSS) > 0 {
		return true
	}
	for _, sweep := range res.Liquidity {
		if sweep.Confirmed {
			return true
		}
	}
	return false
}
