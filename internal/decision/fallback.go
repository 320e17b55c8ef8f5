package decision

import (
	"fmt"

	"cypher/internal/analysis/smc"
)

// Fallback 模型不可用时的纯规则裁决，比模型裁决更保守。
func Fallback(in Input, minConfidence float64) Decision {
	smcSignal := in.SMC.Signal
	maSignal := in.MA.Signal

	if isDirectional(smcSignal) && isDirectional(maSignal) && smcSignal != maSignal {
		return Skip("Fallback: engines disagree")
	}

	direction := smc.SignalNeutral
	bestConf := 0.0
	if isDirectional(smcSignal) {
		direction = smcSignal
		bestConf = in.SMC.Confidence
	}
	if isDirectional(maSignal) && in.MA.Confidence > bestConf {
		direction = maSignal
		bestConf = in.MA.Confidence
	}
	if !isDirectional(direction) {
		return Skip("Fallback: no direction")
	}

	if isDirectional(in.Trend5m) && in.Trend5m != direction {
		return Skip("Fallback: 5m trend opposes")
	}
	if bestConf < minConfidence {
		return Skip(fmt.Sprintf("Fallback: low conf %.2f", bestConf))
	}
	if !hasEntryZone(in.SMC) {
		return Skip("Fallback: no OB/FVG")
	}

	return Decision{
		Action:     Action(direction),
		Confidence: bestConf * 0.9,
		Reason:     fmt.Sprintf("Fallback: %s conf=%.2f (Grok offline)", direction, bestConf),
	}
}

func isDirectional(s smc.Signal) bool {
	return s == smc.SignalLong || s == smc.SignalShort
}

// hasEntryZone 要求至少有一个未回补 OB 或未填补 FVG。
func hasEntryZone(res smc.AnalysisResult) bool {
	for _, ob := range res.OrderBlocks {
		if !ob.Mitigated {
			return true
		}
	}
	for _, fvg := range res.FVGs {
		if !fvg.Filled {
			return true
		}
	}
	return false
}
