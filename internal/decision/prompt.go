package decision

import (
	"fmt"
	"strings"
)

// 中文说明：
// 裁决 prompt 把两套引擎的完整上下文（OB/FVG/扫荡/MSS 明细）摊开给模型，
// 并内置硬性跳过规则，模型只做最终把关。

const systemPrompt = "You are a crypto trade evaluator. Approve GOOD setups with confluence, " +
	"reject obvious trash. We need 40%+ win rate with 2:1 R:R. Be selective but not scared - " +
	"missing good setups is also costly. When engines agree with OB/FVG support, approve confidently. " +
	"Respond only with valid JSON."

const sentimentSystemPrompt = "You are a crypto market analyst. Be very brief."

// BuildUserPrompt 渲染单次裁决的用户消息。
func BuildUserPrompt(in Input) string {
	obInfo := renderOrderBlocks(in)
	fvgInfo := renderFVGs(in)
	sweepInfo := renderSweeps(in)
	mssInfo := renderMSS(in)

	contradiction := ""
	if hasDirection(obInfo, fvgInfo, sweepInfo, mssInfo, "BULLISH") &&
		hasDirection(obInfo, fvgInfo, sweepInfo, mssInfo, "BEARISH") {
		contradiction = "\nWARNING: Mixed bullish AND bearish signals detected. This is a CONTRADICTION - you should SKIP."
	}

	var b strings.Builder
	b.WriteString("You are a crypto trade evaluator. Be selective but not overly cautious.\n")
	b.WriteString("We need to make $3/day with aggressive but smart entries. Approve good setups, reject trash.\n\n")
	fmt.Fprintf(&b, "COIN: %s | PRICE: $%.2f | BAL: $%.2f\n", in.Symbol, in.Price, in.Balance)
	fmt.Fprintf(&b, "5M TREND: %s | 15M BIAS: %s\n", in.Trend5m, in.Bias15m)
	b.WriteString(contradiction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "SMC: %s (conf: %.2f) | Trend: %s\n", in.SMC.Signal, in.SMC.Confidence, in.SMC.Trend)
	fmt.Fprintf(&b, "Details: %s\n", orNA(in.SMC.Details))
	fmt.Fprintf(&b, "OBs: %s | FVGs: %s\n", orNone(obInfo), orNone(fvgInfo))
	fmt.Fprintf(&b, "Sweeps: %s | MSS: %s\n\n", orNone(sweepInfo), orNone(mssInfo))
	fmt.Fprintf(&b, "MA: %s (conf: %.2f)\n", in.MA.Signal, in.MA.Confidence)
	fmt.Fprintf(&b, "RSI: %.1f | Vol: %.2fx avg\n\n", in.MA.RSI, in.MA.VolRatio)
	b.WriteString(`=== HARD SKIP (any one = SKIP) ===
1. RSI > 72 for LONG or RSI < 28 for SHORT (chasing extremes)
2. SMC and MA disagree on direction (one LONG, other SHORT)
3. Mixed bullish AND bearish SMC signals (contradiction)
4. SMC confidence < 0.5 AND MA confidence < 0.5 (no signal)
5. 5M trend OPPOSES signal direction

=== APPROVE IF ===
- Engines agree (or one strong + other neutral)
- At least 1 OB or FVG supports the entry
- Confidence >= 0.6 from at least one engine
- No contradictory signals
- Volume reasonable (>1.0x avg)

Give higher confidence (0.8+) when: confirmed sweep + OB, MSS with displacement, or 3+ factors align.
Give moderate confidence (0.65-0.79) when: 2 factors agree with trend.

Respond ONLY with valid JSON:
{"action": "LONG" or "SHORT" or "SKIP", "confidence": 0.0-1.0, "reason": "brief reason"}`)
	return b.String()
}

func renderOrderBlocks(in Input) string {
	var b strings.Builder
	for _, ob := range in.SMC.OrderBlocks {
		if ob.Mitigated {
			continue
		}
		fmt.Fprintf(&b, "\n  - %s [%.2f-%.2f] (strength: %.4f)", ob.Kind, ob.Low, ob.High, ob.Strength)
	}
	return b.String()
}

func renderFVGs(in Input) string {
	var b strings.Builder
	for _, fvg := range in.SMC.FVGs {
		if fvg.Filled {
			continue
		}
		fmt.Fprintf(&b, "\n  - %s [%.2f-%.2f] (unfilled)", fvg.Kind, fvg.Bottom, fvg.Top)
	}
	return b.String()
}

func renderSweeps(in Input) string {
	var b strings.Builder
	for _, sweep := range in.SMC.Liquidity {
		state := "pending"
		if sweep.Confirmed {
			state = "CONFIRMED"
		}
		fmt.Fprintf(&b, "\n  - %s at %.2f (%s)", sweep.Kind, sweep.Level, state)
	}
	return b.String()
}

func renderMSS(in Input) string {
	var b strings.Builder
	for _, m := range in.SMC.MSS {
		fmt.Fprintf(&b, "\n  - %s at %.2f (displacement: %t)", m.Kind, m.Level, m.Displacement)
	}
	return b.String()
}

func hasDirection(parts ...string) bool {
	direction := parts[len(parts)-1]
	for _, p := range parts[:len(parts)-1] {
		if strings.Contains(p, direction) {
			return true
		}
	}
	return false
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
