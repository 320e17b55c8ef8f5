package smc

// classifyTrend 依据最近三组摆动点判定内部结构趋势。
// 高低点同时严格抬升为 BULLISH，同时严格走低为 BEARISH；
// 仅一侧单调时给 WEAK_*，且看涨分支先判——只有更高高点而低点走平
// 会落在 WEAK_BULLISH。其余情况 NEUTRAL。
func classifyTrend(swingHighs, swingLows []SwingPoint) Trend {
	if len(swingHighs) < 3 || len(swingLows) < 3 {
		return TrendNeutral
	}

	h := lastN(swingHighs, 3)
	l := lastN(swingLows, 3)

	higherHighs := h[2].Price > h[1].Price && h[1].Price > h[0].Price
	higherLows := l[2].Price > l[1].Price && l[1].Price > l[0].Price
	lowerHighs := h[2].Price < h[1].Price && h[1].Price < h[0].Price
	lowerLows := l[2].Price < l[1].Price && l[1].Price < l[0].Price

	switch {
	case higherHighs && higherLows:
		return TrendBullish
	case lowerHighs && lowerLows:
		return TrendBearish
	case higherHighs || higherLows:
		return TrendWeakBullish
	case lowerHighs || lowerLows:
		return TrendWeakBearish
	default:
		return TrendNeutral
	}
}
