package smc

import "cypher/internal/market"

// detectDisplacement 只扫最近 5 根：实体占比 ≥0.65 且实体涨跌幅
// ≥ displacementMin 的蜡烛视为冲量，方向看收盘与开盘。
func detectDisplacement(candles []market.Candle, displacementMin float64) []Displacement {
	var out []Displacement
	n := len(candles)

	start := n - 5
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		c := candles[i]
		rng := c.Range()
		if rng == 0 {
			continue
		}
		bodyRatio := c.Body() / rng
		movePct := c.Body() / c.Close
		if bodyRatio < 0.65 || movePct < displacementMin {
			continue
		}
		kind := BearishDisplacement
		if c.Bullish() {
			kind = BullishDisplacement
		}
		out = append(out, Displacement{
			Kind:       kind,
			BodyRatio:  bodyRatio,
			MovePct:    movePct,
			CandlesAgo: n - 1 - i,
		})
	}
	return out
}
