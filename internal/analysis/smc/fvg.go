package smc

import "cypher/internal/market"

// findFVGs 三蜡烛失衡：中间蜡烛的区间被两侧完全跳空。
// 看涨缺口为 low[i]-high[i-2]，区域 [high[i-2], low[i]]；看跌镜像。
// Filled 采用 50% 规则：后续任一蜡烛触及缺口中线即视为回补，
// 不要求完全回补（下游置信度按该口径调参）。
func findFVGs(candles []market.Candle, minGap float64) []FairValueGap {
	var gaps []FairValueGap
	n := len(candles)

	for i := 2; i < n; i++ {
		closePx := candles[i].Close

		if gapUp := candles[i].Low - candles[i-2].High; gapUp > closePx*minGap {
			bottom := candles[i-2].High
			top := candles[i].Low
			mid := (top + bottom) / 2
			filled := false
			for k := i + 1; k < n; k++ {
				if candles[k].Low <= mid {
					filled = true
					break
				}
			}
			gaps = append(gaps, FairValueGap{
				Kind:       BullishFVG,
				Top:        top,
				Bottom:     bottom,
				Index:      i - 1,
				Size:       gapUp / closePx,
				Filled:     filled,
				CandlesAgo: n - 1 - (i - 1),
			})
		}

		if gapDown := candles[i-2].Low - candles[i].High; gapDown > closePx*minGap {
			top := candles[i-2].Low
			bottom := candles[i].High
			mid := (top + bottom) / 2
			filled := false
			for k := i + 1; k < n; k++ {
				if candles[k].High >= mid {
					filled = true
					break
				}
			}
			gaps = append(gaps, FairValueGap{
				Kind:       BearishFVG,
				Top:        top,
				Bottom:     bottom,
				Index:      i - 1,
				Size:       gapDown / closePx,
				Filled:     filled,
				CandlesAgo: n - 1 - (i - 1),
			})
		}
	}

	return selectFVGs(gaps)
}

// selectFVGs 优先最近 5 个未回补缺口，否则退回最近 3 个。
func selectFVGs(gaps []FairValueGap) []FairValueGap {
	var open []FairValueGap
	for _, g := range gaps {
		if !g.Filled {
			open = append(open, g)
		}
	}
	if len(open) > 0 {
		return lastN(open, 5)
	}
	return lastN(gaps, 3)
}
