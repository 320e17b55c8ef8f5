package smc

import (
	"math"

	"cypher/internal/market"
)

// touchNeighborhood 计算摆动点强度时的单侧邻域（根数）。
const touchNeighborhood = 20

// touchTolerance 触碰判定的相对容差。经验阈值，下游置信度按此调参，勿改。
const touchTolerance = 0.001

// findSwings 找出窗口内全部摆动高/低点。
// i 是摆动高点当且仅当 high[i] 等于 [i-window, i+window] 闭区间内的最大 high；低点对称。
// 平台期（相邻多根同价）会产生重复摆动点，属预期行为：调用方只取最近的
// 1~3 个做分析，重复的"最近点"无害，这里不做去重。
func findSwings(candles []market.Candle, window int) (highs, lows []SwingPoint) {
	n := len(candles)
	if n < 2*window+1 {
		return nil, nil
	}
	for i := window; i < n-window; i++ {
		if isExtreme(candles, i, window, true) {
			highs = append(highs, SwingPoint{
				Index:    i,
				Price:    candles[i].High,
				Strength: countTouches(candles, i, true),
			})
		}
		if isExtreme(candles, i, window, false) {
			lows = append(lows, SwingPoint{
				Index:    i,
				Price:    candles[i].Low,
				Strength: countTouches(candles, i, false),
			})
		}
	}
	return highs, lows
}

func isExtreme(candles []market.Candle, i, window int, high bool) bool {
	for j := i - window; j <= i+window; j++ {
		if high && candles[j].High > candles[i].High {
			return false
		}
		if !high && candles[j].Low < candles[i].Low {
			return false
		}
	}
	return true
}

// countTouches 统计 ±20 根邻域内价格贴近该极值的蜡烛数（含自身）。
// 多次触碰的水平位更受尊重，强度随之提高。
func countTouches(candles []market.Candle, i int, high bool) int {
	ref := candles[i].High
	if !high {
		ref = candles[i].Low
	}
	lo := i - touchNeighborhood
	if lo < 0 {
		lo = 0
	}
	hi := i + touchNeighborhood
	if hi > len(candles) {
		hi = len(candles)
	}
	touches := 0
	for j := lo; j < hi; j++ {
		v := candles[j].High
		if !high {
			v = candles[j].Low
		}
		if math.Abs(v-ref)/ref < touchTolerance {
			touches++
		}
	}
	return touches
}
