package smc

import "cypher/internal/market"

// findOrderBlocks 扫描动能行情前的最后一根反向蜡烛。
// 合格条件：候选实体占比 ≥ obThreshold、其后 3 根内出现 ≥ displacementMin
// 的动能实体、且紧邻的下一根按方向收破候选的 high/low。
// Mitigated 每次调用都从候选之后向窗口末尾重新扫描，不存在跨调用的 OB 存储。
func findOrderBlocks(candles []market.Candle, obThreshold, displacementMin float64) []OrderBlock {
	var blocks []OrderBlock
	n := len(candles)

	for i := 2; i <= n-2; i++ {
		c := candles[i]
		if c.Body()/c.Close < obThreshold {
			continue
		}

		displacementSize, found := 0.0, false
		for j := i + 1; j < i+4 && j < n; j++ {
			move := candles[j].Body() / candles[j].Close
			if move >= displacementMin {
				displacementSize = move
				found = true
				break
			}
		}
		if !found {
			continue
		}

		next := candles[i+1]

		// 看涨 OB：阴烛后接收破其高点的阳烛。
		if c.Bearish() && next.Bullish() && next.Close > c.High {
			mitigated := false
			for k := i + 2; k < n; k++ {
				if candles[k].Close < c.Low {
					mitigated = true
					break
				}
			}
			blocks = append(blocks, OrderBlock{
				Kind:       BullishOB,
				High:       c.High,
				Low:        c.Low,
				Index:      i,
				Strength:   displacementSize,
				Mitigated:  mitigated,
				CandlesAgo: n - 1 - i,
			})
		}

		// 看跌 OB：阳烛后接收破其低点的阴烛。
		if c.Bullish() && next.Bearish() && next.Close < c.Low {
			mitigated := false
			for k := i + 2; k < n; k++ {
				if candles[k].Close > c.High {
					mitigated = true
					break
				}
			}
			blocks = append(blocks, OrderBlock{
				Kind:       BearishOB,
				High:       c.High,
				Low:        c.Low,
				Index:      i,
				Strength:   displacementSize,
				Mitigated:  mitigated,
				CandlesAgo: n - 1 - i,
			})
		}
	}

	return selectOrderBlocks(blocks)
}

// selectOrderBlocks 输出策略：优先给最近 5 个未失效 OB；
// 全部失效时退回最近 2 个，让调用方始终有上下文可用。
func selectOrderBlocks(blocks []OrderBlock) []OrderBlock {
	var fresh []OrderBlock
	for _, ob := range blocks {
		if !ob.Mitigated {
			fresh = append(fresh, ob)
		}
	}
	if len(fresh) > 0 {
		return lastN(fresh, 5)
	}
	return lastN(blocks, 2)
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
