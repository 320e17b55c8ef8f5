package smc

import "cypher/internal/market"

// detectLiquiditySweeps 只检查最近 3 根蜡烛对最近 3 个摆动位的扫荡。
// 看跌扫荡：影线上破摆动高点但收回其下（猎杀多头止损）；看涨镜像。
// 同一根蜡烛可以对多个水平位、甚至两个方向同时登记扫荡，互不排斥。
// Confirmed 需要下一根蜡烛存在且按扫荡方向收盘。
func detectLiquiditySweeps(candles []market.Candle, swingHighs, swingLows []SwingPoint) []LiquiditySweep {
	var sweeps []LiquiditySweep
	if len(swingHighs) < 2 || len(swingLows) < 2 {
		return sweeps
	}
	n := len(candles)

	recentHighs := lastN(swingHighs, 3)
	recentLows := lastN(swingLows, 3)

	// ago: 0=最新蜡烛, 1, 2。
	maxAgo := 3
	if n-1 < maxAgo {
		maxAgo = n - 1
	}
	for ago := 0; ago < maxAgo; ago++ {
		candle := candles[n-1-ago]
		hasNext := ago > 0

		for _, sh := range recentHighs {
			if candle.High > sh.Price && candle.Close < sh.Price {
				wickDepth := candle.High - sh.Price
				wickRatio := 0.0
				if body := candle.Body(); body > 0 {
					wickRatio = wickDepth / body
				}
				confirmed := hasNext && candles[n-ago].Bearish()
				sweeps = append(sweeps, LiquiditySweep{
					Kind:       BearishSweep,
					Level:      sh.Price,
					WickDepth:  wickDepth,
					WickRatio:  wickRatio,
					Confirmed:  confirmed,
					CandlesAgo: ago,
				})
			}
		}

		for _, sl := range recentLows {
			if candle.Low < sl.Price && candle.Close > sl.Price {
				wickDepth := sl.Price - candle.Low
				wickRatio := 0.0
				if body := candle.Body(); body > 0 {
					wickRatio = wickDepth / body
				}
				confirmed := hasNext && candles[n-ago].Bullish()
				sweeps = append(sweeps, LiquiditySweep{
					Kind:       BullishSweep,
					Level:      sl.Price,
					WickDepth:  wickDepth,
					WickRatio:  wickRatio,
					Confirmed:  confirmed,
					CandlesAgo: ago,
				})
			}
		}
	}
	return sweeps
}
