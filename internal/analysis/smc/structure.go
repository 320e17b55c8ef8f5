package smc

import "cypher/internal/market"

// detectBOS 顺势突破：当前收盘价与倒数第二个摆动位比较。
// 最近一个摆动点可能正由当前价格自身形成，所以基准取 [-2]。
// 多空两个方向互不排斥，可在同一次调用里同时触发，由计分侧净额化。
func detectBOS(candles []market.Candle, swingHighs, swingLows []SwingPoint) []StructureEvent {
	var events []StructureEvent
	if len(swingHighs) < 2 || len(swingLows) < 2 {
		return events
	}

	prevHigh := swingHighs[len(swingHighs)-2]
	prevLow := swingLows[len(swingLows)-2]
	currentPrice := candles[len(candles)-1].Close

	if currentPrice > prevHigh.Price {
		events = append(events, StructureEvent{
			Kind:       BullishBOS,
			Level:      prevHigh.Price,
			Strength:   (currentPrice - prevHigh.Price) / prevHigh.Price,
			CandlesAgo: len(candles) - 1 - prevHigh.Index,
		})
	}
	if currentPrice < prevLow.Price {
		events = append(events, StructureEvent{
			Kind:       BearishBOS,
			Level:      prevLow.Price,
			Strength:   (prevLow.Price - currentPrice) / prevLow.Price,
			CandlesAgo: len(candles) - 1 - prevLow.Index,
		})
	}
	return events
}

// detectMSS 反转结构：曾走出更高高点却出现更低低点（或镜像），
// 并且从破位摆动点起 5 根内出现同向动能蜡烛才确认。
// 没有动能确认就静默不报——这是 MSS 与普通 CHoCH 的区别。
func detectMSS(candles []market.Candle, swingHighs, swingLows []SwingPoint, displacementMin float64) []StructureEvent {
	var events []StructureEvent
	if len(swingHighs) < 3 || len(swingLows) < 3 {
		return events
	}

	h1 := swingHighs[len(swingHighs)-3]
	h2 := swingHighs[len(swingHighs)-2]
	h3 := swingHighs[len(swingHighs)-1]
	l1 := swingLows[len(swingLows)-3]
	l2 := swingLows[len(swingLows)-2]
	l3 := swingLows[len(swingLows)-1]

	// 看跌 MSS：前期更高高点，现在跌出更低低点。
	if h2.Price > h1.Price && l3.Price < l2.Price {
		if move, ok := findDisplacementCandle(candles, l2.Index, displacementMin, false); ok {
			events = append(events, StructureEvent{
				Kind:         BearishMSS,
				Level:        l2.Price,
				Strength:     move,
				Displacement: true,
			})
		}
	}

	// 看涨 MSS：前期更低低点，现在突破更高高点。
	if l2.Price < l1.Price && h3.Price > h2.Price {
		if move, ok := findDisplacementCandle(candles, h2.Index, displacementMin, true); ok {
			events = append(events, StructureEvent{
				Kind:         BullishMSS,
				Level:        h2.Price,
				Strength:     move,
				Displacement: true,
			})
		}
	}
	return events
}

// findDisplacementCandle 从 breakIdx 起向后最多扫 5 根，找首根
// 实体占比 >0.6、实体涨跌幅 ≥ displacementMin 且方向匹配的蜡烛。
func findDisplacementCandle(candles []market.Candle, breakIdx int, displacementMin float64, bullish bool) (float64, bool) {
	end := breakIdx + 5
	if end > len(candles) {
		end = len(candles)
	}
	for i := breakIdx; i < end; i++ {
		c := candles[i]
		rng := c.Range()
		if rng <= 0 || c.Body()/rng <= 0.6 {
			continue
		}
		move := c.Body() / c.Close
		if move < displacementMin {
			continue
		}
		if bullish && c.Bullish() {
			return move, true
		}
		if !bullish && c.Bearish() {
			return move, true
		}
	}
	return 0, false
}
