package trader

import "cypher/internal/config"

// 中文说明：
// 止损止盈按 ATR 自适应：波动大给更宽的止损，但始终保证 2:1 盈亏比，
// 并限制在 1.5%~4%（SL）/ 10%（TP）内。仓位按余额固定风险比例加杠杆，
// 上限为余额一半的名义，下限 $11（交易所最小名义）。

const (
	minStopLossPct   = 0.015
	maxStopLossPct   = 0.04
	maxTakeProfitPct = 0.10
	minNotionalUSD   = 11.0
	maxBalanceShare  = 0.50
)

// Levels 根据 ATR 百分比计算 (止损%, 止盈%)。
func Levels(cfg config.TradingConfig, atrPct float64) (slPct, tpPct float64) {
	if !cfg.UseATRStops || atrPct <= 0 {
		return cfg.StopLossPct, cfg.TakeProfitPct
	}
	slPct = atrPct * cfg.ATRSLMultiplier
	if slPct < minStopLossPct {
		slPct = minStopLossPct
	}
	tpPct = atrPct * cfg.ATRTPMultiplier
	if tpPct < slPct*2 {
		tpPct = slPct * 2
	}
	if slPct > maxStopLossPct {
		slPct = maxStopLossPct
	}
	if tpPct > maxTakeProfitPct {
		tpPct = maxTakeProfitPct
	}
	return slPct, tpPct
}

// PositionSize 计算名义仓位（USD）。
func PositionSize(balance float64, riskPerTrade float64, leverage int) float64 {
	size := balance * riskPerTrade * float64(leverage)
	if limit := balance * maxBalanceShare * float64(leverage); size > limit {
		size = limit
	}
	if size < minNotionalUSD {
		size = minNotionalUSD
	}
	return size
}

// StopPrices 把百分比换算成触发价。
func StopPrices(entry float64, long bool, slPct, tpPct float64) (stopLoss, takeProfit float64) {
	if long {
		return entry * (1 - slPct), entry * (1 + tpPct)
	}
	return entry * (1 + slPct), entry * (1 - tpPct)
}

// TrailStop 价格向有利方向移动时上移（做多）或下移（做空）止损。
// 返回新的止损价和是否发生移动。
func TrailStop(price, currentSL float64, long bool, trailingPct float64) (float64, bool) {
	if trailingPct <= 0 || price <= 0 {
		return currentSL, false
	}
	if long {
		if next := price * (1 - trailingPct); next > currentSL {
			return next, true
		}
		return currentSL, false
	}
	if next := price * (1 + trailingPct); next < currentSL {
		return next, true
	}
	return currentSL, false
}
