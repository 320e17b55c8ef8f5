package mm

import "cypher/internal/config"

// 中文说明：
// 价差随波动走：波动大加宽保护自己，波动小收窄换成交。
// 库存偏斜在持仓过重时压低卖价、抬高买价价差，过轻时反过来。

const (
	defaultVolatility = 0.005
	minVolatility     = 0.002
	// 盘口价差比真实波动窄，放大一倍做代理
	volSpreadScale = 2.0
)

// estimateVolatility 用盘口价差作波动率代理。
func estimateVolatility(bid, ask float64) float64 {
	mid := (bid + ask) / 2
	if mid <= 0 || bid <= 0 || ask <= bid {
		return defaultVolatility
	}
	vol := (ask - bid) / mid * volSpreadScale
	if vol < minVolatility {
		vol = minVolatility
	}
	return vol
}

// dynamicSpread 按波动率缩放基础价差并按配置上下限截断。
func dynamicSpread(cfg config.MMConfig, baseBps, volatility float64) float64 {
	if !cfg.DynamicSpread {
		return baseBps
	}
	ratio := volatility / defaultVolatility
	if ratio < 0.5 {
		ratio = 0.5
	}
	bps := baseBps * ratio
	if bps < cfg.MinSpreadBps {
		bps = cfg.MinSpreadBps
	}
	if bps > cfg.MaxSpreadBps {
		bps = cfg.MaxSpreadBps
	}
	return bps
}

// inventorySkew 返回 (买侧偏斜, 卖侧偏斜)，单位 bps，加到基础价差上。
// 库存按目标名义（单笔挂单额）归一。
func inventorySkew(cfg config.MMConfig, baseValueUSD float64) (bidSkew, askSkew float64) {
	if !cfg.InventoryRebalance || cfg.SizeUSD <= 0 {
		return 0, 0
	}
	if baseValueUSD <= 0 {
		// 空仓：买得更急一点，卖不着急
		return -1, 2
	}
	ratio := baseValueUSD / cfg.SizeUSD
	switch {
	case ratio > 2.0:
		return 3, -2
	case ratio > 1.5:
		return 1, -1
	case ratio < 0.3:
		return -2, 3
	case ratio < 0.7:
		return -1, 1
	}
	return 0, 0
}
