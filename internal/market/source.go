package market

import "context"

// SymbolStat 24h 排行所需的最小行情摘要。
type SymbolStat struct {
	Symbol      string
	QuoteVolume float64
	LastPrice   float64
}

// Source 统一不同交易所行情源的拉取行为（Market-Data Port）。
type Source interface {
	// FetchHistory 拉取最近 limit 根 K 线，升序返回。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// TopSymbols 按 24h 计价成交额降序返回不超过 count 个、
	// 且成交额不低于 minQuoteVolume 的合约交易对。
	TopSymbols(ctx context.Context, count int, minQuoteVolume float64) ([]string, error)

	// MidPrice 返回盘口中间价。
	MidPrice(ctx context.Context, symbol string) (float64, error)

	Close() error
}
