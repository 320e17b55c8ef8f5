package journal

import (
	"context"
	"fmt"
	"strings"
)

// 中文说明：
// 按币种历史胜率做两件事：连败币直接跳过，其余币按胜率缩放置信度。
// 样本不足时不做任何干预。

const (
	avoidMinTrades  = 5
	avoidWinRate    = 0.30
	adjustMinTrades = 3
)

// SymbolStats 单币种累计战绩。
type SymbolStats struct {
	Symbol   string
	Wins     int
	Losses   int
	TotalPnL float64
}

func (s SymbolStats) Trades() int { return s.Wins + s.Losses }

func (s SymbolStats) WinRate() float64 {
	total := s.Trades()
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total)
}

// SymbolStats 统计该币种所有已平仓交易。
func (j *Journal) SymbolStats(ctx context.Context, symbol string) (SymbolStats, error) {
	if j == nil || j.db == nil {
		return SymbolStats{}, fmt.Errorf("journal 未初始化")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var row struct {
		Wins     int
		Losses   int
		TotalPnL float64
	}
	err := j.db.WithContext(ctx).Model(&tradeModel{}).
		Select(
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS wins, "+
				"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS losses, "+
				"COALESCE(SUM(pnl_usd), 0) AS total_pn_l",
			ResultWin, ResultLoss,
		).
		Where("symbol = ? AND result != ''", symbol).
		Scan(&row).Error
	if err != nil {
		return SymbolStats{}, err
	}
	return SymbolStats{Symbol: symbol, Wins: row.Wins, Losses: row.Losses, TotalPnL: row.TotalPnL}, nil
}

// ShouldAvoidSymbol 连续表现差的币直接跳过扫描。
func (j *Journal) ShouldAvoidSymbol(ctx context.Context, symbol string) bool {
	stats, err := j.SymbolStats(ctx, symbol)
	if err != nil {
		return false
	}
	return stats.Trades() >= avoidMinTrades && stats.WinRate() < avoidWinRate
}

// ConfidenceAdjustment 按历史胜率返回置信度乘数（0.5~1.3）。
func (j *Journal) ConfidenceAdjustment(ctx context.Context, symbol string) float64 {
	stats, err := j.SymbolStats(ctx, symbol)
	if err != nil || stats.Trades() < adjustMinTrades {
		return 1.0
	}
	wr := stats.WinRate()
	switch {
	case wr >= 0.7:
		return 1.3
	case wr >= 0.5:
		return 1.1
	case wr >= 0.3:
		return 0.8
	default:
		return 0.5
	}
}

// Summary 全量战绩摘要，启动时打印。
func (j *Journal) Summary(ctx context.Context) string {
	if j == nil || j.db == nil {
		return "journal unavailable"
	}
	var row struct {
		Wins     int
		Losses   int
		TotalPnL float64
	}
	err := j.db.WithContext(ctx).Model(&tradeModel{}).
		Select(
			"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS wins, "+
				"SUM(CASE WHEN result = ? THEN 1 ELSE 0 END) AS losses, "+
				"COALESCE(SUM(pnl_usd), 0) AS total_pn_l",
			ResultWin, ResultLoss,
		).
		Where("result != ''").
		Scan(&row).Error
	if err != nil {
		return "journal unavailable"
	}
	total := row.Wins + row.Losses
	wr := 0.0
	if total > 0 {
		wr = float64(row.Wins) / float64(total) * 100
	}
	return fmt.Sprintf("Total: %d trades | WR: %.0f%% (%dW/%dL) | PnL: $%.2f",
		total, wr, row.Wins, row.Losses, row.TotalPnL)
}
