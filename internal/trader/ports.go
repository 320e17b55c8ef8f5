package trader

import (
	"context"

	"cypher/internal/decision"
	"cypher/internal/store/journal"
)

// Oracle 最终裁决端口。
type Oracle interface {
	Confirm(ctx context.Context, in decision.Input) decision.Decision
}

// Journal 信号与交易流水端口，含币种学习统计。
type Journal interface {
	LogSignal(ctx context.Context, rec journal.SignalRecord) error
	LogTradeOpen(ctx context.Context, rec journal.TradeRecord) (int64, error)
	LogTradeClose(ctx context.Context, symbol string, exitPrice, pnlUSD float64, win bool) error
	ShouldAvoidSymbol(ctx context.Context, symbol string) bool
	ConfidenceAdjustment(ctx context.Context, symbol string) float64
}

// MMRunner 现货做市循环端口，空闲和熔断期间由交易循环驱动。
type MMRunner interface {
	RunCycle(ctx context.Context, reason string) error
}

// PairProvider 返回当前应扫描的交易对（观察表热更新后的结果）。
type PairProvider func(ctx context.Context) []string
