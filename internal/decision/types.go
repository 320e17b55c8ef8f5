package decision

import (
	"context"

	"cypher/internal/analysis/scalper"
	"cypher/internal/analysis/smc"
)

// Action 是裁决动作。
type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionSkip  Action = "SKIP"
)

// Decision 是最终裁决：做什么、多确定、为什么。
type Decision struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Skip 构造一个带理由的放弃裁决。
func Skip(reason string) Decision {
	return Decision{Action: ActionSkip, Confidence: 0, Reason: reason}
}

// Input 汇总一次裁决所需的全部分析上下文。
type Input struct {
	Symbol  string
	Price   float64
	Balance float64
	SMC     smc.AnalysisResult
	MA      scalper.Result
	Trend5m smc.Signal
	Bias15m smc.Signal
}

// ChatModel 是裁决用到的最小模型接口。
type ChatModel interface {
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
