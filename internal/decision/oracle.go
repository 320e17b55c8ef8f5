package decision

import (
	"context"
	"fmt"

	"cypher/internal/logger"
)

// Oracle 最终裁决者：把两套引擎的分析交给外部模型复核。
// 模型不可用或返回不可解析时退化为规则裁决，不会让交易循环卡死。
type Oracle struct {
	model         ChatModel
	enabled       bool
	minConfidence float64
}

func NewOracle(model ChatModel, enabled bool, minConfidence float64) *Oracle {
	if minConfidence <= 0 {
		minConfidence = 0.65
	}
	return &Oracle{model: model, enabled: enabled, minConfidence: minConfidence}
}

// Confirm 返回一次完整裁决，永不返回 error。
func (o *Oracle) Confirm(ctx context.Context, in Input) Decision {
	if !o.enabled || o.model == nil {
		return Fallback(in, o.minConfidence)
	}

	raw, err := o.model.Chat(ctx, systemPrompt, BuildUserPrompt(in))
	if err != nil {
		logger.Warnf("[oracle] %s 模型请求失败, 走规则裁决: %v", in.Symbol, err)
		return Fallback(in, o.minConfidence)
	}

	d, err := ParseDecision(raw)
	if err != nil {
		logger.Warnf("[oracle] %s 模型返回不可解析, 走规则裁决: %v", in.Symbol, err)
		return Fallback(in, o.minConfidence)
	}

	// 低置信度一律放弃，模型的犹豫当作否决
	if d.Action != ActionSkip && d.Confidence < o.minConfidence {
		return Skip(fmt.Sprintf("Low Grok confidence: %s", d.Reason))
	}
	logger.Debugf("[oracle] %s -> %s (conf=%.2f): %s", in.Symbol, d.Action, d.Confidence, d.Reason)
	return d
}

// Sentiment 开机时的快评，只用于日志和推送，不参与裁决。
func (o *Oracle) Sentiment(ctx context.Context, coin string) string {
	if !o.enabled || o.model == nil {
		return "Sentiment unavailable"
	}
	prompt := fmt.Sprintf("In 1-2 sentences, what's the current sentiment and key level for %s? Just the key info.", coin)
	out, err := o.model.Chat(ctx, sentimentSystemPrompt, prompt)
	if err != nil || out == "" {
		return "Sentiment unavailable"
	}
	return out
}
