package decision

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// decisionSchema 裁决对象的结构约束：action 必填，confidence 数值，
// reason 字符串。动作取值另行校验，避免把大小写问题变成 schema 报错。
var decisionSchema = jsonschema.MustCompileString("decision.json", `{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {"type": "string"},
		"confidence": {"type": ["number", "string"]},
		"reason": {"type": "string"}
	}
}`)

// ParseDecision 解析模型返回的裁决 JSON。
// 模型偶尔会带 markdown 代码围栏或前后杂讯，先剥离再取首个 JSON 对象。
func ParseDecision(raw string) (Decision, error) {
	text := stripFences(strings.TrimSpace(raw))
	obj, ok := extractJSONObject(text)
	if !ok {
		return Decision{}, fmt.Errorf("no JSON object in response: %q", truncate(raw, 120))
	}
	if !gjson.Valid(obj) {
		return Decision{}, fmt.Errorf("invalid JSON in response: %q", truncate(obj, 120))
	}
	if err := decisionSchema.Validate(gjson.Parse(obj).Value()); err != nil {
		return Decision{}, fmt.Errorf("decision schema violation: %w", err)
	}

	action := strings.ToUpper(strings.TrimSpace(gjson.Get(obj, "action").String()))
	switch Action(action) {
	case ActionLong, ActionShort, ActionSkip:
	default:
		return Decision{}, fmt.Errorf("unknown action %q", action)
	}

	conf := gjson.Get(obj, "confidence").Float()
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	reason := strings.TrimSpace(gjson.Get(obj, "reason").String())
	if reason == "" {
		reason = "N/A"
	}
	return Decision{Action: Action(action), Confidence: conf, Reason: reason}, nil
}

// stripFences 去掉 ```json ... ``` 这类围栏。
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSONObject 按花括号配对截取首个完整对象，忽略字符串里的花括号。
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
