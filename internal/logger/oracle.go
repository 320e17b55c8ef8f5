package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// 预言机往返流水：把每次决策确认的提示词和原始回复落到独立文件，
// 复盘时对照 signals 表排查模型侧问题。

var (
	oracleMu   sync.Mutex
	oracleLog  *log.Logger
	dumpBodies bool
)

// SetOracleLog 指定预言机流水的输出目标，nil 关闭。
func SetOracleLog(w io.Writer) {
	oracleMu.Lock()
	defer oracleMu.Unlock()
	if w == nil {
		oracleLog = nil
		return
	}
	oracleLog = log.New(w, "", log.LstdFlags)
}

// EnableOraclePayloadDump 开启后请求流水额外带上原始 HTTP 载荷。
func EnableOraclePayloadDump(enabled bool) {
	oracleMu.Lock()
	dumpBodies = enabled
	oracleMu.Unlock()
}

// OracleRequest 记录一次发往模型的确认请求。
func OracleRequest(model, systemPrompt, userPrompt, payload string) {
	parts := []oraclePart{
		{"system", systemPrompt},
		{"user", userPrompt},
	}
	oracleMu.Lock()
	withBody := dumpBodies
	oracleMu.Unlock()
	if withBody && strings.TrimSpace(payload) != "" {
		parts = append(parts, oraclePart{"payload", payload})
	}
	writeOracle(">>> request", model, parts)
}

// OracleResponse 记录模型的原始回复。
func OracleResponse(model, raw string) {
	writeOracle("<<< response", model, []oraclePart{{"raw", raw}})
}

type oraclePart struct {
	label string
	body  string
}

func writeOracle(direction, model string, parts []oraclePart) {
	oracleMu.Lock()
	sink := oracleLog
	oracleMu.Unlock()
	if sink == nil {
		return
	}
	var b strings.Builder
	b.WriteString(direction)
	b.WriteString(" model=")
	b.WriteString(model)
	b.WriteString("\n")
	for _, p := range parts {
		b.WriteString("--- ")
		b.WriteString(p.label)
		b.WriteString(" ---\n")
		b.WriteString(p.body)
		if !strings.HasSuffix(p.body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	sink.Print(b.String())
}
