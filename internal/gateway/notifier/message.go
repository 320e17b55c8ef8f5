package notifier

import (
	"strings"
	"time"
)

// Telegram 正文上限 4096，留出余量给围栏和时间戳。
const maxRenderLen = 3900

// Section 通知正文里的一个段落，Head 可空。
type Section struct {
	Head  string
	Lines []string
}

// Message 一条交易事件通知，events.go 里的模板函数负责组装。
type Message struct {
	Icon     string
	Title    string
	Sections []Section
	At       time.Time
}

// Render 渲染为 Telegram Markdown 文本。
// 标题加粗，正文进代码围栏，超长裁剪。
func (m Message) Render() string {
	var b strings.Builder
	title := strings.TrimSpace(m.Icon + " " + m.Title)
	if title != "" {
		b.WriteString("*" + escapeFence(title) + "*\n")
	}
	if body := m.renderBody(); body != "" {
		b.WriteString("```\n")
		b.WriteString(body)
		b.WriteString("```\n")
	}
	if !m.At.IsZero() {
		b.WriteString("⏱ " + m.At.Format("2006-01-02 15:04:05"))
	}
	out := strings.TrimSpace(b.String())
	if len(out) > maxRenderLen {
		out = out[:maxRenderLen] + "…"
	}
	return out
}

func (m Message) renderBody() string {
	var b strings.Builder
	for _, sec := range m.Sections {
		kept := 0
		for _, line := range sec.Lines {
			if strings.TrimSpace(line) != "" {
				kept++
			}
		}
		if kept == 0 {
			continue
		}
		if head := strings.TrimSpace(sec.Head); head != "" {
			b.WriteString("【" + escapeFence(head) + "】\n")
		}
		for _, line := range sec.Lines {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			b.WriteString(escapeFence(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// escapeFence 防止正文里的反引号串破坏代码围栏。
func escapeFence(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
