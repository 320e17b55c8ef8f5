// Package logger 进程级日志封装：slog 文本输出 + printf 风格入口，
// 级别和输出目标可在运行中切换。
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var std = newSink(os.Stdout)

type sink struct {
	mu    sync.RWMutex
	level slog.LevelVar
	log   *slog.Logger
}

func newSink(w io.Writer) *sink {
	s := &sink{}
	s.level.Set(slog.LevelInfo)
	s.log = s.build(w)
	return s
}

func (s *sink) build(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &s.level}))
}

func (s *sink) emit(lv slog.Level, format string, args []any) {
	s.mu.RLock()
	l := s.log
	s.mu.RUnlock()
	l.Log(context.Background(), lv, fmt.Sprintf(format, args...))
}

// SetOutput 切换日志输出目标，nil 回落到标准输出。
func SetOutput(w io.Writer) {
	std.mu.Lock()
	std.log = std.build(w)
	std.mu.Unlock()
}

// SetLevel 按名字设置日志级别，未知名字保持 info。
func SetLevel(name string) {
	std.level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debugf(format string, v ...any) { std.emit(slog.LevelDebug, format, v) }

func Infof(format string, v ...any) { std.emit(slog.LevelInfo, format, v) }

func Warnf(format string, v ...any) { std.emit(slog.LevelWarn, format, v) }

func Errorf(format string, v ...any) { std.emit(slog.LevelError, format, v) }
