package loader

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cypher/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchlistDefinition 描述一份可热更新的扫描清单：
// 固定交易对、黑名单与币种级杠杆覆盖。
type WatchlistDefinition struct {
	Pairs             []string       `mapstructure:"pairs"`
	Blocked           []string       `mapstructure:"blocked"`
	LeverageOverrides map[string]int `mapstructure:"leverage_overrides"`

	pairsUpper   []string
	blockedUpper map[string]struct{}
}

// PairsUpper 返回标准化后的交易对列表。
func (w WatchlistDefinition) PairsUpper() []string {
	out := make([]string, len(w.pairsUpper))
	copy(out, w.pairsUpper)
	return out
}

// IsBlocked 判断币种是否在黑名单中。
func (w WatchlistDefinition) IsBlocked(symbol string) bool {
	if len(w.blockedUpper) == 0 {
		return false
	}
	_, ok := w.blockedUpper[strings.ToUpper(strings.TrimSpace(symbol))]
	return ok
}

type fileConfig struct {
	Watchlist WatchlistDefinition `mapstructure:"watchlist"`
}

// WatchlistSnapshot 对外暴露的只读快照。
type WatchlistSnapshot struct {
	Version  int64
	LoadedAt time.Time
	Watchlist WatchlistDefinition
}

// ChangeListener 在清单变更时被调用。
type ChangeListener func(WatchlistSnapshot)

// WatchlistLoader 负责从 YAML 文件加载扫描清单，并监听热更新。
type WatchlistLoader struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  WatchlistSnapshot
	listeners []ChangeListener
}

// NewWatchlistLoader 读取清单文件并开始监听 FS 事件。
func NewWatchlistLoader(path string) (*WatchlistLoader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("watchlist loader requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read watchlist failed: %w", err)
	}
	l := &WatchlistLoader{path: path, v: v}
	if err := l.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := l.reload(); err != nil {
			logger.Errorf("watchlist reload failed (%s): %v", evt.Name, err)
			return
		}
		l.notify()
	})
	v.WatchConfig()
	return l, nil
}

// Snapshot 返回当前清单快照。
func (l *WatchlistLoader) Snapshot() WatchlistSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Subscribe 注册监听器，并立即收到一次完整快照。
func (l *WatchlistLoader) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	snap := l.snapshot
	l.mu.Unlock()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("watchlist listener panic: %v", r)
			}
		}()
		fn(snap)
	}()
}

func (l *WatchlistLoader) notify() {
	l.mu.RLock()
	snap := l.snapshot
	listeners := append([]ChangeListener(nil), l.listeners...)
	l.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("watchlist listener panic: %v", r)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func (l *WatchlistLoader) reload() error {
	var cfg fileConfig
	if err := l.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parse watchlist failed: %w", err)
	}
	def := normalizeWatchlist(cfg.Watchlist)
	l.mu.Lock()
	l.snapshot = WatchlistSnapshot{
		Version:   l.snapshot.Version + 1,
		LoadedAt:  time.Now(),
		Watchlist: def,
	}
	l.mu.Unlock()
	logger.Infof("Watchlist loader reloaded %d pairs from %s", len(def.pairsUpper), filepath.Base(l.path))
	return nil
}

func normalizeWatchlist(def WatchlistDefinition) WatchlistDefinition {
	def.pairsUpper = normalizeSymbols(def.Pairs)
	def.blockedUpper = make(map[string]struct{}, len(def.Blocked))
	for _, sym := range def.Blocked {
		s := strings.ToUpper(strings.TrimSpace(sym))
		if s != "" {
			def.blockedUpper[s] = struct{}{}
		}
	}
	overrides := make(map[string]int, len(def.LeverageOverrides))
	for sym, lev := range def.LeverageOverrides {
		s := strings.ToUpper(strings.TrimSpace(sym))
		if s != "" && lev > 0 {
			overrides[s] = lev
		}
	}
	def.LeverageOverrides = overrides
	return def
}

func normalizeSymbols(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, sym := range in {
		s := strings.ToUpper(strings.TrimSpace(sym))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
