package market

import "sync"

// WindowStore 按 symbol+interval 维护固定长度的滚动 K 线窗口。
// 分析引擎每次调用都拿到自己的副本，互不共享可变状态。
type WindowStore struct {
	mu   sync.RWMutex
	max  int
	data map[string][]Candle
}

func NewWindowStore(max int) *WindowStore {
	if max <= 0 {
		max = 200
	}
	return &WindowStore{max: max, data: make(map[string][]Candle)}
}

func key(symbol, interval string) string {
	return symbol + "@" + interval
}

// Put 整体替换窗口，超出上限时保留最新部分。
func (s *WindowStore) Put(symbol, interval string, candles []Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(candles) > s.max {
		candles = candles[len(candles)-s.max:]
	}
	cp := make([]Candle, len(candles))
	copy(cp, candles)
	s.data[key(symbol, interval)] = cp
}

// Append 追加一根收盘 K 线；同一 open_time 覆盖旧值。
func (s *WindowStore) Append(symbol, interval string, c Candle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(symbol, interval)
	win := s.data[k]
	if n := len(win); n > 0 && win[n-1].OpenTime == c.OpenTime {
		win[n-1] = c
	} else {
		win = append(win, c)
	}
	if len(win) > s.max {
		win = win[len(win)-s.max:]
	}
	s.data[k] = win
}

// Window 返回当前窗口的副本；不存在时返回 nil。
func (s *WindowStore) Window(symbol, interval string) []Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	win, ok := s.data[key(symbol, interval)]
	if !ok {
		return nil
	}
	cp := make([]Candle, len(win))
	copy(cp, win)
	return cp
}
