package mm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cypher/internal/config"
	"cypher/internal/gateway/exchange"
	"cypher/internal/gateway/notifier"
	"cypher/internal/logger"
)

// minOrderNotionalUSD 交易所最小挂单名义。
const minOrderNotionalUSD = 11.0

// volCacheTTL 波动率估计的缓存时长。
const volCacheTTL = 2 * time.Minute

// Stats 做市循环的运行摘要。
type Stats struct {
	Cycles     int       `json:"cycles"`
	LastRun    time.Time `json:"last_run"`
	LastReason string    `json:"last_reason"`
}

type volEntry struct {
	at  time.Time
	vol float64
}

// Maker 现货网格做市：每轮撤掉旧挂单，按动态价差和库存偏斜重挂买卖单。
type Maker struct {
	cfg    config.MMConfig
	spot   exchange.Spot
	notify notifier.Notifier
	now    func() time.Time

	mu       sync.Mutex
	volCache map[string]volEntry
	cycles   int
	lastRun  time.Time
	lastWhy  string
}

func New(cfg config.MMConfig, spot exchange.Spot, notify notifier.Notifier) *Maker {
	return &Maker{
		cfg:      cfg,
		spot:     spot,
		notify:   notify,
		now:      time.Now,
		volCache: make(map[string]volEntry),
	}
}

// Run 按刷新间隔跑定时做市循环，直到 ctx 取消。
func (m *Maker) Run(ctx context.Context) error {
	if !m.cfg.Enabled {
		<-ctx.Done()
		return ctx.Err()
	}
	interval := time.Duration(m.cfg.RefreshSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.RunCycle(ctx, "scheduled"); err != nil {
				logger.Warnf("[mm] 定时做市失败: %v", err)
			}
		}
	}
}

// RunCycle 跑一轮做市：撤旧单、按对重挂。交易循环在空闲/冷却时也会调它。
func (m *Maker) RunCycle(ctx context.Context, reason string) error {
	if !m.cfg.Enabled || m.spot == nil {
		return nil
	}
	m.mu.Lock()
	m.cycles++
	m.lastRun = m.now()
	m.lastWhy = reason
	m.mu.Unlock()
	logger.Infof("[mm] 做市循环 (%s)", reason)

	quote := quoteAsset(m.cfg.Pairs)
	freeQuote, _, err := m.spot.AssetBalance(ctx, quote)
	if err != nil {
		return fmt.Errorf("mm: %s 余额查询失败: %w", quote, err)
	}

	holdingsValue := 0.0
	for _, pair := range m.cfg.Pairs {
		base, _ := splitPair(pair)
		free, locked, err := m.spot.AssetBalance(ctx, base)
		if err != nil {
			continue
		}
		if mid, err := m.spot.MidPrice(ctx, pair); err == nil {
			holdingsValue += (free + locked) * mid
		}
	}
	if freeQuote < m.cfg.MinBalance && holdingsValue <= 0 {
		logger.Infof("[mm] %s 余额 $%.2f 低于下限且无库存, 跳过", quote, freeQuote)
		return nil
	}

	allocPerPair := freeQuote * m.cfg.AllocPct / float64(len(m.cfg.Pairs))

	for _, pair := range m.cfg.Pairs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.quotePair(ctx, pair, allocPerPair); err != nil {
			logger.Warnf("[mm] %s 报价失败: %v", pair, err)
		}
	}
	return nil
}

// quotePair 为单个交易对撤旧挂新。
func (m *Maker) quotePair(ctx context.Context, pair string, allocUSD float64) error {
	if err := m.spot.CancelOpenOrders(ctx, pair); err != nil {
		logger.Debugf("[mm] %s 撤单失败(可能无挂单): %v", pair, err)
	}

	bid, ask, err := m.spot.BookTop(ctx, pair)
	if err != nil {
		return err
	}
	mid := (bid + ask) / 2
	if mid <= 0 {
		return fmt.Errorf("no price for %s", pair)
	}

	spreadBps := dynamicSpread(m.cfg, m.cfg.SpreadFor(pair), m.volatility(pair, bid, ask))

	base, _ := splitPair(pair)
	freeBase, lockedBase, err := m.spot.AssetBalance(ctx, base)
	if err != nil {
		freeBase, lockedBase = 0, 0
	}
	bidSkew, askSkew := inventorySkew(m.cfg, (freeBase+lockedBase)*mid)

	bidSpread := spreadBps + bidSkew
	if bidSpread < m.cfg.MinSpreadBps {
		bidSpread = m.cfg.MinSpreadBps
	}
	askSpread := spreadBps + askSkew
	if askSpread < m.cfg.MinSpreadBps {
		askSpread = m.cfg.MinSpreadBps
	}

	bidPx := mid * (1 - bidSpread/10000)
	askPx := mid * (1 + askSpread/10000)

	bidQty, askQty := 0.0, 0.0

	// 买侧：用计价资产买入
	bidUSD := m.cfg.SizeUSD
	if bidUSD < minOrderNotionalUSD {
		bidUSD = minOrderNotionalUSD
	}
	if allocUSD >= bidUSD {
		qty := bidUSD / bidPx
		if id, err := m.spot.PlaceLimit(ctx, exchange.SpotOrder{
			Pair: pair, Side: "buy", Price: bidPx, Quantity: qty,
		}); err != nil {
			logger.Warnf("[mm] BID %s 失败: %v", pair, err)
		} else {
			bidQty = qty
			logger.Infof("[mm] BID %s: %.6f @ %.6f (~$%.2f) [%.1fbps] id=%s", pair, qty, bidPx, qty*bidPx, bidSpread, id)
		}
	} else {
		logger.Debugf("[mm] BID %s 跳过: 需要 $%.0f, 可用 $%.2f", pair, bidUSD, allocUSD)
	}

	// 卖侧：把库存挂出去
	if freeBase*askPx >= minOrderNotionalUSD-1 {
		qty := m.cfg.SizeUSD / askPx
		if qty > freeBase {
			qty = freeBase
		}
		if qty*askPx >= minOrderNotionalUSD-1 {
			if id, err := m.spot.PlaceLimit(ctx, exchange.SpotOrder{
				Pair: pair, Side: "sell", Price: askPx, Quantity: qty,
			}); err != nil {
				logger.Warnf("[mm] ASK %s 失败: %v", pair, err)
			} else {
				askQty = qty
				logger.Infof("[mm] ASK %s: %.6f @ %.6f (~$%.2f) [%.1fbps] id=%s", pair, qty, askPx, qty*askPx, askSpread, id)
			}
		}
	}

	if (bidQty > 0 || askQty > 0) && m.notify != nil {
		msg := notifier.MMCycle(pair, mid, (askPx-bidPx)/mid*10000, bidQty, askQty)
		if err := m.notify.Push(msg); err != nil {
			logger.Debugf("[mm] 通知发送失败: %v", err)
		}
	}
	return nil
}

// Shutdown 撤掉所有做市挂单。
func (m *Maker) Shutdown(ctx context.Context) {
	if m.spot == nil {
		return
	}
	for _, pair := range m.cfg.Pairs {
		if err := m.spot.CancelOpenOrders(ctx, pair); err != nil {
			logger.Warnf("[mm] %s 收盘撤单失败: %v", pair, err)
		}
	}
}

// Stats 返回运行摘要快照。
func (m *Maker) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Cycles: m.cycles, LastRun: m.lastRun, LastReason: m.lastWhy}
}

// volatility 带 2 分钟缓存的波动率估计。
func (m *Maker) volatility(pair string, bid, ask float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.volCache[pair]; ok && m.now().Sub(cached.at) < volCacheTTL {
		return cached.vol
	}
	vol := estimateVolatility(bid, ask)
	m.volCache[pair] = volEntry{at: m.now(), vol: vol}
	return vol
}

// splitPair 拆出 base/quote。支持 "BTC/USDT" 与 "BTCUSDT" 两种写法。
func splitPair(pair string) (base, quote string) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if i := strings.Index(pair, "/"); i > 0 {
		return pair[:i], pair[i+1:]
	}
	for _, q := range []string{"USDT", "USDC", "FDUSD", "BUSD"} {
		if strings.HasSuffix(pair, q) && len(pair) > len(q) {
			return strings.TrimSuffix(pair, q), q
		}
	}
	return pair, "USDT"
}

func quoteAsset(pairs []string) string {
	if len(pairs) == 0 {
		return "USDT"
	}
	_, quote := splitPair(pairs[0])
	return quote
}
