// Package copytrade mirrors the master account's futures positions to
// follower accounts and accrues management fees on the copied flow.
package copytrade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cypher/internal/config"
	"cypher/internal/gateway/exchange"
	"cypher/internal/logger"
	"cypher/internal/store/journal"
)

const (
	// tradeFeePct 每笔跟单按名义价值收取的固定费率。
	tradeFeePct = 0.005
	// maxRiskPct 单笔跟单占 follower 分配资金的上限。
	maxRiskPct = 0.10
	// minFeeCollectionUSD 低于此金额不划转，避免碎账。
	minFeeCollectionUSD = 0.10
	// feeCollectInterval 费用划转的节流间隔。
	feeCollectInterval = time.Hour

	defaultSyncInterval = 15 * time.Second
)

// FeeLedger 是费用与高水位的持久化端口，由 journal 实现。
type FeeLedger interface {
	AddFee(ctx context.Context, rec journal.FeeRecord) error
	HighWater(ctx context.Context, follower string) (float64, error)
	SetHighWater(ctx context.Context, follower string, value float64) error
}

// FollowerFactory 为单个 follower 凭证构造合约客户端。
type FollowerFactory func(cfg config.FollowerConfig) (exchange.Futures, error)

// Stats 跟单系统的运行摘要。
type Stats struct {
	Followers      int       `json:"followers"`
	Syncs          int       `json:"syncs"`
	TradesCopied   int       `json:"trades_copied"`
	PendingFeesUSD float64   `json:"pending_fees_usd"`
	LastSync       time.Time `json:"last_sync"`
}

type follower struct {
	name    string
	futures exchange.Futures

	pendingUSD float64
	trades     int
}

// Mirror 周期性地把 master 的持仓增量同步到所有 follower。
type Mirror struct {
	cfg       config.CopyTradeConfig
	master    exchange.Futures
	ledger    FeeLedger
	feeWallet string
	now       func() time.Time

	mu          sync.Mutex
	followers   []*follower
	syncs       int
	lastSync    time.Time
	lastCollect time.Time
}

// New 按配置实例化所有启用的 follower 客户端。
func New(cfg config.CopyTradeConfig, master exchange.Futures, ledger FeeLedger, feeWallet string, factory FollowerFactory) (*Mirror, error) {
	m := &Mirror{
		cfg:       cfg,
		master:    master,
		ledger:    ledger,
		feeWallet: feeWallet,
		now:       time.Now,
	}
	if !cfg.Enabled {
		return m, nil
	}
	for _, fc := range cfg.Followers {
		if !fc.Enabled {
			continue
		}
		fut, err := factory(fc)
		if err != nil {
			return nil, fmt.Errorf("copytrade: follower %s 初始化失败: %w", fc.Name, err)
		}
		m.followers = append(m.followers, &follower{name: fc.Name, futures: fut})
	}
	logger.Infof("[copy] 已加载 %d 个 follower", len(m.followers))
	return m, nil
}

// Run 按固定间隔同步所有 follower，直到 ctx 取消。
func (m *Mirror) Run(ctx context.Context) error {
	if !m.cfg.Enabled || len(m.followers) == 0 || m.master == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(defaultSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.SyncOnce(ctx); err != nil {
				logger.Warnf("[copy] 同步失败: %v", err)
			}
		}
	}
}

// SyncOnce 跑一轮镜像：平掉 master 已平的仓、补开 master 新开的仓，
// 并按高水位计提绩效费。
func (m *Mirror) SyncOnce(ctx context.Context) error {
	if !m.cfg.Enabled || m.master == nil {
		return nil
	}

	masterBal, err := m.master.Balance(ctx)
	if err != nil {
		return fmt.Errorf("copytrade: master 余额查询失败: %w", err)
	}
	if masterBal.Total <= 0 {
		return nil
	}
	positions, err := m.master.ListOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("copytrade: master 持仓查询失败: %w", err)
	}
	masterPos := make(map[string]exchange.Position, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 {
			masterPos[p.Symbol] = p
		}
	}

	m.mu.Lock()
	m.syncs++
	m.lastSync = m.now()
	followers := append([]*follower(nil), m.followers...)
	m.mu.Unlock()

	for _, f := range followers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.mirrorFollower(ctx, f, masterBal.Total, masterPos); err != nil {
			logger.Warnf("[copy] %s 镜像失败: %v", f.name, err)
		}
	}

	m.maybeCollectFees(ctx, followers)
	return nil
}

// mirrorFollower 把单个 follower 对齐到 master 的持仓集合。
func (m *Mirror) mirrorFollower(ctx context.Context, f *follower, masterTotal float64, masterPos map[string]exchange.Position) error {
	bal, err := f.futures.Balance(ctx)
	if err != nil {
		return err
	}
	if bal.Total <= 0 {
		logger.Debugf("[copy] %s 余额为 0, 跳过", f.name)
		return nil
	}

	m.accruePerformanceFee(ctx, f, bal.Total)

	own, err := f.futures.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	ownPos := make(map[string]exchange.Position, len(own))
	for _, p := range own {
		if p.Quantity > 0 {
			ownPos[p.Symbol] = p
		}
	}

	// master 已平的仓位先平掉
	for symbol, pos := range ownPos {
		if _, ok := masterPos[symbol]; ok {
			continue
		}
		if err := f.futures.Close(ctx, exchange.CloseRequest{
			Symbol: symbol,
			Side:   pos.Side,
			Reason: "copy-close",
		}); err != nil {
			logger.Warnf("[copy] %s 平仓 %s 失败: %v", f.name, symbol, err)
			continue
		}
		logger.Infof("[copy] %s: 跟平 %s", f.name, symbol)
	}

	// 按 master 仓位占比开新仓，缩放到 follower 的跟单资金
	scalpAlloc := bal.Total * m.cfg.AllocScalpPct
	for symbol, pos := range masterPos {
		if _, ok := ownPos[symbol]; ok {
			continue
		}
		sizePct := pos.NotionalUSD() / masterTotal
		if sizePct > maxRiskPct {
			sizePct = maxRiskPct
		}
		notional := scalpAlloc * sizePct
		price := pos.MarkPrice
		if price <= 0 {
			price = pos.EntryPrice
		}
		if price <= 0 || notional <= 0 {
			continue
		}
		quantity := notional / price

		if _, err := f.futures.Open(ctx, exchange.OpenRequest{
			Symbol:     symbol,
			Side:       pos.Side,
			Quantity:   quantity,
			Leverage:   pos.Leverage,
			StopLoss:   pos.StopLoss,
			TakeProfit: pos.TakeProfit,
			Tag:        "copy",
		}); err != nil {
			logger.Warnf("[copy] %s 跟开 %s 失败: %v", f.name, symbol, err)
			continue
		}

		m.mu.Lock()
		f.trades++
		m.mu.Unlock()
		m.accrueTradeFee(ctx, f, symbol, notional)
		logger.Infof("[copy] %s: 跟开 %s %s ~$%.2f", f.name, pos.Side, symbol, notional)
	}
	return nil
}

// accruePerformanceFee 按高水位模型计提绩效费：只对超过历史最高余额的
// 新增利润收费，首次见到该 follower 时先落高水位不收费。
func (m *Mirror) accruePerformanceFee(ctx context.Context, f *follower, balance float64) {
	if m.ledger == nil || m.cfg.FeePct <= 0 {
		return
	}
	hwm, err := m.ledger.HighWater(ctx, f.name)
	if err != nil {
		logger.Warnf("[copy] %s 高水位读取失败: %v", f.name, err)
		return
	}
	if hwm <= 0 {
		if err := m.ledger.SetHighWater(ctx, f.name, balance); err != nil {
			logger.Warnf("[copy] %s 高水位初始化失败: %v", f.name, err)
		}
		return
	}
	if balance <= hwm {
		return
	}
	fee := (balance - hwm) * m.cfg.FeePct
	if err := m.ledger.AddFee(ctx, journal.FeeRecord{
		Follower:  f.name,
		Kind:      journal.FeeKindPerformance,
		AmountUSD: fee,
		Note:      fmt.Sprintf("hwm %.2f -> %.2f", hwm, balance),
	}); err != nil {
		logger.Warnf("[copy] %s 绩效费入账失败: %v", f.name, err)
		return
	}
	if err := m.ledger.SetHighWater(ctx, f.name, balance); err != nil {
		logger.Warnf("[copy] %s 高水位更新失败: %v", f.name, err)
	}
	m.mu.Lock()
	f.pendingUSD += fee
	m.mu.Unlock()
}

// accrueTradeFee 对每笔跟单按名义价值计提固定费率。
func (m *Mirror) accrueTradeFee(ctx context.Context, f *follower, symbol string, notional float64) {
	fee := notional * tradeFeePct
	if fee < 0.001 {
		return
	}
	if m.ledger != nil {
		if err := m.ledger.AddFee(ctx, journal.FeeRecord{
			Follower:  f.name,
			Kind:      journal.FeeKindTrade,
			AmountUSD: fee,
			Note:      symbol,
		}); err != nil {
			logger.Warnf("[copy] %s 交易费入账失败: %v", f.name, err)
			return
		}
	}
	m.mu.Lock()
	f.pendingUSD += fee
	m.mu.Unlock()
}

// maybeCollectFees 每小时把待收费用从 follower 账户划转到费用钱包。
// 余额不足时只划可用余额的一半，剩余留到下轮。
func (m *Mirror) maybeCollectFees(ctx context.Context, followers []*follower) {
	if m.feeWallet == "" {
		return
	}
	m.mu.Lock()
	due := m.lastCollect.IsZero() || m.now().Sub(m.lastCollect) >= feeCollectInterval
	if due {
		m.lastCollect = m.now()
	}
	m.mu.Unlock()
	if !due {
		return
	}

	for _, f := range followers {
		m.mu.Lock()
		pending := f.pendingUSD
		m.mu.Unlock()
		if pending < minFeeCollectionUSD {
			continue
		}

		bal, err := f.futures.Balance(ctx)
		if err != nil {
			continue
		}
		amount := pending
		if bal.Available < pending {
			amount = bal.Available * 0.5
			if amount < minFeeCollectionUSD {
				continue
			}
		}

		if err := f.futures.Transfer(ctx, "USDT", amount, m.feeWallet); err != nil {
			logger.Warnf("[copy] %s 费用划转失败: %v", f.name, err)
			continue
		}
		m.mu.Lock()
		f.pendingUSD -= amount
		if f.pendingUSD < 0 {
			f.pendingUSD = 0
		}
		m.mu.Unlock()
		logger.Infof("[copy] %s: 已收取费用 $%.2f", f.name, amount)
	}
}

// Stats 返回运行摘要快照。
func (m *Mirror) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Followers: len(m.followers),
		Syncs:     m.syncs,
		LastSync:  m.lastSync,
	}
	for _, f := range m.followers {
		s.TradesCopied += f.trades
		s.PendingFeesUSD += f.pendingUSD
	}
	return s
}
