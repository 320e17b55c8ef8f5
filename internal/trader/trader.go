package trader

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"cypher/internal/analysis/scalper"
	"cypher/internal/analysis/smc"
	"cypher/internal/config"
	"cypher/internal/decision"
	"cypher/internal/gateway/exchange"
	"cypher/internal/gateway/notifier"
	"cypher/internal/logger"
	"cypher/internal/market"
	"cypher/internal/store/journal"
)

// dryRunStartBalance 干跑模式下的模拟起始余额。
const dryRunStartBalance = 1000.0

// withdrawCheckInterval 利润划转检查的最小间隔。
const withdrawCheckInterval = time.Minute

// Deps 交易循环的全部外部依赖，可空项（Oracle/Journal/Notifier/MM/Pairs）按 nil 降级。
type Deps struct {
	Source   market.Source
	Futures  exchange.Futures
	SMC      *smc.Engine
	Scalper  *scalper.Scalper
	Oracle   Oracle
	Journal  Journal
	Notifier notifier.Notifier
	MM       MMRunner
	Pairs    PairProvider
}

// Stats 交易循环的实时统计快照。
type Stats struct {
	Cycle             int       `json:"cycle"`
	StartBalance      float64   `json:"start_balance"`
	Balance           float64   `json:"balance"`
	TradesTaken       int       `json:"trades_taken"`
	Wins              int       `json:"wins"`
	Losses            int       `json:"losses"`
	ConsecutiveLosses int       `json:"consecutive_losses"`
	TotalWithdrawn    float64   `json:"total_withdrawn"`
	IdleScans         int       `json:"idle_scans"`
	CooldownUntil     time.Time `json:"cooldown_until"`
	DailyHalted       bool      `json:"daily_halted"`
}

// trackedPosition 软止损账本里的一笔持仓。
type trackedPosition struct {
	Symbol     string
	Side       exchange.Side
	Quantity   float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	SizeUSD    float64
	Leverage   int
	OpenedAt   time.Time
}

// Trader 扫描-裁决-执行的主循环。
// 交易所侧挂了触发单兜底，这里再维护一套软止损负责移动止损和统计。
type Trader struct {
	cfg   *config.Config
	deps  Deps
	now   func() time.Time
	cache *market.WindowStore

	mu                sync.Mutex
	open              map[string]*trackedPosition
	startBalance      float64
	simBalance        float64
	tradesTaken       int
	wins              int
	losses            int
	consecutiveLosses int
	totalWithdrawn    float64
	lastBalance       float64
	idleScans         int
	cycle             int
	cooldownUntil     time.Time
	dailyHalted       bool
	lastWithdrawCheck time.Time
	lastEntryAt       time.Time
}

func New(cfg *config.Config, deps Deps) *Trader {
	return &Trader{
		cfg:        cfg,
		deps:       deps,
		now:        time.Now,
		cache:      market.NewWindowStore(cfg.Market.MaxCached),
		open:       make(map[string]*trackedPosition),
		simBalance: dryRunStartBalance,
	}
}

// Run 阻塞运行交易循环直到 ctx 取消。
func (t *Trader) Run(ctx context.Context) error {
	balance, err := t.balance(ctx)
	if err != nil {
		return fmt.Errorf("trader: 初始余额获取失败: %w", err)
	}
	t.mu.Lock()
	t.startBalance = balance
	t.mu.Unlock()
	logger.Infof("[trader] 启动, 余额 $%.2f, 扫描间隔 %ds", balance, t.cfg.Trading.ScanIntervalSeconds)

	interval := time.Duration(t.cfg.Trading.ScanIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t.runCycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats 返回统计快照。
func (t *Trader) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Cycle:             t.cycle,
		StartBalance:      t.startBalance,
		Balance:           t.lastBalance,
		TradesTaken:       t.tradesTaken,
		Wins:              t.wins,
		Losses:            t.losses,
		ConsecutiveLosses: t.consecutiveLosses,
		TotalWithdrawn:    t.totalWithdrawn,
		IdleScans:         t.idleScans,
		CooldownUntil:     t.cooldownUntil,
		DailyHalted:       t.dailyHalted,
	}
}

// OpenPositions 返回软止损账本快照。
func (t *Trader) OpenPositions() []exchange.Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]exchange.Position, 0, len(t.open))
	for _, p := range t.open {
		out = append(out, exchange.Position{
			Symbol:     p.Symbol,
			Side:       p.Side,
			Quantity:   p.Quantity,
			EntryPrice: p.EntryPrice,
			Leverage:   p.Leverage,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			UpdatedAt:  p.OpenedAt,
		})
	}
	return out
}

func (t *Trader) runCycle(ctx context.Context) {
	t.mu.Lock()
	t.cycle++
	cycle := t.cycle
	cooldownUntil := t.cooldownUntil
	t.mu.Unlock()

	now := t.now()
	if now.Before(cooldownUntil) {
		logger.Infof("[trader] 冷却中, 剩余 %s", cooldownUntil.Sub(now).Round(time.Second))
		t.runMMFallback(ctx, "cooldown")
		return
	}

	balance, err := t.balance(ctx)
	if err != nil {
		logger.Warnf("[trader] 余额获取失败: %v", err)
		return
	}
	t.mu.Lock()
	t.lastBalance = balance
	t.mu.Unlock()

	t.checkWithdrawal(ctx, balance)
	t.managePositions(ctx)

	t.mu.Lock()
	pnl := balance - t.startBalance
	wins, losses := t.wins, t.losses
	withdrawn := t.totalWithdrawn
	idle := t.idleScans
	openCount := len(t.open)
	t.mu.Unlock()
	logger.Infof("[trader] cycle=%d bal=$%.2f pnl=$%+.2f w/l=%d/%d withdrawn=$%.2f idle=%d open=%d",
		cycle, balance, pnl, wins, losses, withdrawn, idle, openCount)

	if t.dailyLossExceeded(balance) {
		t.runMMFallback(ctx, "daily-loss-limit")
		return
	}

	if openCount >= t.cfg.Trading.MaxOpenPositions {
		t.runMMFallback(ctx, "max-positions")
		return
	}

	entered := t.scan(ctx, balance, openCount)

	t.mu.Lock()
	if entered == 0 {
		t.idleScans++
	} else {
		t.idleScans = 0
	}
	idle = t.idleScans
	t.mu.Unlock()

	if t.cfg.MM.FallbackEnabled && idle >= t.cfg.MM.FallbackAfterScans {
		t.runMMFallback(ctx, fmt.Sprintf("idle-fallback (scan #%d)", idle))
	}
}

// scan 遍历观察列表寻找新入场，返回本轮开仓数。
func (t *Trader) scan(ctx context.Context, balance float64, openCount int) int {
	symbols := t.scanList(ctx)
	entered := 0

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return entered
		}
		if openCount+entered >= t.cfg.Trading.MaxOpenPositions {
			break
		}
		if entered >= t.cfg.Trading.MaxEntriesPerCycle {
			break
		}
		if t.hasOpen(symbol) {
			continue
		}
		if t.deps.Journal != nil && t.deps.Journal.ShouldAvoidSymbol(ctx, symbol) {
			continue
		}
		t.mu.Lock()
		spacing := time.Duration(t.cfg.Trading.MinSecondsBetweenEntry) * time.Second
		tooSoon := !t.lastEntryAt.IsZero() && t.now().Sub(t.lastEntryAt) < spacing
		t.mu.Unlock()
		if tooSoon {
			continue
		}

		if t.tryEnter(ctx, symbol, balance) {
			entered++
		}
	}
	return entered
}

// tryEnter 对单个币种做多周期分析、过滤、裁决和下单。
func (t *Trader) tryEnter(ctx context.Context, symbol string, balance float64) bool {
	bias15 := smc.SignalNeutral
	if t.cfg.Trading.RequireHTFBias {
		bias15 = t.htfBias(ctx, symbol)
	}
	trend5 := t.trend5m(ctx, symbol)

	candles, err := t.fetch(ctx, symbol, t.cfg.Market.ScalpInterval, t.cfg.SMC.Lookback+20)
	if err != nil || len(candles) == 0 {
		logger.Debugf("[trader] %s K线获取失败: %v", symbol, err)
		return false
	}

	smcRes := t.deps.SMC.Analyze(candles, bias15)
	maRes := t.deps.Scalper.Analyze(candles)

	price, err := t.deps.Source.MidPrice(ctx, symbol)
	if err != nil || price <= 0 {
		logger.Debugf("[trader] %s 中间价获取失败: %v", symbol, err)
		return false
	}

	verdict := EvaluateFilters(FilterInput{
		Cfg:     t.cfg.Trading,
		SMC:     smcRes,
		MA:      maRes,
		Trend5m: trend5,
		Bias15m: bias15,
		Price:   price,
	})
	if verdict.SkipReason != "" {
		logger.Debugf("[trader] %s 跳过: %s", symbol, verdict.SkipReason)
		return false
	}

	conf := verdict.Confidence
	if t.deps.Journal != nil {
		if adj := t.deps.Journal.ConfidenceAdjustment(ctx, symbol); adj != 1.0 {
			conf *= adj
			logger.Infof("[trader] %s 按历史胜率调整置信度 x%.1f -> %.2f", symbol, adj, conf)
		}
	}

	d := decision.Skip("oracle unavailable")
	if t.deps.Oracle != nil {
		d = t.deps.Oracle.Confirm(ctx, decision.Input{
			Symbol:  symbol,
			Price:   price,
			Balance: balance,
			SMC:     smcRes,
			MA:      maRes,
			Trend5m: trend5,
			Bias15m: bias15,
		})
	}

	if t.deps.Journal != nil {
		if err := t.deps.Journal.LogSignal(ctx, journal.SignalRecord{
			Symbol:           symbol,
			Direction:        string(verdict.Direction),
			Confidence:       conf,
			Price:            price,
			Approved:         d.Action != decision.ActionSkip,
			SMCSignal:        string(smcRes.Signal),
			SMCConfidence:    smcRes.Confidence,
			SMCDetails:       smcRes.Details,
			MASignal:         string(maRes.Signal),
			MAConfidence:     maRes.Confidence,
			MADetails:        maRes.Details,
			Trend5m:          string(trend5),
			Bias15m:          string(bias15),
			OracleAction:     string(d.Action),
			OracleConfidence: d.Confidence,
			OracleReason:     d.Reason,
		}); err != nil {
			logger.Warnf("[trader] 信号落库失败: %v", err)
		}
	}

	if d.Action == decision.ActionSkip {
		logger.Infof("[trader] %s 裁决跳过: %s", symbol, d.Reason)
		return false
	}

	return t.execute(ctx, symbol, d, smcRes, maRes, trend5, price, balance)
}

// execute 计算止损止盈和仓位后实际开仓。
func (t *Trader) execute(ctx context.Context, symbol string, d decision.Decision,
	smcRes smc.AnalysisResult, maRes scalper.Result, trend5 smc.Signal, price, balance float64) bool {

	long := d.Action == decision.ActionLong
	side := exchange.SideLong
	if !long {
		side = exchange.SideShort
	}

	slPct, tpPct := Levels(t.cfg.Trading, maRes.ATRPct)
	leverage := t.cfg.Trading.LeverageFor(symbol)
	sizeUSD := PositionSize(balance, t.cfg.Trading.MaxRiskPerTrade, leverage)
	quantity := sizeUSD / price
	stopLoss, takeProfit := StopPrices(price, long, slPct, tpPct)

	logger.Infof("[trader] %s %s $%.2f conf=%.2f SL=%.2f%% TP=%.2f%% 5m=%s",
		symbol, d.Action, sizeUSD, d.Confidence, slPct*100, tpPct*100, trend5)

	entry := price
	if !t.cfg.Trading.DryRun {
		res, err := t.deps.Futures.Open(ctx, exchange.OpenRequest{
			Symbol:     symbol,
			Side:       side,
			Quantity:   quantity,
			Leverage:   leverage,
			StopLoss:   stopLoss,
			TakeProfit: takeProfit,
			Tag:        "smc-entry",
		})
		if err != nil {
			logger.Warnf("[trader] %s 开仓失败: %v", symbol, err)
			return false
		}
		if res != nil && res.EntryPrice > 0 {
			entry = res.EntryPrice
		}
		if res != nil && res.Quantity > 0 {
			quantity = res.Quantity
		}
		stopLoss, takeProfit = StopPrices(entry, long, slPct, tpPct)
	}

	now := t.now()
	t.mu.Lock()
	t.open[symbol] = &trackedPosition{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryPrice: entry,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		SizeUSD:    sizeUSD,
		Leverage:   leverage,
		OpenedAt:   now,
	}
	t.lastEntryAt = now
	t.mu.Unlock()

	if t.deps.Journal != nil {
		if _, err := t.deps.Journal.LogTradeOpen(ctx, journal.TradeRecord{
			Symbol:           symbol,
			Direction:        string(d.Action),
			EntryPrice:       entry,
			SizeUSD:          sizeUSD,
			Leverage:         leverage,
			StopLossPct:      slPct,
			TakeProfitPct:    tpPct,
			SMCConfidence:    smcRes.Confidence,
			MAConfidence:     maRes.Confidence,
			OracleConfidence: d.Confidence,
			Details:          smcRes.Details,
			Trend5m:          string(trend5),
		}); err != nil {
			logger.Warnf("[trader] 开仓落库失败: %v", err)
		}
	}
	t.publish(notifier.EntryOpened(symbol, string(side), quantity, entry, stopLoss, takeProfit, d.Confidence, d.Reason))
	return true
}

// managePositions 软止损巡检：SL/TP 触发平仓、移动止损、对账交易所持仓。
func (t *Trader) managePositions(ctx context.Context) {
	t.mu.Lock()
	tracked := make([]*trackedPosition, 0, len(t.open))
	for _, p := range t.open {
		tracked = append(tracked, p)
	}
	t.mu.Unlock()

	live := map[string]exchange.Position{}
	reconciled := false
	if !t.cfg.Trading.DryRun && t.deps.Futures != nil {
		positions, err := t.deps.Futures.ListOpenPositions(ctx)
		if err != nil {
			logger.Warnf("[trader] 持仓对账失败: %v", err)
		} else {
			reconciled = true
			for _, p := range positions {
				live[p.Symbol] = p
			}
		}
	}

	// 交易所侧触发单已经平掉的仓位，按现价结算并出账
	if reconciled {
		for _, p := range tracked {
			if _, ok := live[p.Symbol]; ok {
				continue
			}
			price, err := t.deps.Source.MidPrice(ctx, p.Symbol)
			if err != nil || price <= 0 {
				price = p.EntryPrice
			}
			t.settle(ctx, p, price, "exchange-trigger")
		}
	}

	for _, p := range tracked {
		if !t.hasOpen(p.Symbol) {
			continue
		}
		price, err := t.deps.Source.MidPrice(ctx, p.Symbol)
		if err != nil || price <= 0 {
			continue
		}

		long := p.Side == exchange.SideLong
		hitSL := (long && price <= p.StopLoss) || (!long && price >= p.StopLoss)
		hitTP := (long && price >= p.TakeProfit) || (!long && price <= p.TakeProfit)

		switch {
		case hitSL:
			t.closePosition(ctx, p, price, "stop-loss")
		case hitTP:
			t.closePosition(ctx, p, price, "take-profit")
		default:
			if next, moved := TrailStop(price, p.StopLoss, long, t.cfg.Trading.TrailingStopPct); moved {
				t.mu.Lock()
				p.StopLoss = next
				t.mu.Unlock()
				if !t.cfg.Trading.DryRun && t.deps.Futures != nil {
					if err := t.deps.Futures.ReplaceStopLoss(ctx, p.Symbol, p.Side, next); err != nil {
						logger.Warnf("[trader] %s 移动止损改单失败: %v", p.Symbol, err)
					}
				}
			}
		}
	}
}

// closePosition 市价平仓并结算。
func (t *Trader) closePosition(ctx context.Context, p *trackedPosition, price float64, reason string) {
	if !t.cfg.Trading.DryRun && t.deps.Futures != nil {
		if err := t.deps.Futures.Close(ctx, exchange.CloseRequest{Symbol: p.Symbol, Side: p.Side, Reason: reason}); err != nil {
			logger.Warnf("[trader] %s 平仓失败: %v", p.Symbol, err)
			return
		}
	}
	t.settle(ctx, p, price, reason)
}

// settle 统计盈亏、更新连败计数并出账。
func (t *Trader) settle(ctx context.Context, p *trackedPosition, price float64, reason string) {
	pnl := (price - p.EntryPrice) * p.Quantity
	if p.Side == exchange.SideShort {
		pnl = -pnl
	}
	win := pnl > 0
	pnlPct := 0.0
	if p.EntryPrice > 0 {
		pnlPct = (price - p.EntryPrice) / p.EntryPrice
		if p.Side == exchange.SideShort {
			pnlPct = -pnlPct
		}
	}

	t.mu.Lock()
	delete(t.open, p.Symbol)
	t.tradesTaken++
	if win {
		t.wins++
		t.consecutiveLosses = 0
	} else {
		t.losses++
		t.consecutiveLosses++
		if t.consecutiveLosses >= t.cfg.Risk.MaxConsecutiveLosses {
			t.cooldownUntil = t.now().Add(time.Duration(t.cfg.Risk.CooldownSeconds) * time.Second)
			logger.Warnf("[trader] 连续 %d 次亏损, 冷却 %ds", t.consecutiveLosses, t.cfg.Risk.CooldownSeconds)
		}
	}
	if t.cfg.Trading.DryRun {
		t.simBalance += pnl
	}
	t.mu.Unlock()

	if win {
		logger.Infof("[trader] [WIN] %s %+.4f (%s)", p.Symbol, pnl, reason)
	} else {
		logger.Infof("[trader] [LOSS] %s %+.4f (%s)", p.Symbol, pnl, reason)
	}
	if t.deps.Journal != nil {
		if err := t.deps.Journal.LogTradeClose(ctx, p.Symbol, price, pnl, win); err != nil {
			logger.Warnf("[trader] 平仓落库失败: %v", err)
		}
	}
	t.publish(notifier.PositionClosed(p.Symbol, string(p.Side), pnl, pnlPct, reason))
}

// checkWithdrawal 利润达到阈值整数倍时划转到提现钱包。
func (t *Trader) checkWithdrawal(ctx context.Context, balance float64) {
	if !t.cfg.Withdrawal.Enabled || t.cfg.Withdrawal.EveryUSD <= 0 {
		return
	}
	t.mu.Lock()
	if t.now().Sub(t.lastWithdrawCheck) < withdrawCheckInterval {
		t.mu.Unlock()
		return
	}
	t.lastWithdrawCheck = t.now()
	profit := balance - t.startBalance - t.totalWithdrawn
	t.mu.Unlock()

	if profit < t.cfg.Withdrawal.EveryUSD {
		return
	}
	amount := math.Floor(profit/t.cfg.Withdrawal.EveryUSD) * t.cfg.Withdrawal.EveryUSD

	if !t.cfg.Trading.DryRun && t.deps.Futures != nil {
		if err := t.deps.Futures.Transfer(ctx, "USDT", amount, t.cfg.Withdrawal.Wallet); err != nil {
			logger.Warnf("[trader] 利润划转失败: %v", err)
			return
		}
	}

	t.mu.Lock()
	t.totalWithdrawn += amount
	total := t.totalWithdrawn
	t.mu.Unlock()
	logger.Infof("[trader] 利润已划转 $%.2f, 累计 $%.2f", amount, total)
	t.publish(notifier.WithdrawalSent(amount, t.cfg.Withdrawal.Wallet))
}

// dailyLossExceeded 日内回撤超限时暂停新开仓（已有持仓继续管理）。
func (t *Trader) dailyLossExceeded(balance float64) bool {
	t.mu.Lock()
	start := t.startBalance
	halted := t.dailyHalted
	t.mu.Unlock()
	if start <= 0 {
		return false
	}
	lossPct := (start - balance) / start * 100
	if lossPct < t.cfg.Risk.MaxDailyLossPct {
		if halted {
			t.mu.Lock()
			t.dailyHalted = false
			t.mu.Unlock()
		}
		return false
	}
	if !halted {
		t.mu.Lock()
		t.dailyHalted = true
		t.mu.Unlock()
		logger.Warnf("[trader] 日内亏损 %.1f%% 超限 %.1f%%, 暂停新开仓", lossPct, t.cfg.Risk.MaxDailyLossPct)
		t.publish(notifier.DailyHalt(lossPct, time.Duration(t.cfg.Risk.CooldownSeconds)*time.Second))
	}
	return true
}

func (t *Trader) scanList(ctx context.Context) []string {
	var symbols []string
	if t.deps.Pairs != nil {
		symbols = t.deps.Pairs(ctx)
	}
	if len(symbols) == 0 {
		symbols = t.cfg.Market.Pairs
	}
	if len(symbols) == 0 {
		top, err := t.deps.Source.TopSymbols(ctx, t.cfg.Market.TopCoinsCount, t.cfg.Market.MinVolume24h)
		if err != nil {
			logger.Warnf("[trader] 成交额排行获取失败: %v", err)
			return nil
		}
		symbols = top
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols)+len(t.cfg.Market.ExtraPairs))
	for _, s := range append(append([]string{}, symbols...), t.cfg.Market.ExtraPairs...) {
		s = strings.ToUpper(strings.TrimSpace(s))
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

// htfBias 15m 结构偏向（SMC 结构分析）。
func (t *Trader) htfBias(ctx context.Context, symbol string) smc.Signal {
	candles, err := t.fetch(ctx, symbol, t.cfg.Market.HTFInterval, t.cfg.SMC.Lookback)
	if err != nil || len(candles) < 60 {
		return smc.SignalNeutral
	}
	return t.deps.SMC.Analyze(candles, smc.SignalNeutral).Signal
}

// trend5m 5m 趋势方向（EMA 排列）。
func (t *Trader) trend5m(ctx context.Context, symbol string) smc.Signal {
	candles, err := t.fetch(ctx, symbol, t.cfg.Market.TrendInterval, 80)
	if err != nil || len(candles) < t.cfg.Scalper.EMATrend {
		return smc.SignalNeutral
	}
	return t.deps.Scalper.Analyze(candles).Signal
}

// fetch 拉取 K 线并刷新本地窗口，行情抖动时退回上一份缓存。
func (t *Trader) fetch(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	candles, err := t.deps.Source.FetchHistory(ctx, symbol, interval, limit)
	if err != nil || len(candles) == 0 {
		if cached := t.cache.Window(symbol, interval); len(cached) > 0 {
			logger.Warnf("[trader] %s %s 拉取失败, 使用缓存窗口: %v", symbol, interval, err)
			return cached, nil
		}
		return nil, err
	}
	t.cache.Put(symbol, interval, candles)
	return candles, nil
}

func (t *Trader) hasOpen(symbol string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.open[symbol]
	return ok
}

func (t *Trader) balance(ctx context.Context) (float64, error) {
	if t.cfg.Trading.DryRun {
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.simBalance, nil
	}
	bal, err := t.deps.Futures.Balance(ctx)
	if err != nil {
		return 0, err
	}
	return bal.Total, nil
}

func (t *Trader) runMMFallback(ctx context.Context, reason string) {
	if t.deps.MM == nil || !t.cfg.MM.FallbackEnabled {
		return
	}
	if err := t.deps.MM.RunCycle(ctx, reason); err != nil {
		logger.Warnf("[trader] 做市兜底失败 (%s): %v", reason, err)
	}
}

func (t *Trader) publish(msg notifier.Message) {
	if t.deps.Notifier == nil {
		return
	}
	if err := t.deps.Notifier.Push(msg); err != nil {
		logger.Warnf("[trader] 通知发送失败: %v", err)
	}
}
