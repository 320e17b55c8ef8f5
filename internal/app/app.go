// Package app 是组合根：装配全部依赖并编排各后台循环的生命周期。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"cypher/internal/config"
	"cypher/internal/copytrade"
	"cypher/internal/decision"
	"cypher/internal/gateway/exchange"
	"cypher/internal/gateway/notifier"
	"cypher/internal/logger"
	"cypher/internal/market"
	"cypher/internal/mm"
	"cypher/internal/store/journal"
	"cypher/internal/trader"
	"cypher/internal/transport/http/dashboard"
)

// App 持有全部长生命周期组件。
type App struct {
	cfg     *config.Config
	source  market.Source
	futures exchange.Futures
	oracle  *decision.Oracle
	journal *journal.Journal
	notify  notifier.Notifier
	trader  *trader.Trader
	maker   *mm.Maker
	mirror  *copytrade.Mirror
	dash    *dashboard.Server
	started time.Time
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return build(cfg)
}

// Run 启动交易循环、做市、跟单与面板，阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	a.started = time.Now()
	defer a.close()

	a.announceStartup(ctx)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.trader.Run(ctx)
	})
	group.Go(func() error {
		return a.maker.Run(ctx)
	})
	if a.mirror != nil {
		group.Go(func() error {
			return a.mirror.Run(ctx)
		})
	}
	group.Go(func() error {
		return a.dash.Start(ctx)
	})
	if a.notify != nil && a.cfg.Notify.StatusIntervalMinutes > 0 {
		group.Go(func() error {
			a.statusLoop(ctx)
			return nil
		})
	}

	err := group.Wait()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// announceStartup 打印启动摘要，推送 Telegram，并拉取头部币种的市场情绪。
func (a *App) announceStartup(ctx context.Context) {
	balance := 0.0
	if a.futures != nil {
		if bal, err := a.futures.Balance(ctx); err == nil {
			balance = bal.Total
		}
	}
	pairs := a.cfg.Market.Pairs
	logger.Infof("[app] Cypher 启动 | 余额 $%.2f | %d 个配置交易对 | 干跑=%t",
		balance, len(pairs), a.cfg.Trading.DryRun)

	if a.notify != nil {
		msg := notifier.BotStarted(balance, len(pairs), a.cfg.Trading.DryRun)
		if err := a.notify.Push(msg); err != nil {
			logger.Warnf("[app] 启动通知发送失败: %v", err)
		}
	}

	if a.oracle == nil {
		return
	}
	for i, pair := range pairs {
		if i >= 3 {
			break
		}
		sctx, cancel := context.WithTimeout(ctx, 20*time.Second)
		sentiment := a.oracle.Sentiment(sctx, pair)
		cancel()
		logger.Infof("[app] %s 情绪: %s", pair, sentiment)
	}
}

// statusLoop 按配置间隔推送运行状态播报。
func (a *App) statusLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Notify.StatusIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		stats := a.trader.Stats()
		positions := len(a.trader.OpenPositions())
		msg := notifier.StatusReport(stats.Balance, positions, a.journal.Summary(ctx))
		if err := a.notify.Push(msg); err != nil {
			logger.Warnf("[app] 状态播报发送失败: %v", err)
		}
	}
}

// close 收盘清理：撤掉做市挂单、推送停机摘要、关库、断行情源。
func (a *App) close() {
	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.maker != nil {
		a.maker.Shutdown(shCtx)
	}
	if a.notify != nil && a.journal != nil {
		msg := notifier.ShutdownSummary(a.journal.Summary(shCtx), time.Since(a.started))
		if err := a.notify.Push(msg); err != nil {
			logger.Warnf("[app] 停机通知发送失败: %v", err)
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("[app] 日志库关闭失败: %v", err)
		}
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			logger.Warnf("[app] 行情源关闭失败: %v", err)
		}
	}
	logger.Infof("[app] 已退出")
}
