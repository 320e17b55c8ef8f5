package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cypher/internal/analysis/scalper"
	"cypher/internal/analysis/smc"
	"cypher/internal/config"
	"cypher/internal/config/loader"
	"cypher/internal/copytrade"
	"cypher/internal/decision"
	"cypher/internal/gateway/binance"
	"cypher/internal/gateway/exchange"
	"cypher/internal/gateway/notifier"
	"cypher/internal/gateway/provider"
	"cypher/internal/logger"
	"cypher/internal/mm"
	"cypher/internal/store/journal"
	"cypher/internal/trader"
	"cypher/internal/transport/http/dashboard"
)

// build 手工装配全部依赖。顺序：行情源 → 执行端 → 引擎 → 裁决 →
// 日志库 → 通知 → 做市 → 跟单 → 交易循环 → 面板。
func build(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	source, err := binance.NewSource(binanceConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("行情源初始化失败: %w", err)
	}
	a.source = source

	var futures exchange.Futures
	var spot exchange.Spot
	if !cfg.Trading.DryRun {
		f, err := binance.NewFutures(binanceConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("合约客户端初始化失败: %w", err)
		}
		futures = f
		a.futures = f
		if cfg.MM.Enabled {
			s, err := binance.NewSpot(binanceConfig(cfg))
			if err != nil {
				return nil, fmt.Errorf("现货客户端初始化失败: %w", err)
			}
			spot = s
		}
	} else {
		logger.Infof("[app] 干跑模式, 不创建下单客户端")
	}

	smcEngine := smc.NewEngine(smc.Config{
		Lookback:        cfg.SMC.Lookback,
		SwingWindow:     cfg.SMC.SwingWindow,
		OBThreshold:     cfg.SMC.OBThreshold,
		FVGMinGap:       cfg.SMC.FVGMinGap,
		DisplacementMin: cfg.SMC.DisplacementMin,
	})
	maScalper := scalper.New(scalper.Config{
		EMAFast:       cfg.Scalper.EMAFast,
		EMASlow:       cfg.Scalper.EMASlow,
		EMATrend:      cfg.Scalper.EMATrend,
		RSIPeriod:     cfg.Scalper.RSIPeriod,
		RSIOverbought: cfg.Scalper.RSIOverbought,
		RSIOversold:   cfg.Scalper.RSIOversold,
	})

	a.oracle = buildOracle(cfg)

	jnl, err := journal.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("日志库初始化失败: %w", err)
	}
	a.journal = jnl

	var notify notifier.Notifier
	if cfg.Notify.Telegram.Enabled {
		notify = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}
	a.notify = notify

	a.maker = mm.New(cfg.MM, spot, notify)

	if cfg.CopyTrade.Enabled && futures != nil {
		mirror, err := copytrade.New(cfg.CopyTrade, futures, jnl, cfg.Withdrawal.Wallet,
			func(fc config.FollowerConfig) (exchange.Futures, error) {
				bcfg := binanceConfig(cfg)
				bcfg.APIKey = fc.APIKey
				bcfg.APISecret = fc.APISecret
				return binance.NewFutures(bcfg)
			})
		if err != nil {
			return nil, err
		}
		a.mirror = mirror
	}

	pairs, err := buildPairProvider(cfg)
	if err != nil {
		return nil, err
	}

	a.trader = trader.New(cfg, trader.Deps{
		Source:   source,
		Futures:  futures,
		SMC:      smcEngine,
		Scalper:  maScalper,
		Oracle:   a.oracle,
		Journal:  jnl,
		Notifier: notify,
		MM:       a.maker,
		Pairs:    pairs,
	})

	a.dash = dashboard.NewServer(dashboard.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Trader:  a.trader,
		Maker:   a.maker,
		Copy:    copyState(a.mirror),
		Journal: jnl,
	})
	return a, nil
}

func binanceConfig(cfg *config.Config) binance.Config {
	return binance.Config{
		APIKey:       cfg.Exchange.APIKey,
		APISecret:    cfg.Exchange.APISecret,
		Testnet:      cfg.Exchange.Testnet,
		RESTBaseURL:  cfg.Exchange.RESTBaseURL,
		HTTPTimeout:  15 * time.Second,
		ProxyEnabled: cfg.Exchange.Proxy.Enabled,
		RESTProxyURL: cfg.Exchange.Proxy.RESTURL,
		WSProxyURL:   cfg.Exchange.Proxy.WSURL,
	}
}

func buildOracle(cfg *config.Config) *decision.Oracle {
	model := &provider.ChatClient{
		BaseURL:      cfg.Oracle.APIURL,
		APIKey:       cfg.Oracle.APIKey,
		Model:        cfg.Oracle.Model,
		Timeout:      time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		ExtraHeaders: cfg.Oracle.Headers,
		ExpectJSON:   cfg.Oracle.ExpectJSON,
	}
	return decision.NewOracle(model, cfg.Oracle.Enabled, cfg.Trading.MinConfidence)
}

// buildPairProvider 在配置了观察表文件时接入热更新清单，
// 否则返回 nil 让交易循环走配置交易对或成交量榜。
func buildPairProvider(cfg *config.Config) (trader.PairProvider, error) {
	path := strings.TrimSpace(cfg.Market.WatchlistPath)
	if path == "" {
		return nil, nil
	}
	wl, err := loader.NewWatchlistLoader(path)
	if err != nil {
		return nil, fmt.Errorf("观察表加载失败: %w", err)
	}

	applyOverrides := func(snap loader.WatchlistSnapshot) {
		if len(snap.Watchlist.LeverageOverrides) == 0 {
			return
		}
		if cfg.Trading.LeverageMap == nil {
			cfg.Trading.LeverageMap = make(map[string]int)
		}
		for coin, lev := range snap.Watchlist.LeverageOverrides {
			cfg.Trading.LeverageMap[strings.ToUpper(coin)] = lev
		}
	}
	applyOverrides(wl.Snapshot())
	wl.Subscribe(func(snap loader.WatchlistSnapshot) {
		applyOverrides(snap)
		logger.Infof("[app] 观察表已更新: %d 个交易对", len(snap.Watchlist.PairsUpper()))
	})

	return func(ctx context.Context) []string {
		snap := wl.Snapshot()
		pairs := snap.Watchlist.PairsUpper()
		out := make([]string, 0, len(pairs))
		for _, p := range pairs {
			if snap.Watchlist.IsBlocked(p) {
				continue
			}
			out = append(out, p)
		}
		return out
	}, nil
}

// copyState 把可能为 nil 的 *Mirror 转成面板接口，避免非 nil 接口包着 nil 指针。
func copyState(m *copytrade.Mirror) dashboard.CopyState {
	if m == nil {
		return nil
	}
	return m
}
