package config

import "strings"

// 默认值常量
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9992"
	defaultAppLogPath    = "/data/logs/cypher-live.log"
	defaultAppLLMLogPath = "/data/logs/cypher-llm.log"

	defaultExchangeName = "binance"
	defaultExchangeREST = "https://fapi.binance.com"

	defaultScalpInterval = "1m"
	defaultTrendInterval = "5m"
	defaultHTFInterval   = "15m"
	defaultMaxCached     = 300
	defaultTopCoins      = 200
	defaultMinVolume24h  = 50_000

	defaultSMCLookback     = 100
	defaultSwingWindow     = 5
	defaultOBThreshold     = 0.0015
	defaultFVGMinGap       = 0.0003
	defaultDisplacementMin = 0.003

	defaultEMAFast       = 8
	defaultEMASlow       = 21
	defaultEMATrend      = 55
	defaultRSIPeriod     = 14
	defaultRSIOverbought = 65
	defaultRSIOversold   = 35

	defaultOracleURL     = "https://api.x.ai/v1/chat/completions"
	defaultOracleModel   = "grok-4-1-fast-non-reasoning"
	defaultOracleTimeout = 30

	defaultLeverage         = 15
	defaultMaxRiskPerTrade  = 0.08
	defaultMaxOpenPositions = 3
	defaultEntriesPerCycle  = 2
	defaultEntrySpacingSec  = 30
	defaultScanIntervalSec  = 20
	defaultStopLossPct      = 0.020
	defaultTakeProfitPct    = 0.045
	defaultTrailingStopPct  = 0.012
	defaultATRSLMult        = 2.5
	defaultATRTPMult        = 5.5
	defaultMinConfidence    = 0.65
	defaultHighConfBypass   = 0.80
	defaultMinVolumeRatio   = 1.3

	defaultMaxDailyLossPct = 25.0
	defaultMaxConsecLosses = 3
	defaultCooldownSeconds = 180

	defaultWithdrawEveryUSD = 10.0

	defaultMMSpreadBps        = 10
	defaultMMSizeUSD          = 11.0
	defaultMMMinBalance       = 1.0
	defaultMMAllocPct         = 0.30
	defaultMMRefreshSeconds   = 30
	defaultMMMinSpreadBps     = 3
	defaultMMMaxSpreadBps     = 50
	defaultMMFallbackScans    = 2

	defaultCopyFeePct      = 0.24
	defaultCopyScalpPct    = 0.25
	defaultCopyMMPct       = 0.25

	defaultStatusIntervalMin = 60

	defaultStorePath = "/data/db/cypher.db"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.SMC.applyDefaults(keys)
	c.Scalper.applyDefaults(keys)
	c.Oracle.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Withdrawal.applyDefaults(keys)
	c.MM.applyDefaults(keys)
	c.CopyTrade.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.llm_log_path", &a.LLMLog, defaultAppLLMLogPath),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchangeName),
		stringFieldDefault("exchange.rest_base_url", &e.RESTBaseURL, defaultExchangeREST),
	)
	e.Proxy.normalize()
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.scalp_interval", &m.ScalpInterval, defaultScalpInterval),
		stringFieldDefault("market.trend_interval", &m.TrendInterval, defaultTrendInterval),
		stringFieldDefault("market.htf_interval", &m.HTFInterval, defaultHTFInterval),
		fieldDefault{
			key:   "market.max_cached",
			need:  func() bool { return m.MaxCached <= 0 },
			apply: func() { m.MaxCached = defaultMaxCached },
		},
		fieldDefault{
			key:   "market.top_coins_count",
			need:  func() bool { return m.TopCoinsCount <= 0 },
			apply: func() { m.TopCoinsCount = defaultTopCoins },
		},
		fieldDefault{
			key:   "market.min_volume_24h",
			need:  func() bool { return m.MinVolume24h <= 0 },
			apply: func() { m.MinVolume24h = defaultMinVolume24h },
		},
	)
	m.Pairs = normalizeSymbolList(m.Pairs)
	m.ExtraPairs = normalizeSymbolList(m.ExtraPairs)
}

func (s *SMCConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "smc.lookback",
			need:  func() bool { return s.Lookback <= 0 },
			apply: func() { s.Lookback = defaultSMCLookback },
		},
		fieldDefault{
			key:   "smc.swing_window",
			need:  func() bool { return s.SwingWindow <= 0 },
			apply: func() { s.SwingWindow = defaultSwingWindow },
		},
		fieldDefault{
			key:   "smc.ob_threshold",
			need:  func() bool { return s.OBThreshold <= 0 },
			apply: func() { s.OBThreshold = defaultOBThreshold },
		},
		fieldDefault{
			key:   "smc.fvg_min_gap",
			need:  func() bool { return s.FVGMinGap <= 0 },
			apply: func() { s.FVGMinGap = defaultFVGMinGap },
		},
		fieldDefault{
			key:   "smc.displacement_min",
			need:  func() bool { return s.DisplacementMin <= 0 },
			apply: func() { s.DisplacementMin = defaultDisplacementMin },
		},
	)
}

func (s *ScalperConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "scalper.ema_fast",
			need:  func() bool { return s.EMAFast <= 0 },
			apply: func() { s.EMAFast = defaultEMAFast },
		},
		fieldDefault{
			key:   "scalper.ema_slow",
			need:  func() bool { return s.EMASlow <= 0 },
			apply: func() { s.EMASlow = defaultEMASlow },
		},
		fieldDefault{
			key:   "scalper.ema_trend",
			need:  func() bool { return s.EMATrend <= 0 },
			apply: func() { s.EMATrend = defaultEMATrend },
		},
		fieldDefault{
			key:   "scalper.rsi_period",
			need:  func() bool { return s.RSIPeriod <= 0 },
			apply: func() { s.RSIPeriod = defaultRSIPeriod },
		},
		fieldDefault{
			key:   "scalper.rsi_overbought",
			need:  func() bool { return s.RSIOverbought <= 0 },
			apply: func() { s.RSIOverbought = defaultRSIOverbought },
		},
		fieldDefault{
			key:   "scalper.rsi_oversold",
			need:  func() bool { return s.RSIOversold <= 0 },
			apply: func() { s.RSIOversold = defaultRSIOversold },
		},
	)
}

func (o *OracleConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	if o.Headers == nil {
		o.Headers = make(map[string]string)
	}
	applyFieldDefaults(keys,
		stringFieldDefault("oracle.api_url", &o.APIURL, defaultOracleURL),
		stringFieldDefault("oracle.model", &o.Model, defaultOracleModel),
		fieldDefault{
			key:   "oracle.timeout_seconds",
			need:  func() bool { return o.TimeoutSeconds <= 0 },
			apply: func() { o.TimeoutSeconds = defaultOracleTimeout },
		},
		boolFieldDefault("oracle.expect_json", &o.ExpectJSON, true),
	)
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "trading.leverage",
			need:  func() bool { return t.Leverage <= 0 },
			apply: func() { t.Leverage = defaultLeverage },
		},
		fieldDefault{
			key:   "trading.max_risk_per_trade",
			need:  func() bool { return t.MaxRiskPerTrade <= 0 || t.MaxRiskPerTrade > 1 },
			apply: func() { t.MaxRiskPerTrade = defaultMaxRiskPerTrade },
		},
		fieldDefault{
			key:   "trading.max_open_positions",
			need:  func() bool { return t.MaxOpenPositions <= 0 },
			apply: func() { t.MaxOpenPositions = defaultMaxOpenPositions },
		},
		fieldDefault{
			key:   "trading.max_entries_per_cycle",
			need:  func() bool { return t.MaxEntriesPerCycle <= 0 },
			apply: func() { t.MaxEntriesPerCycle = defaultEntriesPerCycle },
		},
		fieldDefault{
			key:   "trading.min_seconds_between_entries",
			need:  func() bool { return t.MinSecondsBetweenEntry <= 0 },
			apply: func() { t.MinSecondsBetweenEntry = defaultEntrySpacingSec },
		},
		fieldDefault{
			key:   "trading.scan_interval_seconds",
			need:  func() bool { return t.ScanIntervalSeconds <= 0 },
			apply: func() { t.ScanIntervalSeconds = defaultScanIntervalSec },
		},
		fieldDefault{
			key:   "trading.stop_loss_pct",
			need:  func() bool { return t.StopLossPct <= 0 },
			apply: func() { t.StopLossPct = defaultStopLossPct },
		},
		fieldDefault{
			key:   "trading.take_profit_pct",
			need:  func() bool { return t.TakeProfitPct <= 0 },
			apply: func() { t.TakeProfitPct = defaultTakeProfitPct },
		},
		fieldDefault{
			key:   "trading.trailing_stop_pct",
			need:  func() bool { return t.TrailingStopPct <= 0 },
			apply: func() { t.TrailingStopPct = defaultTrailingStopPct },
		},
		boolFieldDefault("trading.use_atr_stops", &t.UseATRStops, true),
		fieldDefault{
			key:   "trading.atr_sl_multiplier",
			need:  func() bool { return t.ATRSLMultiplier <= 0 },
			apply: func() { t.ATRSLMultiplier = defaultATRSLMult },
		},
		fieldDefault{
			key:   "trading.atr_tp_multiplier",
			need:  func() bool { return t.ATRTPMultiplier <= 0 },
			apply: func() { t.ATRTPMultiplier = defaultATRTPMult },
		},
		fieldDefault{
			key:   "trading.min_confidence",
			need:  func() bool { return t.MinConfidence <= 0 },
			apply: func() { t.MinConfidence = defaultMinConfidence },
		},
		boolFieldDefault("trading.require_trend_alignment", &t.RequireTrendAlignment, true),
		fieldDefault{
			key:   "trading.high_conf_trend_bypass",
			need:  func() bool { return t.HighConfTrendBypass <= 0 },
			apply: func() { t.HighConfTrendBypass = defaultHighConfBypass },
		},
		boolFieldDefault("trading.require_htf_bias", &t.RequireHTFBias, true),
		fieldDefault{
			key:   "trading.min_volume_ratio",
			need:  func() bool { return t.MinVolumeRatio <= 0 },
			apply: func() { t.MinVolumeRatio = defaultMinVolumeRatio },
		},
		boolFieldDefault("trading.require_entry_zone", &t.RequireEntryZone, true),
	)
	if t.LeverageMap == nil {
		t.LeverageMap = map[string]int{"BTC": 10, "ETH": 10, "SOL": 12}
	}
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "risk.max_daily_loss_pct",
			need:  func() bool { return r.MaxDailyLossPct <= 0 },
			apply: func() { r.MaxDailyLossPct = defaultMaxDailyLossPct },
		},
		fieldDefault{
			key:   "risk.max_consecutive_losses",
			need:  func() bool { return r.MaxConsecutiveLosses <= 0 },
			apply: func() { r.MaxConsecutiveLosses = defaultMaxConsecLosses },
		},
		fieldDefault{
			key:   "risk.cooldown_seconds",
			need:  func() bool { return r.CooldownSeconds <= 0 },
			apply: func() { r.CooldownSeconds = defaultCooldownSeconds },
		},
	)
}

func (w *WithdrawalConfig) applyDefaults(keys keySet) {
	if w == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "withdrawal.every_usd",
			need:  func() bool { return w.EveryUSD <= 0 },
			apply: func() { w.EveryUSD = defaultWithdrawEveryUSD },
		},
	)
}

func (m *MMConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "mm.spread_bps",
			need:  func() bool { return m.SpreadBps <= 0 },
			apply: func() { m.SpreadBps = defaultMMSpreadBps },
		},
		fieldDefault{
			key:   "mm.size_usd",
			need:  func() bool { return m.SizeUSD <= 0 },
			apply: func() { m.SizeUSD = defaultMMSizeUSD },
		},
		fieldDefault{
			key:   "mm.min_balance",
			need:  func() bool { return m.MinBalance <= 0 },
			apply: func() { m.MinBalance = defaultMMMinBalance },
		},
		fieldDefault{
			key:   "mm.alloc_pct",
			need:  func() bool { return m.AllocPct <= 0 || m.AllocPct > 1 },
			apply: func() { m.AllocPct = defaultMMAllocPct },
		},
		fieldDefault{
			key:   "mm.refresh_seconds",
			need:  func() bool { return m.RefreshSeconds <= 0 },
			apply: func() { m.RefreshSeconds = defaultMMRefreshSeconds },
		},
		boolFieldDefault("mm.dynamic_spread", &m.DynamicSpread, true),
		fieldDefault{
			key:   "mm.min_spread_bps",
			need:  func() bool { return m.MinSpreadBps <= 0 },
			apply: func() { m.MinSpreadBps = defaultMMMinSpreadBps },
		},
		fieldDefault{
			key:   "mm.max_spread_bps",
			need:  func() bool { return m.MaxSpreadBps <= 0 },
			apply: func() { m.MaxSpreadBps = defaultMMMaxSpreadBps },
		},
		boolFieldDefault("mm.inventory_rebalance", &m.InventoryRebalance, true),
		boolFieldDefault("mm.fallback_enabled", &m.FallbackEnabled, true),
		fieldDefault{
			key:   "mm.fallback_after_scans",
			need:  func() bool { return m.FallbackAfterScans <= 0 },
			apply: func() { m.FallbackAfterScans = defaultMMFallbackScans },
		},
	)
}

func (c *CopyTradeConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "copytrade.fee_pct",
			need:  func() bool { return c.FeePct < 0 || c.FeePct > 1 },
			apply: func() { c.FeePct = defaultCopyFeePct },
		},
		fieldDefault{
			key:   "copytrade.alloc_scalp_pct",
			need:  func() bool { return c.AllocScalpPct <= 0 || c.AllocScalpPct > 1 },
			apply: func() { c.AllocScalpPct = defaultCopyScalpPct },
		},
		fieldDefault{
			key:   "copytrade.alloc_mm_pct",
			need:  func() bool { return c.AllocMMPct <= 0 || c.AllocMMPct > 1 },
			apply: func() { c.AllocMMPct = defaultCopyMMPct },
		},
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "notify.status_interval_minutes",
			need:  func() bool { return n.StatusIntervalMinutes <= 0 },
			apply: func() { n.StatusIntervalMinutes = defaultStatusIntervalMin },
		},
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func normalizeSymbolList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, sym := range in {
		s := strings.ToUpper(strings.TrimSpace(sym))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
