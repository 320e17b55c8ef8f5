package config

import "strings"

// Config 是 Cypher 的主配置载体。
type Config struct {
	App        AppConfig        `toml:"app"`
	Exchange   ExchangeConfig   `toml:"exchange"`
	Market     MarketConfig     `toml:"market"`
	SMC        SMCConfig        `toml:"smc"`
	Scalper    ScalperConfig    `toml:"scalper"`
	Oracle     OracleConfig     `toml:"oracle"`
	Trading    TradingConfig    `toml:"trading"`
	Risk       RiskConfig       `toml:"risk"`
	Withdrawal WithdrawalConfig `toml:"withdrawal"`
	MM         MMConfig         `toml:"mm"`
	CopyTrade  CopyTradeConfig  `toml:"copytrade"`
	Notify     NotifyConfig     `toml:"notify"`
	Store      StoreConfig      `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

// ExchangeConfig 描述交易所接入方式（行情与下单共用一套凭证）。
type ExchangeConfig struct {
	Name        string      `toml:"name"`
	APIKey      string      `toml:"api_key"`
	APISecret   string      `toml:"api_secret"`
	Testnet     bool        `toml:"testnet"`
	RESTBaseURL string      `toml:"rest_base_url"`
	Proxy       ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
	WSURL   string `toml:"ws_url"`
}

func (p *ProxyConfig) normalize() {
	if p == nil {
		return
	}
	p.RESTURL = strings.TrimSpace(p.RESTURL)
	p.WSURL = strings.TrimSpace(p.WSURL)
}

// MarketConfig 控制扫描的币种与多周期行情拉取。
type MarketConfig struct {
	ScalpInterval string   `toml:"scalp_interval"`
	TrendInterval string   `toml:"trend_interval"`
	HTFInterval   string   `toml:"htf_interval"`
	MaxCached     int      `toml:"max_cached"`
	Pairs         []string `toml:"pairs"`
	ExtraPairs    []string `toml:"extra_pairs"`
	TopCoinsCount int      `toml:"top_coins_count"`
	MinVolume24h  float64  `toml:"min_volume_24h"`
	WatchlistPath string   `toml:"watchlist_path"`
}

// SMCConfig 是结构分析引擎的检测阈值。
type SMCConfig struct {
	Lookback        int     `toml:"lookback"`
	SwingWindow     int     `toml:"swing_window"`
	OBThreshold     float64 `toml:"ob_threshold"`
	FVGMinGap       float64 `toml:"fvg_min_gap"`
	DisplacementMin float64 `toml:"displacement_min"`
}

type ScalperConfig struct {
	EMAFast       int     `toml:"ema_fast"`
	EMASlow       int     `toml:"ema_slow"`
	EMATrend      int     `toml:"ema_trend"`
	RSIPeriod     int     `toml:"rsi_period"`
	RSIOverbought float64 `toml:"rsi_overbought"`
	RSIOversold   float64 `toml:"rsi_oversold"`
}

// OracleConfig 是最终裁决模型的接入配置。
type OracleConfig struct {
	Enabled        bool              `toml:"enabled"`
	APIURL         string            `toml:"api_url"`
	APIKey         string            `toml:"api_key"`
	Model          string            `toml:"model"`
	TimeoutSeconds int               `toml:"timeout_seconds"`
	Headers        map[string]string `toml:"headers"`
	ExpectJSON     bool              `toml:"expect_json"`
}

// TradingConfig 控制开仓节奏、仓位与止损止盈。
type TradingConfig struct {
	DryRun                  bool           `toml:"dry_run"`
	Leverage                int            `toml:"leverage"`
	LeverageMap             map[string]int `toml:"leverage_map"`
	MaxRiskPerTrade         float64        `toml:"max_risk_per_trade"`
	MaxOpenPositions        int            `toml:"max_open_positions"`
	MaxEntriesPerCycle      int            `toml:"max_entries_per_cycle"`
	MinSecondsBetweenEntry  int            `toml:"min_seconds_between_entries"`
	ScanIntervalSeconds     int            `toml:"scan_interval_seconds"`
	StopLossPct             float64        `toml:"stop_loss_pct"`
	TakeProfitPct           float64        `toml:"take_profit_pct"`
	TrailingStopPct         float64        `toml:"trailing_stop_pct"`
	UseATRStops             bool           `toml:"use_atr_stops"`
	ATRSLMultiplier         float64        `toml:"atr_sl_multiplier"`
	ATRTPMultiplier         float64        `toml:"atr_tp_multiplier"`
	MinConfidence           float64        `toml:"min_confidence"`
	RequireTrendAlignment   bool           `toml:"require_trend_alignment"`
	HighConfTrendBypass     float64        `toml:"high_conf_trend_bypass"`
	RequireHTFBias          bool           `toml:"require_htf_bias"`
	MinVolumeRatio          float64        `toml:"min_volume_ratio"`
	RequireEntryZone        bool           `toml:"require_entry_zone"`
	RequireStructure        bool           `toml:"require_structure"`
}

// LeverageFor 返回某币种的杠杆（leverage_map 优先，否则全局默认）。
func (t TradingConfig) LeverageFor(symbol string) int {
	base := strings.ToUpper(strings.TrimSpace(symbol))
	base = strings.TrimSuffix(base, "USDT")
	if lev, ok := t.LeverageMap[base]; ok && lev > 0 {
		return lev
	}
	return t.Leverage
}

// RiskConfig 是账户级的熔断参数。
type RiskConfig struct {
	MaxDailyLossPct      float64 `toml:"max_daily_loss_pct"`
	MaxConsecutiveLosses int     `toml:"max_consecutive_losses"`
	CooldownSeconds      int     `toml:"cooldown_seconds"`
}

// WithdrawalConfig 每累计一定利润即划转到外部钱包。
type WithdrawalConfig struct {
	Enabled  bool    `toml:"enabled"`
	Wallet   string  `toml:"wallet"`
	EveryUSD float64 `toml:"every_usd"`
}

// MMConfig 控制现货做市与期货空闲时的 MM 兜底。
type MMConfig struct {
	Enabled             bool               `toml:"enabled"`
	Pairs               []string           `toml:"pairs"`
	SpreadBps           float64            `toml:"spread_bps"`
	SpreadMap           map[string]float64 `toml:"spread_map"`
	SizeUSD             float64            `toml:"size_usd"`
	MinBalance          float64            `toml:"min_balance"`
	AllocPct            float64            `toml:"alloc_pct"`
	RefreshSeconds      int                `toml:"refresh_seconds"`
	DynamicSpread       bool               `toml:"dynamic_spread"`
	MinSpreadBps        float64            `toml:"min_spread_bps"`
	MaxSpreadBps        float64            `toml:"max_spread_bps"`
	InventoryRebalance  bool               `toml:"inventory_rebalance"`
	FallbackEnabled     bool               `toml:"fallback_enabled"`
	FallbackAfterScans  int                `toml:"fallback_after_scans"`
}

// SpreadFor 返回交易对的报价价差（bps），spread_map 优先。
func (m MMConfig) SpreadFor(pair string) float64 {
	if bps, ok := m.SpreadMap[pair]; ok && bps > 0 {
		return bps
	}
	return m.SpreadBps
}

// CopyTradeConfig 描述跟单端的资金分配与绩效费。
type CopyTradeConfig struct {
	Enabled       bool             `toml:"enabled"`
	FeePct        float64          `toml:"fee_pct"`
	AllocScalpPct float64          `toml:"alloc_scalp_pct"`
	AllocMMPct    float64          `toml:"alloc_mm_pct"`
	Followers     []FollowerConfig `toml:"followers"`
}

type FollowerConfig struct {
	Name      string `toml:"name"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	Enabled   bool   `toml:"enabled"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
	// StatusIntervalMinutes 周期状态播报间隔，0 关闭
	StatusIntervalMinutes int `toml:"status_interval_minutes"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
