package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(c.Trading.DryRun); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.SMC.validate(); err != nil {
		return err
	}
	if err := c.Scalper.validate(); err != nil {
		return err
	}
	if err := c.Oracle.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Withdrawal.validate(); err != nil {
		return err
	}
	if err := c.MM.validate(); err != nil {
		return err
	}
	if err := c.CopyTrade.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate(dryRun bool) error {
	if strings.TrimSpace(e.RESTBaseURL) == "" {
		return fmt.Errorf("exchange.rest_base_url cannot be empty")
	}
	if e.Proxy.Enabled && e.Proxy.RESTURL == "" && e.Proxy.WSURL == "" {
		return fmt.Errorf("exchange proxy enabled but no rest_url or ws_url")
	}
	if dryRun {
		return nil
	}
	if strings.TrimSpace(e.APIKey) == "" || strings.TrimSpace(e.APISecret) == "" {
		return fmt.Errorf("exchange requires api_key and api_secret (or set trading.dry_run)")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	for _, iv := range []string{m.ScalpInterval, m.TrendInterval, m.HTFInterval} {
		if !IsValidInterval(iv) {
			return fmt.Errorf("market interval %q is invalid", iv)
		}
	}
	if m.MaxCached < 50 || m.MaxCached > 1000 {
		return fmt.Errorf("market.max_cached must be in [50,1000]")
	}
	if len(m.Pairs) == 0 && m.TopCoinsCount <= 0 {
		return fmt.Errorf("market requires pairs or top_coins_count > 0")
	}
	return nil
}

func (s *SMCConfig) validate() error {
	if s.Lookback < 2*s.SwingWindow+1 {
		return fmt.Errorf("smc.lookback must be >= 2*swing_window+1")
	}
	if s.OBThreshold <= 0 || s.FVGMinGap <= 0 || s.DisplacementMin <= 0 {
		return fmt.Errorf("smc thresholds must be > 0")
	}
	return nil
}

func (s *ScalperConfig) validate() error {
	if s.EMAFast >= s.EMASlow || s.EMASlow >= s.EMATrend {
		return fmt.Errorf("scalper EMAs must satisfy fast < slow < trend")
	}
	if s.RSIOversold >= s.RSIOverbought {
		return fmt.Errorf("scalper.rsi_oversold must be < rsi_overbought")
	}
	return nil
}

func (o *OracleConfig) validate() error {
	if !o.Enabled {
		return nil
	}
	if strings.TrimSpace(o.APIURL) == "" {
		return fmt.Errorf("oracle.api_url cannot be empty")
	}
	if strings.TrimSpace(o.Model) == "" {
		return fmt.Errorf("oracle.model cannot be empty")
	}
	if strings.TrimSpace(o.APIKey) == "" {
		return fmt.Errorf("oracle enabled but api_key is empty")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if t.MaxRiskPerTrade <= 0 || t.MaxRiskPerTrade > 1 {
		return fmt.Errorf("trading.max_risk_per_trade must be in (0, 1]")
	}
	if t.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be > 0")
	}
	if t.MinConfidence <= 0 || t.MinConfidence > 1 {
		return fmt.Errorf("trading.min_confidence must be in (0, 1]")
	}
	if t.HighConfTrendBypass < t.MinConfidence {
		return fmt.Errorf("trading.high_conf_trend_bypass must be >= min_confidence")
	}
	if t.StopLossPct <= 0 || t.TakeProfitPct <= t.StopLossPct {
		return fmt.Errorf("trading requires 0 < stop_loss_pct < take_profit_pct")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.MaxDailyLossPct <= 0 || r.MaxDailyLossPct > 100 {
		return fmt.Errorf("risk.max_daily_loss_pct must be in (0, 100]")
	}
	if r.CooldownSeconds < 0 {
		return fmt.Errorf("risk.cooldown_seconds must be >= 0")
	}
	return nil
}

func (w *WithdrawalConfig) validate() error {
	if !w.Enabled {
		return nil
	}
	if strings.TrimSpace(w.Wallet) == "" {
		return fmt.Errorf("withdrawal enabled but wallet is empty")
	}
	if w.EveryUSD <= 0 {
		return fmt.Errorf("withdrawal.every_usd must be > 0")
	}
	return nil
}

func (m *MMConfig) validate() error {
	if !m.Enabled {
		return nil
	}
	if len(m.Pairs) == 0 {
		return fmt.Errorf("mm enabled but mm.pairs is empty")
	}
	if m.MinSpreadBps > m.SpreadBps || m.SpreadBps > m.MaxSpreadBps {
		return fmt.Errorf("mm spreads must satisfy min <= spread <= max")
	}
	return nil
}

func (c *CopyTradeConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.AllocScalpPct+c.AllocMMPct > 1 {
		return fmt.Errorf("copytrade allocation percentages exceed 100%%")
	}
	enabled := 0
	for _, f := range c.Followers {
		if !f.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(f.APIKey) == "" || strings.TrimSpace(f.APISecret) == "" {
			return fmt.Errorf("copytrade follower %s missing api_key or api_secret", f.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("copytrade enabled but no enabled followers")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

// IsValidInterval 简易校验：以数字开头，以 m/h/d/w 结尾
func IsValidInterval(s string) bool {
	if s == "" {
		return false
	}
	suf := s[len(s)-1]
	if suf != 'm' && suf != 'h' && suf != 'd' && suf != 'w' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
