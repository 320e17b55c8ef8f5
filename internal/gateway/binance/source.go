package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cypher/internal/market"

	"github.com/adshao/go-binance/v2/futures"
)

const maxHistoryLimit = 1500

// Source 基于 go-binance SDK 实现 market.Source。
type Source struct {
	cfg    Config
	client *futures.Client
	now    func() time.Time
}

func NewSource(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	httpClient, err := newHTTPClient(final)
	if err != nil {
		return nil, err
	}
	client.HTTPClient = httpClient
	return &Source{
		cfg:    final,
		client: client,
		now:    time.Now,
	}, nil
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.ProxyEnabled && cfg.RESTProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	return httpClient, nil
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	svc := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	kls, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime: kl.OpenTime,
			Open:     parseFloat(kl.Open),
			High:     parseFloat(kl.High),
			Low:      parseFloat(kl.Low),
			Close:    parseFloat(kl.Close),
			Volume:   parseFloat(kl.Volume),
		})
	}
	if dur, ok := market.ParseIntervalDuration(interval); ok {
		out = s.dropUnclosed(out, dur)
	}
	return out, nil
}

// dropUnclosed 去掉尾部尚未走完的那根 K 线，分析只吃已收盘数据。
func (s *Source) dropUnclosed(candles []market.Candle, interval time.Duration) []market.Candle {
	if len(candles) == 0 || interval <= 0 {
		return candles
	}
	last := candles[len(candles)-1]
	closeAt := time.UnixMilli(last.OpenTime).Add(interval)
	if s.now().Before(closeAt) {
		return candles[:len(candles)-1]
	}
	return candles
}

func (s *Source) TopSymbols(ctx context.Context, count int, minQuoteVolume float64) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	stats, err := s.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, err
	}
	ranked := make([]market.SymbolStat, 0, len(stats))
	for _, st := range stats {
		if st == nil {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(st.Symbol))
		if !strings.HasSuffix(symbol, "USDT") {
			continue
		}
		vol := parseFloat(st.QuoteVolume)
		if vol < minQuoteVolume {
			continue
		}
		ranked = append(ranked, market.SymbolStat{
			Symbol:      symbol,
			QuoteVolume: vol,
			LastPrice:   parseFloat(st.LastPrice),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].QuoteVolume > ranked[j].QuoteVolume
	})
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	out := make([]string, 0, len(ranked))
	for _, st := range ranked {
		out = append(out, st.Symbol)
	}
	return out, nil
}

func (s *Source) MidPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	depth, err := s.client.NewDepthService().Symbol(symbol).Limit(5).Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(depth.Bids) == 0 || len(depth.Asks) == 0 {
		return 0, fmt.Errorf("empty order book for %s", symbol)
	}
	bid := parseFloat(depth.Bids[0].Price)
	ask := parseFloat(depth.Asks[0].Price)
	if bid <= 0 || ask <= 0 {
		return 0, fmt.Errorf("invalid order book for %s", symbol)
	}
	return (bid + ask) / 2, nil
}

func (s *Source) Close() error {
	return nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
