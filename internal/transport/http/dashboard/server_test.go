package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"cypher/internal/gateway/exchange"
	"cypher/internal/store/journal"
	"cypher/internal/trader"
)

type stubTrader struct{}

func (stubTrader) Stats() trader.Stats {
	return trader.Stats{Cycle: 7, Balance: 123.45, Wins: 3, Losses: 1}
}

func (stubTrader) OpenPositions() []exchange.Position {
	return []exchange.Position{{
		Symbol:     "BTCUSDT",
		Side:       exchange.SideLong,
		Quantity:   0.01,
		EntryPrice: 50000,
		StopLoss:   49000,
		TakeProfit: 52000,
		UpdatedAt:  time.Now(),
	}}
}

type stubJournal struct{}

func (stubJournal) RecentSignals(ctx context.Context, limit int) ([]journal.SignalRecord, error) {
	return []journal.SignalRecord{{Symbol: "ETHUSDT", Direction: "LONG", Confidence: 0.72}}, nil
}

func (stubJournal) RecentTrades(ctx context.Context, limit int) ([]journal.TradeRecord, error) {
	return []journal.TradeRecord{{Symbol: "BTCUSDT", Direction: "long", Result: journal.ResultWin}}, nil
}

func (stubJournal) TotalFees(ctx context.Context, follower string) (float64, error) {
	return 12.5, nil
}

func (stubJournal) Summary(ctx context.Context) string {
	return "Total: 4 trades | WR: 75% (3W/1L) | PnL: $10.00"
}

func newTestServer() *Server {
	return NewServer(ServerConfig{
		Addr:    ":0",
		Trader:  stubTrader{},
		Journal: stubJournal{},
	})
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func TestHealthz(t *testing.T) {
	code, body := get(t, newTestServer(), "/healthz")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
}

func TestRootIsPlainStatusLine(t *testing.T) {
	code, body := get(t, newTestServer(), "/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Cypher OK")
	assert.Contains(t, body, "running: true")
}

func TestStatusEndpoint(t *testing.T) {
	code, body := get(t, newTestServer(), "/api/status")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(7), gjson.Get(body, "trader.cycle").Int())
	assert.InDelta(t, 123.45, gjson.Get(body, "trader.balance").Float(), 1e-9)
	assert.Contains(t, gjson.Get(body, "summary").String(), "WR: 75%")
}

func TestPositionsEndpoint(t *testing.T) {
	code, body := get(t, newTestServer(), "/api/positions")
	require.Equal(t, http.StatusOK, code)
	positions := gjson.Get(body, "positions")
	require.Equal(t, 1, len(positions.Array()))
	assert.Equal(t, "BTCUSDT", positions.Get("0.symbol").String())
	assert.InDelta(t, 49000, positions.Get("0.stop_loss").Float(), 1e-9)
}

func TestSignalsAndTrades(t *testing.T) {
	s := newTestServer()

	code, body := get(t, s, "/api/signals?limit=10")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ETHUSDT", gjson.Get(body, "signals.0.symbol").String())

	code, body = get(t, s, "/api/trades")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, journal.ResultWin, gjson.Get(body, "trades.0.result").String())
}

func TestFeesEndpoint(t *testing.T) {
	code, body := get(t, newTestServer(), "/api/fees?follower=alice")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 12.5, gjson.Get(body, "total_fees_usd").Float(), 1e-9)
	assert.Equal(t, "alice", gjson.Get(body, "follower").String())
}

func TestNilDependenciesReturnEmpty(t *testing.T) {
	s := NewServer(ServerConfig{Addr: ":0"})

	code, body := get(t, s, "/api/positions")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, len(gjson.Get(body, "positions").Array()))

	code, body = get(t, s, "/api/signals")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, len(gjson.Get(body, "signals").Array()))
}
