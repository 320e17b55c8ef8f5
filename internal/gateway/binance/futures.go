package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cypher/internal/gateway/exchange"
	"cypher/internal/logger"

	sdk "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// clientOrderID 自备幂等单号，断线重发时交易所按单号去重。
func clientOrderID(tag string) string {
	if tag == "" {
		tag = "cy"
	}
	if len(tag) > 10 {
		tag = tag[:10]
	}
	return fmt.Sprintf("%s-%s", tag, uuid.NewString()[:18])
}

// Futures 基于 go-binance 实现 exchange.Futures：
// 市价开平仓、SL/TP 保护单与利润划转。
type Futures struct {
	cfg    Config
	client *futures.Client
	spot   *sdk.Client

	precMu sync.Mutex
	prec   map[string]symbolPrecision
}

type symbolPrecision struct {
	quantity int32
	price    int32
}

func NewFutures(cfg Config) (*Futures, error) {
	final := cfg.withDefaults()
	if final.APIKey == "" || final.APISecret == "" {
		return nil, fmt.Errorf("binance futures requires api key and secret")
	}
	if final.Testnet {
		futures.UseTestnet = true
	}
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient, err := newHTTPClient(final)
	if err != nil {
		return nil, err
	}
	client.HTTPClient = httpClient
	return &Futures{
		cfg:    final,
		client: client,
		spot:   sdk.NewClient(final.APIKey, final.APISecret),
		prec:   make(map[string]symbolPrecision),
	}, nil
}

func (f *Futures) Name() string {
	return "binance-futures"
}

func (f *Futures) Balance(ctx context.Context) (exchange.Balance, error) {
	balances, err := f.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return exchange.Balance{}, err
	}
	for _, b := range balances {
		if b == nil || !strings.EqualFold(b.Asset, "USDT") {
			continue
		}
		return exchange.Balance{
			Asset:     "USDT",
			Total:     parseFloat(b.Balance),
			Available: parseFloat(b.AvailableBalance),
			UpdatedAt: time.Now(),
		}, nil
	}
	return exchange.Balance{Asset: "USDT", UpdatedAt: time.Now()}, nil
}

func (f *Futures) ListOpenPositions(ctx context.Context) ([]exchange.Position, error) {
	risks, err := f.client.NewGetPositionRiskService().Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]exchange.Position, 0, len(risks))
	for _, r := range risks {
		if r == nil {
			continue
		}
		amt := parseFloat(r.PositionAmt)
		if amt == 0 {
			continue
		}
		side := exchange.SideLong
		if amt < 0 {
			side = exchange.SideShort
			amt = -amt
		}
		out = append(out, exchange.Position{
			Symbol:        strings.ToUpper(r.Symbol),
			Side:          side,
			Quantity:      amt,
			EntryPrice:    parseFloat(r.EntryPrice),
			MarkPrice:     parseFloat(r.MarkPrice),
			Leverage:      int(parseFloat(r.Leverage)),
			UnrealizedPnL: parseFloat(r.UnRealizedProfit),
			UpdatedAt:     time.Now(),
		})
	}
	return out, nil
}

// Open 市价开仓；成交后立即挂 SL/TP 保护单。
// 保护单失败不回滚仓位，只告警，由交易循环的软止损兜底。
func (f *Futures) Open(ctx context.Context, req exchange.OpenRequest) (*exchange.OpenResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" || req.Quantity <= 0 {
		return nil, fmt.Errorf("open requires symbol and positive quantity")
	}
	if req.Leverage > 0 {
		if _, err := f.client.NewChangeLeverageService().Symbol(symbol).Leverage(req.Leverage).Do(ctx); err != nil {
			logger.Warnf("[binance] set leverage %dx for %s failed: %v", req.Leverage, symbol, err)
		}
	}
	qty, err := f.formatQuantity(ctx, symbol, req.Quantity)
	if err != nil {
		return nil, err
	}

	entrySide := futures.SideTypeBuy
	if req.Side == exchange.SideShort {
		entrySide = futures.SideTypeSell
	}
	order, err := f.client.NewCreateOrderService().
		Symbol(symbol).
		Side(entrySide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		NewClientOrderID(clientOrderID(req.Tag)).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("market open %s %s failed: %w", req.Side, symbol, err)
	}
	result := &exchange.OpenResult{
		OrderID:    fmt.Sprintf("%d", order.OrderID),
		EntryPrice: parseFloat(order.AvgPrice),
		Quantity:   parseFloat(order.ExecutedQuantity),
	}

	exitSide := futures.SideTypeSell
	if req.Side == exchange.SideShort {
		exitSide = futures.SideTypeBuy
	}
	if req.StopLoss > 0 {
		if err := f.placeTrigger(ctx, symbol, exitSide, futures.OrderTypeStopMarket, req.StopLoss); err != nil {
			logger.Warnf("[binance] stop loss for %s failed: %v", symbol, err)
		}
	}
	if req.TakeProfit > 0 {
		if err := f.placeTrigger(ctx, symbol, exitSide, futures.OrderTypeTakeProfitMarket, req.TakeProfit); err != nil {
			logger.Warnf("[binance] take profit for %s failed: %v", symbol, err)
		}
	}
	return result, nil
}

func (f *Futures) Close(ctx context.Context, req exchange.CloseRequest) error {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return fmt.Errorf("close requires symbol")
	}
	positions, err := f.ListOpenPositions(ctx)
	if err != nil {
		return err
	}
	var target *exchange.Position
	for i := range positions {
		if positions[i].Symbol == symbol && positions[i].Side == req.Side {
			target = &positions[i]
			break
		}
	}
	if target == nil {
		return nil
	}
	qty, err := f.formatQuantity(ctx, symbol, target.Quantity)
	if err != nil {
		return err
	}
	exitSide := futures.SideTypeSell
	if req.Side == exchange.SideShort {
		exitSide = futures.SideTypeBuy
	}
	_, err = f.client.NewCreateOrderService().
		Symbol(symbol).
		Side(exitSide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("market close %s failed: %w", symbol, err)
	}
	if err := f.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
		logger.Warnf("[binance] cancel open orders for %s failed: %v", symbol, err)
	}
	return nil
}

func (f *Futures) ReplaceStopLoss(ctx context.Context, symbol string, side exchange.Side, trigger float64) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || trigger <= 0 {
		return fmt.Errorf("replace stop loss requires symbol and positive trigger")
	}
	orders, err := f.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o == nil || o.Type != futures.OrderTypeStopMarket {
			continue
		}
		if _, err := f.client.NewCancelOrderService().Symbol(symbol).OrderID(o.OrderID).Do(ctx); err != nil {
			logger.Warnf("[binance] cancel stale stop %d for %s failed: %v", o.OrderID, symbol, err)
		}
	}
	exitSide := futures.SideTypeSell
	if side == exchange.SideShort {
		exitSide = futures.SideTypeBuy
	}
	return f.placeTrigger(ctx, symbol, exitSide, futures.OrderTypeStopMarket, trigger)
}

// Transfer 将利润从合约账户划转到现货账户，再提现到外部钱包。
// wallet 为空时只做内部划转。
func (f *Futures) Transfer(ctx context.Context, asset string, amount float64, wallet string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be > 0")
	}
	asset = strings.ToUpper(strings.TrimSpace(asset))
	if asset == "" {
		asset = "USDT"
	}
	amt := decimal.NewFromFloat(amount).RoundFloor(2).String()
	if _, err := f.spot.NewFuturesTransferService().
		Asset(asset).
		Amount(amt).
		Type(sdk.FuturesTransferTypeToMain).
		Do(ctx); err != nil {
		return fmt.Errorf("futures to spot transfer failed: %w", err)
	}
	if strings.TrimSpace(wallet) == "" {
		return nil
	}
	_, err := f.spot.NewCreateWithdrawService().
		Coin(asset).
		Address(strings.TrimSpace(wallet)).
		Amount(amt).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("withdraw to %s failed: %w", wallet, err)
	}
	return nil
}

func (f *Futures) placeTrigger(ctx context.Context, symbol string, side futures.SideType, kind futures.OrderType, trigger float64) error {
	price, err := f.formatPrice(ctx, symbol, trigger)
	if err != nil {
		return err
	}
	_, err = f.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(kind).
		StopPrice(price).
		ClosePosition(true).
		Do(ctx)
	return err
}

// formatQuantity 按交易所精度向下取整，避免 LOT_SIZE 拒单。
func (f *Futures) formatQuantity(ctx context.Context, symbol string, qty float64) (string, error) {
	prec, err := f.precision(ctx, symbol)
	if err != nil {
		return "", err
	}
	d := decimal.NewFromFloat(qty).RoundFloor(prec.quantity)
	if d.IsZero() {
		return "", fmt.Errorf("quantity %.10f below %s precision", qty, symbol)
	}
	return d.String(), nil
}

func (f *Futures) formatPrice(ctx context.Context, symbol string, price float64) (string, error) {
	prec, err := f.precision(ctx, symbol)
	if err != nil {
		return "", err
	}
	return decimal.NewFromFloat(price).Round(prec.price).String(), nil
}

func (f *Futures) precision(ctx context.Context, symbol string) (symbolPrecision, error) {
	f.precMu.Lock()
	cached, ok := f.prec[symbol]
	f.precMu.Unlock()
	if ok {
		return cached, nil
	}
	info, err := f.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return symbolPrecision{}, err
	}
	f.precMu.Lock()
	defer f.precMu.Unlock()
	for _, s := range info.Symbols {
		f.prec[strings.ToUpper(s.Symbol)] = symbolPrecision{
			quantity: int32(s.QuantityPrecision),
			price:    int32(s.PricePrecision),
		}
	}
	cached, ok = f.prec[symbol]
	if !ok {
		return symbolPrecision{}, fmt.Errorf("symbol %s not in exchange info", symbol)
	}
	return cached, nil
}
