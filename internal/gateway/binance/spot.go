package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cypher/internal/gateway/exchange"

	sdk "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Spot 基于 go-binance 现货客户端实现 exchange.Spot，供做市循环使用。
type Spot struct {
	client *sdk.Client

	stepMu sync.Mutex
	steps  map[string]spotSteps
}

type spotSteps struct {
	qtyStep   decimal.Decimal
	priceTick decimal.Decimal
}

func NewSpot(cfg Config) (*Spot, error) {
	final := cfg.withDefaults()
	if final.APIKey == "" || final.APISecret == "" {
		return nil, fmt.Errorf("binance spot requires api key and secret")
	}
	if final.Testnet {
		sdk.UseTestnet = true
	}
	return &Spot{
		client: sdk.NewClient(final.APIKey, final.APISecret),
		steps:  make(map[string]spotSteps),
	}, nil
}

func (s *Spot) MidPrice(ctx context.Context, pair string) (float64, error) {
	bid, ask, err := s.BookTop(ctx, pair)
	if err != nil {
		return 0, err
	}
	return (bid + ask) / 2, nil
}

func (s *Spot) BookTop(ctx context.Context, pair string) (float64, float64, error) {
	pair = normalizePair(pair)
	depth, err := s.client.NewDepthService().Symbol(pair).Limit(5).Do(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(depth.Bids) == 0 || len(depth.Asks) == 0 {
		return 0, 0, fmt.Errorf("empty order book for %s", pair)
	}
	bid := parseFloat(depth.Bids[0].Price)
	ask := parseFloat(depth.Asks[0].Price)
	if bid <= 0 || ask <= 0 {
		return 0, 0, fmt.Errorf("invalid order book for %s", pair)
	}
	return bid, ask, nil
}

func (s *Spot) AssetBalance(ctx context.Context, asset string) (float64, float64, error) {
	account, err := s.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, 0, err
	}
	asset = strings.ToUpper(strings.TrimSpace(asset))
	for _, b := range account.Balances {
		if strings.EqualFold(b.Asset, asset) {
			return parseFloat(b.Free), parseFloat(b.Locked), nil
		}
	}
	return 0, 0, nil
}

func (s *Spot) PlaceLimit(ctx context.Context, order exchange.SpotOrder) (string, error) {
	pair := normalizePair(order.Pair)
	if pair == "" || order.Price <= 0 || order.Quantity <= 0 {
		return "", fmt.Errorf("limit order requires pair, price and quantity")
	}
	steps, err := s.pairSteps(ctx, pair)
	if err != nil {
		return "", err
	}
	qty := roundToStep(order.Quantity, steps.qtyStep)
	price := roundToStep(order.Price, steps.priceTick)
	if qty.IsZero() {
		return "", fmt.Errorf("quantity %.10f below %s lot size", order.Quantity, pair)
	}
	side := sdk.SideTypeBuy
	if strings.EqualFold(order.Side, "sell") {
		side = sdk.SideTypeSell
	}
	res, err := s.client.NewCreateOrderService().
		Symbol(pair).
		Side(side).
		Type(sdk.OrderTypeLimit).
		TimeInForce(sdk.TimeInForceTypeGTC).
		Quantity(qty.String()).
		Price(price.String()).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("limit %s %s failed: %w", order.Side, pair, err)
	}
	return fmt.Sprintf("%d", res.OrderID), nil
}

func (s *Spot) OpenOrders(ctx context.Context, pair string) ([]exchange.SpotOrder, error) {
	pair = normalizePair(pair)
	orders, err := s.client.NewListOpenOrdersService().Symbol(pair).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]exchange.SpotOrder, 0, len(orders))
	for _, o := range orders {
		if o == nil {
			continue
		}
		side := "buy"
		if o.Side == sdk.SideTypeSell {
			side = "sell"
		}
		out = append(out, exchange.SpotOrder{
			ID:       fmt.Sprintf("%d", o.OrderID),
			Pair:     pair,
			Side:     side,
			Price:    parseFloat(o.Price),
			Quantity: parseFloat(o.OrigQuantity),
		})
	}
	return out, nil
}

func (s *Spot) CancelOpenOrders(ctx context.Context, pair string) error {
	pair = normalizePair(pair)
	_, err := s.client.NewCancelOpenOrdersService().Symbol(pair).Do(ctx)
	return err
}

func (s *Spot) pairSteps(ctx context.Context, pair string) (spotSteps, error) {
	s.stepMu.Lock()
	cached, ok := s.steps[pair]
	s.stepMu.Unlock()
	if ok {
		return cached, nil
	}
	info, err := s.client.NewExchangeInfoService().Symbol(pair).Do(ctx)
	if err != nil {
		return spotSteps{}, err
	}
	for _, sym := range info.Symbols {
		if !strings.EqualFold(sym.Symbol, pair) {
			continue
		}
		steps := spotSteps{
			qtyStep:   decimal.NewFromFloat(1e-8),
			priceTick: decimal.NewFromFloat(1e-8),
		}
		if lot := sym.LotSizeFilter(); lot != nil {
			if step, err := decimal.NewFromString(lot.StepSize); err == nil && step.IsPositive() {
				steps.qtyStep = step
			}
		}
		if pf := sym.PriceFilter(); pf != nil {
			if tick, err := decimal.NewFromString(pf.TickSize); err == nil && tick.IsPositive() {
				steps.priceTick = tick
			}
		}
		s.stepMu.Lock()
		s.steps[pair] = steps
		s.stepMu.Unlock()
		return steps, nil
	}
	return spotSteps{}, fmt.Errorf("pair %s not in exchange info", pair)
}

// roundToStep 向下取整到交易所步长。
func roundToStep(value float64, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return decimal.NewFromFloat(value)
	}
	d := decimal.NewFromFloat(value)
	return d.Div(step).Floor().Mul(step)
}

// normalizePair 去掉配置里的斜杠写法（PURR/USDC -> PURRUSDC）。
func normalizePair(pair string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(pair), "/", ""))
}
