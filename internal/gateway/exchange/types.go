// Package exchange defines a common abstraction for trading venues,
// so the trading loop and the market maker do not depend on a concrete SDK.
package exchange

import "time"

// Side 是仓位方向。
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite 返回反方向。
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// Position represents an open futures position.
type Position struct {
	Symbol        string
	Side          Side
	Quantity      float64 // base asset amount, always positive
	EntryPrice    float64
	MarkPrice     float64
	Leverage      int
	UnrealizedPnL float64
	StopLoss      float64 // 0 if not set
	TakeProfit    float64 // 0 if not set
	UpdatedAt     time.Time
}

// NotionalUSD 仓位名义价值。
func (p Position) NotionalUSD() float64 {
	price := p.MarkPrice
	if price <= 0 {
		price = p.EntryPrice
	}
	return p.Quantity * price
}

// Balance represents futures account balance in the stake currency.
type Balance struct {
	Asset     string
	Total     float64
	Available float64
	UpdatedAt time.Time
}

// OpenRequest contains parameters for a market entry with bracket orders.
type OpenRequest struct {
	Symbol     string
	Side       Side
	Quantity   float64 // base asset amount
	Leverage   int
	StopLoss   float64 // trigger price, 0 to skip
	TakeProfit float64 // trigger price, 0 to skip
	Tag        string  // entry reason for logging
}

// OpenResult contains the fill information of an entry.
type OpenResult struct {
	OrderID    string
	EntryPrice float64
	Quantity   float64
}

// CloseRequest contains parameters for closing a position at market.
type CloseRequest struct {
	Symbol string
	Side   Side
	Reason string
}

// SpotOrder 是做市挂单的最小描述。
type SpotOrder struct {
	ID       string
	Pair     string
	Side     string // "buy" | "sell"
	Price    float64
	Quantity float64
}
