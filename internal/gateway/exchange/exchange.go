package exchange

import "context"

// Futures 是合约执行端口：开平仓、杠杆与保护单管理。
type Futures interface {
	Name() string

	Balance(ctx context.Context) (Balance, error)

	ListOpenPositions(ctx context.Context) ([]Position, error)

	// Open 市价开仓并挂上 SL/TP 保护单。
	Open(ctx context.Context, req OpenRequest) (*OpenResult, error)

	// Close 市价平掉整个仓位并撤销其保护单。
	Close(ctx context.Context, req CloseRequest) error

	// ReplaceStopLoss 撤销旧止损并以新触发价重挂（追踪止损用）。
	ReplaceStopLoss(ctx context.Context, symbol string, side Side, trigger float64) error

	// Transfer 将合约账户的 USD 余额划转出去（利润提取）。
	Transfer(ctx context.Context, asset string, amount float64, wallet string) error
}

// Spot 是做市端口：盘口报价与限价挂单管理。
type Spot interface {
	MidPrice(ctx context.Context, pair string) (float64, error)

	// BookTop 返回盘口最优买一/卖一价。
	BookTop(ctx context.Context, pair string) (bid, ask float64, err error)

	AssetBalance(ctx context.Context, asset string) (free, locked float64, err error)

	PlaceLimit(ctx context.Context, order SpotOrder) (string, error)

	OpenOrders(ctx context.Context, pair string) ([]SpotOrder, error)

	CancelOpenOrders(ctx context.Context, pair string) error
}
