package journal

import (
	"time"

	"gorm.io/datatypes"
)

// SignalRecord 每次扫描产生的信号快照，批准与否都入库。
type SignalRecord struct {
	ID               int64   `json:"id"`
	Symbol           string  `json:"symbol"`
	Direction        string  `json:"direction"`
	Confidence       float64 `json:"confidence"`
	Price            float64 `json:"price"`
	Approved         bool    `json:"approved"`
	SMCSignal        string  `json:"smc_signal"`
	SMCConfidence    float64 `json:"smc_confidence"`
	SMCDetails       string  `json:"smc_details"`
	MASignal         string  `json:"ma_signal"`
	MAConfidence     float64 `json:"ma_confidence"`
	MADetails        string  `json:"ma_details"`
	Trend5m          string  `json:"trend_5m"`
	Bias15m          string  `json:"bias_15m"`
	OracleAction     string  `json:"oracle_action"`
	OracleConfidence float64 `json:"oracle_confidence"`
	OracleReason     string  `json:"oracle_reason"`
	CreatedAt        time.Time
}

// TradeRecord 一笔完整交易的开平仓记录。
type TradeRecord struct {
	ID               int64   `json:"id"`
	Symbol           string  `json:"symbol"`
	Direction        string  `json:"direction"`
	EntryPrice       float64 `json:"entry_price"`
	SizeUSD          float64 `json:"size_usd"`
	Leverage         int     `json:"leverage"`
	StopLossPct      float64 `json:"sl_pct"`
	TakeProfitPct    float64 `json:"tp_pct"`
	SMCConfidence    float64 `json:"smc_confidence"`
	MAConfidence     float64 `json:"ma_confidence"`
	OracleConfidence float64 `json:"oracle_confidence"`
	Details          string  `json:"details"`
	Trend5m          string  `json:"trend_5m"`
	ExitPrice        float64 `json:"exit_price"`
	PnLUSD           float64 `json:"pnl_usd"`
	// Result 为空表示仍在持仓，平仓后写 WIN/LOSS
	Result    string `json:"result"`
	OpenedAt  time.Time
	ClosedAt  time.Time
	DurationS float64 `json:"duration_seconds"`
}

// FeeRecord 跟单费用流水（按笔手续费或业绩分成）。
type FeeRecord struct {
	ID        int64   `json:"id"`
	Follower  string  `json:"follower"`
	Kind      string  `json:"kind"`
	AmountUSD float64 `json:"amount_usd"`
	Note      string  `json:"note"`
	CreatedAt time.Time
}

const (
	FeeKindTrade       = "trade"
	FeeKindPerformance = "performance"
)

const (
	ResultWin  = "WIN"
	ResultLoss = "LOSS"
)

type signalModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Symbol        string  `gorm:"column:symbol;index"`
	Direction     string  `gorm:"column:direction"`
	Confidence    float64 `gorm:"column:confidence"`
	Price         float64 `gorm:"column:price"`
	Approved      int     `gorm:"column:approved;index"`
	SMCSignal     string  `gorm:"column:smc_signal"`
	SMCConfidence float64 `gorm:"column:smc_confidence"`
	MASignal      string  `gorm:"column:ma_signal"`
	MAConfidence  float64 `gorm:"column:ma_confidence"`
	// EngineDetails 两个引擎的文字说明，存成 {"smc":...,"ma":...}
	EngineDetails    datatypes.JSON `gorm:"column:engine_details"`
	Trend5m          string         `gorm:"column:trend_5m"`
	Bias15m          string         `gorm:"column:bias_15m"`
	OracleAction     string         `gorm:"column:oracle_action"`
	OracleConfidence float64        `gorm:"column:oracle_confidence"`
	OracleReason     string         `gorm:"column:oracle_reason"`
	CreatedAtUnix    int64          `gorm:"column:created_at;index"`
}

func (signalModel) TableName() string { return "signals" }

type tradeModel struct {
	ID               int64   `gorm:"column:id;primaryKey"`
	Symbol           string  `gorm:"column:symbol;index"`
	Direction        string  `gorm:"column:direction"`
	EntryPrice       float64 `gorm:"column:entry_price"`
	SizeUSD          float64 `gorm:"column:size_usd"`
	Leverage         int     `gorm:"column:leverage"`
	StopLossPct      float64 `gorm:"column:sl_pct"`
	TakeProfitPct    float64 `gorm:"column:tp_pct"`
	SMCConfidence    float64 `gorm:"column:smc_confidence"`
	MAConfidence     float64 `gorm:"column:ma_confidence"`
	OracleConfidence float64 `gorm:"column:oracle_confidence"`
	Details          string  `gorm:"column:details"`
	Trend5m          string  `gorm:"column:trend_5m"`
	ExitPrice        float64 `gorm:"column:exit_price"`
	PnLUSD           float64 `gorm:"column:pnl_usd"`
	Result           string  `gorm:"column:result;index"`
	OpenedAtUnix     int64   `gorm:"column:opened_at;index"`
	ClosedAtUnix     int64   `gorm:"column:closed_at"`
	DurationS        float64 `gorm:"column:duration_seconds"`
}

func (tradeModel) TableName() string { return "trades" }

type feeModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	Follower      string  `gorm:"column:follower;index"`
	Kind          string  `gorm:"column:kind"`
	AmountUSD     float64 `gorm:"column:amount_usd"`
	Note          string  `gorm:"column:note"`
	CreatedAtUnix int64   `gorm:"column:created_at;index"`
}

func (feeModel) TableName() string { return "copy_fees" }

// highWaterModel 每个跟单账户的业绩高水位。
type highWaterModel struct {
	Follower      string  `gorm:"column:follower;primaryKey"`
	HighWaterUSD  float64 `gorm:"column:high_water_usd"`
	UpdatedAtUnix int64   `gorm:"column:updated_at"`
}

func (highWaterModel) TableName() string { return "copy_high_water" }
