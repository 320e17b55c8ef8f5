package smc

// Signal 方向信号，引擎与外部调用方共用的三态值。
type Signal string

const (
	SignalLong    Signal = "LONG"
	SignalShort   Signal = "SHORT"
	SignalNeutral Signal = "NEUTRAL"
)

// Trend 内部结构趋势标签（由最近三组摆动点判定）。
type Trend string

const (
	TrendBullish     Trend = "BULLISH"
	TrendBearish     Trend = "BEARISH"
	TrendWeakBullish Trend = "WEAK_BULLISH"
	TrendWeakBearish Trend = "WEAK_BEARISH"
	TrendNeutral     Trend = "NEUTRAL"
)

// StructureKind 结构事件类型。BOS 为顺势突破，MSS 为带动能确认的反转。
type StructureKind string

const (
	BullishBOS StructureKind = "BULLISH_BOS"
	BearishBOS StructureKind = "BEARISH_BOS"
	BullishMSS StructureKind = "BULLISH_MSS"
	BearishMSS StructureKind = "BEARISH_MSS"
)

// OrderBlockKind 订单块方向。
type OrderBlockKind string

const (
	BullishOB OrderBlockKind = "BULLISH_OB"
	BearishOB OrderBlockKind = "BEARISH_OB"
)

// GapKind 公允价值缺口方向。
type GapKind string

const (
	BullishFVG GapKind = "BULLISH_FVG"
	BearishFVG GapKind = "BEARISH_FVG"
)

// SweepKind 流动性扫荡方向。
type SweepKind string

const (
	BullishSweep SweepKind = "BULLISH_SWEEP"
	BearishSweep SweepKind = "BEARISH_SWEEP"
)

// DisplacementKind 动能蜡烛方向。
type DisplacementKind string

const (
	BullishDisplacement DisplacementKind = "BULLISH_DISPLACEMENT"
	BearishDisplacement DisplacementKind = "BEARISH_DISPLACEMENT"
)

// SwingPoint 摆动点：窗口内的局部极值。
// Strength 为 ±20 根邻域内价格落在 ±0.1% 以内的触碰次数（含自身）。
type SwingPoint struct {
	Index    int     `json:"index"`
	Price    float64 `json:"price"`
	Strength int     `json:"strength"`
}

// StructureEvent BOS/MSS 事件。每次 Analyze 重新推导，不跨调用保留。
type StructureEvent struct {
	Kind         StructureKind `json:"type"`
	Level        float64       `json:"level"`
	Strength     float64       `json:"strength"`
	CandlesAgo   int           `json:"candles_ago,omitempty"`
	Displacement bool          `json:"displacement,omitempty"`
}

// OrderBlock 动能行情前的最后一根反向蜡烛形成的区域。
// Mitigated 表示后续收盘价已越过远端边界，区域失效。
type OrderBlock struct {
	Kind       OrderBlockKind `json:"type"`
	High       float64        `json:"high"`
	Low        float64        `json:"low"`
	Index      int            `json:"index"`
	Strength   float64        `json:"strength"`
	Mitigated  bool           `json:"mitigated"`
	CandlesAgo int            `json:"candles_ago"`
}

// FairValueGap 三蜡烛失衡缺口。Filled 以 50% 回补中线为准，而非完全回补。
type FairValueGap struct {
	Kind       GapKind `json:"type"`
	Top        float64 `json:"top"`
	Bottom     float64 `json:"bottom"`
	Index      int     `json:"index"`
	Size       float64 `json:"size"`
	Filled     bool    `json:"filled"`
	CandlesAgo int     `json:"candles_ago"`
}

// LiquiditySweep 影线扫过摆动位后收回（猎杀止损）。
// Confirmed 需要存在下一根蜡烛且按扫荡方向收盘；最新蜡烛上的扫荡无从确认。
type LiquiditySweep struct {
	Kind       SweepKind `json:"type"`
	Level      float64   `json:"level"`
	WickDepth  float64   `json:"wick_depth"`
	WickRatio  float64   `json:"wick_ratio"`
	Confirmed  bool      `json:"confirmed"`
	CandlesAgo int       `json:"candles_ago"`
}

// Displacement 高实体占比的冲量蜡烛。
type Displacement struct {
	Kind       DisplacementKind `json:"type"`
	BodyRatio  float64          `json:"body_ratio"`
	MovePct    float64          `json:"move_pct"`
	CandlesAgo int              `json:"candles_ago"`
}

// AnalysisResult 一次完整 SMC 分析的输出。
// 所有切片均在本次调用内重算，Index 字段是对本次窗口的 0 基偏移。
type AnalysisResult struct {
	Signal        Signal           `json:"signal"`
	Confidence    float64          `json:"confidence"`
	BOS           []StructureEvent `json:"bos"`
	MSS           []StructureEvent `json:"mss"`
	OrderBlocks   []OrderBlock     `json:"order_blocks"`
	FVGs          []FairValueGap   `json:"fvgs"`
	Liquidity     []LiquiditySweep `json:"liquidity"`
	Displacement  []Displacement   `json:"displacement"`
	Trend         Trend            `json:"trend"`
	Details       string           `json:"details"`
}
