package market

import (
	"fmt"
	"math"
)

// Candle 单根 K 线（按开盘时间升序存放）。
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Body 返回实体绝对值。
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range 返回整根振幅（high-low）。
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Bullish 收阳。
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish 收阴。
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// ValidateSeries 在数据边界处校验 K 线序列：数值有效、时间升序。
// 分析核心假定输入已通过此校验，内部不再抛错（见引擎的降级语义）。
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("candle %d: non-finite OHLCV value", i)
			}
		}
		if c.High < c.Low {
			return fmt.Errorf("candle %d: high %.8f < low %.8f", i, c.High, c.Low)
		}
		if i > 0 && c.OpenTime <= candles[i-1].OpenTime {
			return fmt.Errorf("candle %d: open_time not ascending", i)
		}
	}
	return nil
}

// Closes 提取收盘价序列。
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs 提取最高价序列。
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows 提取最低价序列。
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes 提取成交量序列。
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
