package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Journal 交易与信号流水库，同时承载币种学习统计和跟单费用账。
type Journal struct {
	db *gorm.DB
}

// Open 打开（必要时创建）SQLite 流水库。
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal: 数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&signalModel{}, &tradeModel{}, &feeModel{}, &highWaterModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: 写串行、读少量并行，HTTP 面板读也走这条连接
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LogSignal 记录一次信号评估，批准与否都记。
func (j *Journal) LogSignal(ctx context.Context, rec SignalRecord) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal 未初始化")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	model := signalModel{
		Symbol:           strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Direction:        rec.Direction,
		Confidence:       rec.Confidence,
		Price:            rec.Price,
		Approved:         boolToInt(rec.Approved),
		SMCSignal:        rec.SMCSignal,
		SMCConfidence:    rec.SMCConfidence,
		MASignal:         rec.MASignal,
		MAConfidence:     rec.MAConfidence,
		EngineDetails:    encodeEngineDetails(rec.SMCDetails, rec.MADetails),
		Trend5m:          rec.Trend5m,
		Bias15m:          rec.Bias15m,
		OracleAction:     rec.OracleAction,
		OracleConfidence: rec.OracleConfidence,
		OracleReason:     clip(rec.OracleReason, 100),
		CreatedAtUnix:    rec.CreatedAt.UnixMilli(),
	}
	return j.db.WithContext(ctx).Create(&model).Error
}

// LogTradeOpen 记录开仓，返回流水 ID。
func (j *Journal) LogTradeOpen(ctx context.Context, rec TradeRecord) (int64, error) {
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal 未初始化")
	}
	if rec.OpenedAt.IsZero() {
		rec.OpenedAt = time.Now()
	}
	model := tradeModel{
		Symbol:           strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Direction:        rec.Direction,
		EntryPrice:       rec.EntryPrice,
		SizeUSD:          rec.SizeUSD,
		Leverage:         rec.Leverage,
		StopLossPct:      rec.StopLossPct,
		TakeProfitPct:    rec.TakeProfitPct,
		SMCConfidence:    rec.SMCConfidence,
		MAConfidence:     rec.MAConfidence,
		OracleConfidence: rec.OracleConfidence,
		Details:          clip(rec.Details, 200),
		Trend5m:          rec.Trend5m,
		OpenedAtUnix:     rec.OpenedAt.UnixMilli(),
	}
	if err := j.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

// LogTradeClose 回填该币种最近一笔未平仓记录的平仓信息。
func (j *Journal) LogTradeClose(ctx context.Context, symbol string, exitPrice, pnlUSD float64, win bool) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal 未初始化")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	var model tradeModel
	err := j.db.WithContext(ctx).
		Where("symbol = ? AND result = ''", symbol).
		Order("opened_at DESC, id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	result := ResultLoss
	if win {
		result = ResultWin
	}
	now := time.Now()
	return j.db.WithContext(ctx).Model(&tradeModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"exit_price":       exitPrice,
			"pnl_usd":          pnlUSD,
			"result":           result,
			"closed_at":        now.UnixMilli(),
			"duration_seconds": now.Sub(time.UnixMilli(model.OpenedAtUnix)).Seconds(),
		}).Error
}

// RecentSignals 最近 N 条信号，新的在前。
func (j *Journal) RecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var models []signalModel
	if err := j.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]SignalRecord, 0, len(models))
	for _, m := range models {
		out = append(out, signalModelToRecord(m))
	}
	return out, nil
}

// RecentTrades 最近 N 笔交易，新的在前。
func (j *Journal) RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var models []tradeModel
	if err := j.db.WithContext(ctx).
		Order("opened_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(models))
	for _, m := range models {
		out = append(out, tradeModelToRecord(m))
	}
	return out, nil
}

// engineDetails 信号里两个引擎说明的 JSON 载体。
type engineDetails struct {
	SMC string `json:"smc"`
	MA  string `json:"ma"`
}

func encodeEngineDetails(smcDetails, maDetails string) datatypes.JSON {
	b, err := json.Marshal(engineDetails{
		SMC: clip(smcDetails, 200),
		MA:  clip(maDetails, 200),
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func decodeEngineDetails(raw datatypes.JSON) (string, string) {
	if len(raw) == 0 {
		return "", ""
	}
	var d engineDetails
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", ""
	}
	return d.SMC, d.MA
}

func signalModelToRecord(m signalModel) SignalRecord {
	smcDetails, maDetails := decodeEngineDetails(m.EngineDetails)
	return SignalRecord{
		ID:               m.ID,
		Symbol:           m.Symbol,
		Direction:        m.Direction,
		Confidence:       m.Confidence,
		Price:            m.Price,
		Approved:         m.Approved != 0,
		SMCSignal:        m.SMCSignal,
		SMCConfidence:    m.SMCConfidence,
		SMCDetails:       smcDetails,
		MASignal:         m.MASignal,
		MAConfidence:     m.MAConfidence,
		MADetails:        maDetails,
		Trend5m:          m.Trend5m,
		Bias15m:          m.Bias15m,
		OracleAction:     m.OracleAction,
		OracleConfidence: m.OracleConfidence,
		OracleReason:     m.OracleReason,
		CreatedAt:        time.UnixMilli(m.CreatedAtUnix),
	}
}

func tradeModelToRecord(m tradeModel) TradeRecord {
	rec := TradeRecord{
		ID:               m.ID,
		Symbol:           m.Symbol,
		Direction:        m.Direction,
		EntryPrice:       m.EntryPrice,
		SizeUSD:          m.SizeUSD,
		Leverage:         m.Leverage,
		StopLossPct:      m.StopLossPct,
		TakeProfitPct:    m.TakeProfitPct,
		SMCConfidence:    m.SMCConfidence,
		MAConfidence:     m.MAConfidence,
		OracleConfidence: m.OracleConfidence,
		Details:          m.Details,
		Trend5m:          m.Trend5m,
		ExitPrice:        m.ExitPrice,
		PnLUSD:           m.PnLUSD,
		Result:           m.Result,
		OpenedAt:         time.UnixMilli(m.OpenedAtUnix),
		DurationS:        m.DurationS,
	}
	if m.ClosedAtUnix > 0 {
		rec.ClosedAt = time.UnixMilli(m.ClosedAtUnix)
	}
	return rec
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
