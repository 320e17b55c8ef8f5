package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddFee 记一笔跟单费用。
func (j *Journal) AddFee(ctx context.Context, rec FeeRecord) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal 未初始化")
	}
	if rec.AmountUSD <= 0 {
		return fmt.Errorf("journal: 费用金额必须为正")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	model := feeModel{
		Follower:      strings.TrimSpace(rec.Follower),
		Kind:          rec.Kind,
		AmountUSD:     rec.AmountUSD,
		Note:          clip(rec.Note, 200),
		CreatedAtUnix: rec.CreatedAt.UnixMilli(),
	}
	return j.db.WithContext(ctx).Create(&model).Error
}

// TotalFees 某跟单账户的累计费用，follower 为空时统计全部。
func (j *Journal) TotalFees(ctx context.Context, follower string) (float64, error) {
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal 未初始化")
	}
	query := j.db.WithContext(ctx).Model(&feeModel{})
	if f := strings.TrimSpace(follower); f != "" {
		query = query.Where("follower = ?", f)
	}
	var total float64
	if err := query.Select("COALESCE(SUM(amount_usd), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// HighWater 读取跟单账户的业绩高水位，无记录返回 0。
func (j *Journal) HighWater(ctx context.Context, follower string) (float64, error) {
	if j == nil || j.db == nil {
		return 0, fmt.Errorf("journal 未初始化")
	}
	var model highWaterModel
	err := j.db.WithContext(ctx).
		Where("follower = ?", strings.TrimSpace(follower)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return model.HighWaterUSD, nil
}

// SetHighWater 上移高水位，新值低于旧值时不动。
func (j *Journal) SetHighWater(ctx context.Context, follower string, value float64) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal 未初始化")
	}
	model := highWaterModel{
		Follower:      strings.TrimSpace(follower),
		HighWaterUSD:  value,
		UpdatedAtUnix: time.Now().UnixMilli(),
	}
	return j.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "follower"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"high_water_usd": gorm.Expr("MAX(copy_high_water.high_water_usd, excluded.high_water_usd)"),
				"updated_at":     gorm.Expr("excluded.updated_at"),
			}),
		}).
		Create(&model).Error
}
