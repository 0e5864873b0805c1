package market

import (
	"errors"
	"fmt"
	"time"

	"gamecore-market/internal/models"

	"gorm.io/gorm"
)

// Journal 交易记录的唯一写入方，只追加、单向状态流转
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Record 写入一条交易记录，id 和 trade_no 由 Journal 分配
func (j *Journal) Record(trade *models.Trade) (*models.Trade, error) {
	if trade.TradeNo == "" {
		trade.TradeNo = newULID()
	}
	if trade.Status == "" {
		trade.Status = models.TradeStatusPending
	}
	if err := j.db.Create(trade).Error; err != nil {
		return nil, fmt.Errorf("record trade: %w", err)
	}
	return trade, nil
}

// Get 查询交易记录
func (j *Journal) Get(tradeID uint) (*models.Trade, error) {
	var trade models.Trade
	if err := j.db.First(&trade, tradeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindNotFound, "交易记录不存在")
		}
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return &trade, nil
}

// ListByUser 分页查询用户的交易（买卖双向），按创建时间倒序，id 倒序兜底
func (j *Journal) ListByUser(userID uint, page, pageSize int) ([]models.Trade, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	base := j.db.Model(&models.Trade{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	var trades []models.Trade
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&trades).Error; err != nil {
		return nil, 0, fmt.Errorf("list trades: %w", err)
	}
	return trades, total, nil
}

// MarkCompleted pending -> completed，终态不可再改
func (j *Journal) MarkCompleted(tradeID uint) error {
	now := time.Now()
	return j.transition(tradeID, map[string]interface{}{
		"status":       models.TradeStatusCompleted,
		"completed_at": &now,
	})
}

// MarkFailed pending -> failed，记录失败原因
func (j *Journal) MarkFailed(tradeID uint, reason string) error {
	return j.transition(tradeID, map[string]interface{}{
		"status":      models.TradeStatusFailed,
		"fail_reason": reason,
	})
}

// transition 单向状态流转：只允许从 pending 出发
func (j *Journal) transition(tradeID uint, updates map[string]interface{}) error {
	res := j.db.Model(&models.Trade{}).
		Where("id = ? AND status = ?", tradeID, models.TradeStatusPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := j.db.Model(&models.Trade{}).Where("id = ?", tradeID).Count(&count).Error; err != nil {
			return fmt.Errorf("check trade: %w", err)
		}
		if count == 0 {
			return E(KindNotFound, "交易记录不存在")
		}
		return E(KindInvalidState, "交易已是终态")
	}
	return nil
}
