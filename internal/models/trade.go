package models

import "time"

// 交易状态；completed / cancelled / failed 为终态
const (
	TradeStatusPending   = "pending"
	TradeStatusCompleted = "completed"
	TradeStatusCancelled = "cancelled"
	TradeStatusFailed    = "failed"
)

// Trade 一次购买的结果记录（审计用，只由 Journal 写入）
// 恒有 TotalAmount = UnitPrice * Quantity，FeeAmount + SellerNetAmount = TotalAmount
type Trade struct {
	ID              uint   `gorm:"primaryKey"`
	TradeNo         string `gorm:"size:32;uniqueIndex;not null"` // ULID
	ListingID       uint   `gorm:"index;not null"`
	SellerID        uint   `gorm:"index;not null"`
	BuyerID         uint   `gorm:"index;not null"`
	Quantity        int    `gorm:"not null"`
	UnitPrice       int64  `gorm:"not null"`
	TotalAmount     int64  `gorm:"not null"`
	FeeAmount       int64  `gorm:"not null"`
	SellerNetAmount int64  `gorm:"not null"`
	Status          string `gorm:"size:16;index;not null"`
	FailReason      string `gorm:"size:255"`
	BuyerEntryID    *uint  // 买家扣款流水
	SellerEntryID   *uint  // 卖家入账流水
	CreatedAt       time.Time `gorm:"index"`
	CompletedAt     *time.Time
}

// Terminal reports whether the trade has reached a final status.
func (t *Trade) Terminal() bool {
	return t.Status != TradeStatusPending
}
