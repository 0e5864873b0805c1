package models

import "time"

// AuditLog records important operations for auditing.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"`
	Path      string `gorm:"size:255"`
	Method    string `gorm:"size:16"`
	Action    string `gorm:"size:2048"` // 动作/路由 + 请求体摘要
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}

// ReconcileAlarm 冲正失败告警，需要人工对账处理
type ReconcileAlarm struct {
	ID        uint   `gorm:"primaryKey"`
	TradeNo   string `gorm:"size:32;index;not null"`
	ListingID uint   `gorm:"index"`
	BuyerID   uint   `gorm:"index"`
	SellerID  uint   `gorm:"index"`
	Detail    string `gorm:"size:1024"`
	Resolved  bool   `gorm:"index;not null;default:false"`
	CreatedAt time.Time
}
