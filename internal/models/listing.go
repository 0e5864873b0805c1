package models

import "time"

// 挂单状态；sold / cancelled / expired 为终态，不可再变
const (
	ListingStatusActive    = "active"
	ListingStatusSold      = "sold"
	ListingStatusCancelled = "cancelled"
	ListingStatusExpired   = "expired"
)

// Listing 玩家市场挂单
type Listing struct {
	ID          uint      `gorm:"primaryKey"`
	SellerID    uint      `gorm:"index;not null"`
	ProductRef  string    `gorm:"size:64;index;not null"` // 商品标识
	Quantity    int       `gorm:"not null"`               // 剩余数量，> 0
	UnitPrice   int64     `gorm:"not null"`               // 单价（点数）
	Description string    `gorm:"size:500"`
	Status      string    `gorm:"size:16;index;not null"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

// Terminal reports whether the listing is in a terminal state.
func (l *Listing) Terminal() bool {
	return l.Status != ListingStatusActive
}
