package models

import "time"

// Wallet 用户钱包，每个用户一个
// 余额用整数点数存储，避免浮点误差；只能通过 Ledger 修改
type Wallet struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"uniqueIndex;not null"`
	Balance   int64     `gorm:"not null;default:0"` // 余额（点数），恒 >= 0
	Version   uint64    `gorm:"not null;default:0"` // 乐观锁版本号
	UpdatedAt time.Time
}

// 流水类型
const (
	EntryKindCredit      = "credit"
	EntryKindDebit       = "debit"
	EntryKindTransferIn  = "transfer_in"
	EntryKindTransferOut = "transfer_out"
)

// LedgerEntry 一次余额变动的不可变流水记录，只增不改不删
type LedgerEntry struct {
	ID               uint   `gorm:"primaryKey"`
	Ref              string `gorm:"size:32;uniqueIndex;not null"` // ULID
	UserID           uint   `gorm:"index;not null"`
	Amount           int64  `gorm:"not null"` // 带符号：入账为正，出账为负
	BalanceBefore    int64  `gorm:"not null"`
	BalanceAfter     int64  `gorm:"not null"`
	Kind             string `gorm:"size:16;index;not null"`
	Description      string `gorm:"size:255"`
	RelatedListingID *uint  `gorm:"index"`
	CreatedAt        time.Time `gorm:"index"`
}
