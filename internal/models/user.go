package models

import "time"

// User represents platform user.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Nickname     string    `gorm:"size:64"`
	VIP          bool      `gorm:"default:false"` // VIP 会员享受手续费折扣
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"` // 连续登录失败次数
	LockedUntil         *time.Time `gorm:"index"`     // 账户锁定到期时间
	LastLoginAt         *time.Time                    // 最近登录时间
	LastLoginIP         string     `gorm:"size:64"`   // 最近登录 IP

	SignInStreak int        `gorm:"default:0"` // 连续签到天数
	LastSignInAt *time.Time                    // 最近签到时间
}
