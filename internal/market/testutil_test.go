package market

import (
	"fmt"
	"testing"

	"gamecore-market/internal/config"
	"gamecore-market/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql db 失败: %v", err)
	}
	// 内存库只开一个连接，避免 SQLITE_BUSY 干扰测试
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.LedgerEntry{},
		&models.Listing{},
		&models.Trade{},
		&models.ReconcileAlarm{},
	); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

// testMarketConfig 测试用市场参数：5% 手续费，10/500 上下限
func testMarketConfig() config.MarketConfig {
	return config.MarketConfig{
		FeeRateBP:                500,
		MinFee:                   10,
		MaxFee:                   500,
		MaxUnitPrice:             1000000,
		MaxDescriptionLen:        500,
		ListingRateLimit:         100,
		ListingRateWindowMinutes: 10,
	}
}

// newTestUser 建用户 + 钱包，并充入初始余额
func newTestUser(t *testing.T, db *gorm.DB, ledger *Ledger, username string, balance int64, vip bool) *models.User {
	t.Helper()

	user := models.User{Username: username, PasswordHash: "x", VIP: vip}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if err := ledger.CreateWallet(user.ID); err != nil {
		t.Fatalf("创建钱包失败: %v", err)
	}
	if balance > 0 {
		if _, err := ledger.Credit(user.ID, balance, "初始充值", nil); err != nil {
			t.Fatalf("充值失败: %v", err)
		}
	}
	return &user
}

// mustBalance 读取余额，失败直接终止测试
func mustBalance(t *testing.T, ledger *Ledger, userID uint) int64 {
	t.Helper()
	balance, err := ledger.GetBalance(userID)
	if err != nil {
		t.Fatalf("查询余额失败: %v", err)
	}
	return balance
}
