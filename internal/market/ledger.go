package market

import (
	"errors"
	"fmt"

	"gamecore-market/internal/models"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// 乐观锁冲突时的内部重试次数
const maxRetries = 3

func newULID() string {
	return ulid.Make().String()
}

// Ledger 钱包流水引擎，余额的唯一修改入口。
// 每次变动都在事务里用版本号 CAS 更新余额，并追加一条不可变流水；
// 并发写同一钱包时 CAS 失败按 Conflict 重试，保证不丢更新。
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// CreateWallet 为用户建钱包（注册时调用），已存在则不动
func (l *Ledger) CreateWallet(userID uint) error {
	w := models.Wallet{UserID: userID}
	err := l.db.Where("user_id = ?", userID).FirstOrCreate(&w).Error
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

// GetBalance 查询当前余额
func (l *Ledger) GetBalance(userID uint) (int64, error) {
	var w models.Wallet
	if err := l.db.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, E(KindNotFound, "钱包不存在")
		}
		return 0, fmt.Errorf("get wallet: %w", err)
	}
	return w.Balance, nil
}

// Credit 入账。amount 必须 > 0
func (l *Ledger) Credit(userID uint, amount int64, description string, relatedListingID *uint) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, E(KindInvalidInput, "金额必须为正数")
	}
	var entry *models.LedgerEntry
	err := l.withRetry(func(tx *gorm.DB) error {
		var err error
		entry, err = applyChange(tx, userID, amount, models.EntryKindCredit, description, relatedListingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit 出账。amount 必须 > 0；余额不足返回 InsufficientFunds，余额不变
func (l *Ledger) Debit(userID uint, amount int64, description string, relatedListingID *uint) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, E(KindInvalidInput, "金额必须为正数")
	}
	var entry *models.LedgerEntry
	err := l.withRetry(func(tx *gorm.DB) error {
		var err error
		entry, err = applyChange(tx, userID, -amount, models.EntryKindDebit, description, relatedListingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Transfer 转账：买家出 amount，卖家收 amount - fee（手续费归平台）。
// 两笔变动在同一个事务里完成，要么都落库要么都不落库。
func (l *Ledger) Transfer(fromUserID, toUserID uint, amount, fee int64, description string, relatedListingID *uint) (*models.LedgerEntry, *models.LedgerEntry, error) {
	if fromUserID == toUserID {
		return nil, nil, E(KindInvalidInput, "不能给自己转账")
	}
	if amount <= 0 {
		return nil, nil, E(KindInvalidInput, "金额必须为正数")
	}
	if fee < 0 || fee > amount {
		return nil, nil, E(KindInvalidInput, "手续费不合法")
	}

	var out, in *models.LedgerEntry
	err := l.withRetry(func(tx *gorm.DB) error {
		var err error
		out, err = applyChange(tx, fromUserID, -amount, models.EntryKindTransferOut, description, relatedListingID)
		if err != nil {
			return err
		}
		in, err = applyChange(tx, toUserID, amount-fee, models.EntryKindTransferIn, description, relatedListingID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// History 分页查询流水，按创建时间倒序
func (l *Ledger) History(userID uint, page, pageSize int) ([]models.LedgerEntry, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	base := l.db.Model(&models.LedgerEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	var entries []models.LedgerEntry
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	return entries, total, nil
}

// withRetry 在 Conflict 时重试整个事务
func (l *Ledger) withRetry(fn func(tx *gorm.DB) error) error {
	return runTxRetry(l.db, fn)
}

// runTxRetry 执行事务，乐观锁冲突时整体重试，超过次数后把 Conflict 抛给调用方
func runTxRetry(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = db.Transaction(fn)
		if !IsKind(err, KindConflict) {
			return err
		}
	}
	return err
}

// applyChange 在事务内对单个钱包做一次余额变动并追加流水。
// 用 version 做 CAS：并发修改导致版本变化时返回 Conflict，由上层重试。
func applyChange(tx *gorm.DB, userID uint, delta int64, kind, description string, relatedListingID *uint) (*models.LedgerEntry, error) {
	var w models.Wallet
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindNotFound, "钱包不存在")
		}
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	newBalance := w.Balance + delta
	if newBalance < 0 {
		return nil, E(KindInsufficientFunds, "余额不足")
	}

	res := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND version = ?", userID, w.Version).
		Updates(map[string]interface{}{
			"balance": newBalance,
			"version": w.Version + 1,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, E(KindConflict, "钱包并发更新冲突")
	}

	entry := models.LedgerEntry{
		Ref:              newULID(),
		UserID:           userID,
		Amount:           delta,
		BalanceBefore:    w.Balance,
		BalanceAfter:     newBalance,
		Kind:             kind,
		Description:      description,
		RelatedListingID: relatedListingID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	return &entry, nil
}

// normalizePage 分页参数兜底：页码从 1 开始，超大的每页条数夹到 100
func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
