package market

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gamecore-market/internal/config"
	"gamecore-market/internal/models"
	"gamecore-market/internal/util"

	"gorm.io/gorm"
)

// ListingStore 挂单的唯一管理者。
// quantity 和 status 只能经 ReduceQuantityOrClose / Cancel / ExpireStale 修改，
// 终态（sold / cancelled / expired）不可再变。
type ListingStore struct {
	db     *gorm.DB
	cfg    config.MarketConfig
	filter *ContentFilter
}

func NewListingStore(db *gorm.DB, cfg config.MarketConfig) *ListingStore {
	return &ListingStore{
		db:     db,
		cfg:    cfg,
		filter: NewContentFilter(cfg.MaxDescriptionLen),
	}
}

// Create 上架。校验数量/单价/描述，并对卖家做滚动窗口限流
func (s *ListingStore) Create(sellerID uint, productRef string, quantity int, unitPrice int64, description string) (*models.Listing, error) {
	if err := util.ValidateProductRef(productRef); err != nil {
		return nil, E(KindInvalidInput, "商品标识不合法")
	}
	if err := util.ValidateQuantity(quantity); err != nil {
		return nil, E(KindInvalidInput, "请输入有效数量")
	}
	if err := util.ValidateUnitPrice(unitPrice, s.cfg.MaxUnitPrice); err != nil {
		return nil, E(KindInvalidInput, "请输入有效单价")
	}
	description = strings.TrimSpace(description)
	if err := s.filter.Check(description); err != nil {
		return nil, err
	}

	// 滚动窗口限流：窗口内上架次数超限则拒绝
	if s.cfg.ListingRateLimit > 0 {
		window := time.Duration(s.cfg.ListingRateWindowMinutes) * time.Minute
		if window <= 0 {
			window = 10 * time.Minute
		}
		var recent int64
		if err := s.db.Model(&models.Listing{}).
			Where("seller_id = ? AND created_at >= ?", sellerID, time.Now().Add(-window)).
			Count(&recent).Error; err != nil {
			return nil, fmt.Errorf("count recent listings: %w", err)
		}
		if recent >= int64(s.cfg.ListingRateLimit) {
			return nil, E(KindRateLimited, "上架太频繁，请稍后再试")
		}
	}

	listing := models.Listing{
		SellerID:    sellerID,
		ProductRef:  strings.TrimSpace(productRef),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Description: description,
		Status:      models.ListingStatusActive,
	}
	if err := s.db.Create(&listing).Error; err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	return &listing, nil
}

// Get 查询单个挂单
func (s *ListingStore) Get(listingID uint) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindNotFound, "挂单不存在")
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &listing, nil
}

// ListingFilter 搜索条件，零值字段不参与过滤
type ListingFilter struct {
	SellerID   uint
	ProductRef string
	Status     string
	MaxPrice   int64
}

// Search 分页搜索挂单，按创建时间倒序
func (s *ListingStore) Search(filter ListingFilter, page, pageSize int) ([]models.Listing, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	base := s.db.Model(&models.Listing{})
	if filter.SellerID != 0 {
		base = base.Where("seller_id = ?", filter.SellerID)
	}
	if filter.ProductRef != "" {
		base = base.Where("product_ref = ?", filter.ProductRef)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.MaxPrice > 0 {
		base = base.Where("unit_price <= ?", filter.MaxPrice)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	var listings []models.Listing
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&listings).Error; err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}
	return listings, total, nil
}

// ReduceQuantityOrClose 售出 soldQuantity 件：卖完转 sold，否则原地减数量。
// 对 (status, quantity) 做 CAS，两个并发购买不可能同时吃掉同一批库存。
func (s *ListingStore) ReduceQuantityOrClose(listingID uint, soldQuantity int) (*models.Listing, error) {
	if soldQuantity <= 0 {
		return nil, E(KindInvalidInput, "数量必须为正数")
	}

	var listing models.Listing
	err := runTxRetry(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&listing, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return E(KindNotFound, "挂单不存在")
			}
			return fmt.Errorf("load listing: %w", err)
		}
		// 卖罄（含被并发买家吃完）对买家来说是缺货，不是状态问题
		if listing.Status == models.ListingStatusSold {
			return E(KindInsufficientStock, "库存不足")
		}
		if listing.Status != models.ListingStatusActive {
			return E(KindInvalidState, "挂单已下架")
		}
		if soldQuantity > listing.Quantity {
			return E(KindInsufficientStock, "库存不足")
		}

		newQuantity := listing.Quantity - soldQuantity
		newStatus := models.ListingStatusActive
		if newQuantity == 0 {
			newStatus = models.ListingStatusSold
		}

		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ? AND quantity = ?",
				listingID, models.ListingStatusActive, listing.Quantity).
			Updates(map[string]interface{}{
				"quantity": newQuantity,
				"status":   newStatus,
			})
		if res.Error != nil {
			return fmt.Errorf("update listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return E(KindConflict, "挂单并发更新冲突")
		}

		listing.Quantity = newQuantity
		listing.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Cancel 卖家下架自己的挂单，只允许从 active 状态下架
func (s *ListingStore) Cancel(listingID, requesterID uint) (*models.Listing, error) {
	var listing models.Listing
	err := runTxRetry(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&listing, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return E(KindNotFound, "挂单不存在")
			}
			return fmt.Errorf("load listing: %w", err)
		}
		if listing.SellerID != requesterID {
			return E(KindForbidden, "只能操作自己的挂单")
		}
		if listing.Status != models.ListingStatusActive {
			return E(KindInvalidState, "挂单已下架")
		}

		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Update("status", models.ListingStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("cancel listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return E(KindConflict, "挂单并发更新冲突")
		}

		listing.Status = models.ListingStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Update 卖家改价/改描述，校验规则和上架一致
func (s *ListingStore) Update(listingID, requesterID uint, newPrice *int64, newDescription *string) (*models.Listing, error) {
	updates := map[string]interface{}{}
	if newPrice != nil {
		if err := util.ValidateUnitPrice(*newPrice, s.cfg.MaxUnitPrice); err != nil {
			return nil, E(KindInvalidInput, "请输入有效单价")
		}
		updates["unit_price"] = *newPrice
	}
	if newDescription != nil {
		desc := strings.TrimSpace(*newDescription)
		if err := s.filter.Check(desc); err != nil {
			return nil, err
		}
		updates["description"] = desc
	}
	if len(updates) == 0 {
		return nil, E(KindInvalidInput, "没有要修改的内容")
	}

	var listing models.Listing
	err := runTxRetry(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&listing, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return E(KindNotFound, "挂单不存在")
			}
			return fmt.Errorf("load listing: %w", err)
		}
		if listing.SellerID != requesterID {
			return E(KindForbidden, "只能操作自己的挂单")
		}
		if listing.Status != models.ListingStatusActive {
			return E(KindInvalidState, "挂单已下架")
		}

		res := tx.Model(&models.Listing{}).
			Where("id = ? AND status = ?", listingID, models.ListingStatusActive).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return E(KindConflict, "挂单并发更新冲突")
		}

		if newPrice != nil {
			listing.UnitPrice = *newPrice
		}
		if newDescription != nil {
			listing.Description = strings.TrimSpace(*newDescription)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ExpireStale 把超期的 active 挂单批量转为 expired，返回处理条数。
// 由外部定时任务触发
func (s *ListingStore) ExpireStale(maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)
	res := s.db.Model(&models.Listing{}).
		Where("status = ? AND created_at < ?", models.ListingStatusActive, cutoff).
		Update("status", models.ListingStatusExpired)
	if res.Error != nil {
		return 0, fmt.Errorf("expire listings: %w", res.Error)
	}
	return res.RowsAffected, nil
}
