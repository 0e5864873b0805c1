package market

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gamecore-market/internal/models"

	"gorm.io/gorm"
)

// Orchestrator 撮合一次购买：校验挂单 -> 算手续费 -> 转账 -> 扣库存 -> 记账。
// 自身不持有状态，钱包、挂单、交易记录都通过各自的组件读写。
// 转账成功后扣库存失败时，会发起冲正（买家退款 + 卖家扣回）；
// 冲正本身失败属于严重事故，落告警表并返回 ReversalFailed，绝不静默吞掉。
type Orchestrator struct {
	db       *gorm.DB
	ledger   *Ledger
	listings *ListingStore
	journal  *Journal
	fees     FeePolicy
}

func NewOrchestrator(db *gorm.DB, ledger *Ledger, listings *ListingStore, journal *Journal, fees FeePolicy) *Orchestrator {
	return &Orchestrator{
		db:       db,
		ledger:   ledger,
		listings: listings,
		journal:  journal,
		fees:     fees,
	}
}

// Buy 购买挂单中的 quantity 件商品
func (o *Orchestrator) Buy(listingID, buyerID uint, quantity int) (*models.Trade, error) {
	if quantity <= 0 {
		return nil, E(KindInvalidInput, "数量必须为正数")
	}

	// 1. 校验挂单
	listing, err := o.listings.Get(listingID)
	if err != nil {
		return nil, err
	}
	// 卖罄的挂单按缺货处理，下架/过期的才是状态错误
	if listing.Status == models.ListingStatusSold {
		return nil, E(KindInsufficientStock, "库存不足")
	}
	if listing.Status != models.ListingStatusActive {
		return nil, E(KindInvalidState, "挂单已下架")
	}
	if listing.SellerID == buyerID {
		return nil, E(KindSelfTrade, "不能购买自己的挂单")
	}
	if quantity > listing.Quantity {
		return nil, E(KindInsufficientStock, "库存不足")
	}

	// 2. 计算金额：VIP 在夹完上下限之后的手续费上打五折
	var buyer models.User
	if err := o.db.First(&buyer, buyerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, E(KindNotFound, "用户不存在")
		}
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	totalAmount := listing.UnitPrice * int64(quantity)
	feeAmount := o.fees.Compute(totalAmount, buyer.VIP)
	sellerNetAmount := totalAmount - feeAmount

	// 3. 转账：买家扣 totalAmount，卖家收 sellerNetAmount。
	// 失败（余额不足等）时挂单和交易记录都还没动，直接返回
	desc := fmt.Sprintf("购买挂单 #%d x%d", listing.ID, quantity)
	outEntry, inEntry, err := o.ledger.Transfer(buyerID, listing.SellerID, totalAmount, feeAmount, desc, &listing.ID)
	if err != nil {
		return nil, err
	}

	// 4. 记账（pending），再扣库存
	trade := &models.Trade{
		ListingID:       listing.ID,
		SellerID:        listing.SellerID,
		BuyerID:         buyerID,
		Quantity:        quantity,
		UnitPrice:       listing.UnitPrice,
		TotalAmount:     totalAmount,
		FeeAmount:       feeAmount,
		SellerNetAmount: sellerNetAmount,
		Status:          models.TradeStatusPending,
		BuyerEntryID:    &outEntry.ID,
		SellerEntryID:   &inEntry.ID,
	}
	if trade, err = o.journal.Record(trade); err != nil {
		// 转账已落库但交易没记上，必须冲正
		if rerr := o.reverse(listing, buyerID, totalAmount, sellerNetAmount, "record"); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	if _, err = o.listings.ReduceQuantityOrClose(listing.ID, quantity); err != nil {
		// 并发买家把库存吃完了（或挂单刚被下架）：退钱、记失败
		if rerr := o.reverse(listing, buyerID, totalAmount, sellerNetAmount, trade.TradeNo); rerr != nil {
			_ = o.journal.MarkFailed(trade.ID, "冲正失败："+err.Error())
			return nil, rerr
		}
		if merr := o.journal.MarkFailed(trade.ID, err.Error()); merr != nil {
			log.Printf("mark trade %d failed: %v", trade.ID, merr)
		}
		return nil, err
	}

	// 5. 完成
	if err := o.journal.MarkCompleted(trade.ID); err != nil {
		log.Printf("mark trade %d completed: %v", trade.ID, err)
	}
	now := time.Now()
	trade.Status = models.TradeStatusCompleted
	trade.CompletedAt = &now
	return trade, nil
}

// reverse 冲正一次已完成的转账：买家退 totalAmount，卖家扣回 sellerNetAmount。
// 任一步失败都写告警表等待人工对账，并返回 ReversalFailed
func (o *Orchestrator) reverse(listing *models.Listing, buyerID uint, totalAmount, sellerNetAmount int64, tradeNo string) error {
	desc := fmt.Sprintf("交易冲正：挂单 #%d", listing.ID)

	var failDetail string
	if _, err := o.ledger.Credit(buyerID, totalAmount, desc, &listing.ID); err != nil {
		failDetail = fmt.Sprintf("退款买家 %d 金额 %d 失败: %v", buyerID, totalAmount, err)
	} else if sellerNetAmount > 0 {
		if _, err := o.ledger.Debit(listing.SellerID, sellerNetAmount, desc, &listing.ID); err != nil {
			failDetail = fmt.Sprintf("扣回卖家 %d 金额 %d 失败: %v", listing.SellerID, sellerNetAmount, err)
		}
	}
	if failDetail == "" {
		return nil
	}

	// 冲正失败：资金处于半完成状态，必须报警并人工介入
	alarm := models.ReconcileAlarm{
		TradeNo:   tradeNo,
		ListingID: listing.ID,
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		Detail:    failDetail,
	}
	if err := o.db.Create(&alarm).Error; err != nil {
		log.Printf("write reconcile alarm failed: %v (detail: %s)", err, failDetail)
	}
	log.Printf("REVERSAL FAILED trade=%s listing=%d: %s", tradeNo, listing.ID, failDetail)
	return E(KindReversalFailed, "交易冲正失败，请联系客服处理")
}
