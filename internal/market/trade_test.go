package market

import (
	"sync"
	"testing"

	"gamecore-market/internal/models"

	"gorm.io/gorm"
)

// ==================== 购买撮合 ====================

type tradeEnv struct {
	db           *gorm.DB
	ledger       *Ledger
	store        *ListingStore
	journal      *Journal
	orchestrator *Orchestrator
}

func newTradeEnv(t *testing.T) *tradeEnv {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedger(db)
	store := NewListingStore(db, testMarketConfig())
	journal := NewJournal(db)
	orchestrator := NewOrchestrator(db, ledger, store, journal, DefaultFeePolicy)
	return &tradeEnv{db: db, ledger: ledger, store: store, journal: journal, orchestrator: orchestrator}
}

// TestBuy_FullListing 场景：5 件单价 100，整单买下
// total=500 fee=25 net=475，挂单转 sold，买家 -500，卖家 +475
func TestBuy_FullListing(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 600, false)

	listing, err := env.store.Create(seller.ID, "sword", 5, 100, "")
	if err != nil {
		t.Fatalf("上架失败: %v", err)
	}

	trade, err := env.orchestrator.Buy(listing.ID, buyer.ID, 5)
	if err != nil {
		t.Fatalf("购买失败: %v", err)
	}

	if trade.TotalAmount != 500 || trade.FeeAmount != 25 || trade.SellerNetAmount != 475 {
		t.Errorf("金额错误: total=%d fee=%d net=%d", trade.TotalAmount, trade.FeeAmount, trade.SellerNetAmount)
	}
	if trade.Status != models.TradeStatusCompleted || trade.CompletedAt == nil {
		t.Errorf("交易状态错误: %s", trade.Status)
	}
	if trade.FeeAmount+trade.SellerNetAmount != trade.TotalAmount {
		t.Error("手续费 + 卖家净得 != 总额")
	}

	got, _ := env.store.Get(listing.ID)
	if got.Status != models.ListingStatusSold || got.Quantity != 0 {
		t.Errorf("挂单状态错误: status=%s quantity=%d", got.Status, got.Quantity)
	}

	if balance := mustBalance(t, env.ledger, buyer.ID); balance != 100 {
		t.Errorf("买家余额 = %d, want 100", balance)
	}
	if balance := mustBalance(t, env.ledger, seller.ID); balance != 475 {
		t.Errorf("卖家余额 = %d, want 475", balance)
	}
}

// TestBuy_PartialQuantity 部分购买，挂单保持 active 并减数量
func TestBuy_PartialQuantity(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 1000, false)

	listing, _ := env.store.Create(seller.ID, "potion", 10, 30, "")

	trade, err := env.orchestrator.Buy(listing.ID, buyer.ID, 4)
	if err != nil {
		t.Fatalf("购买失败: %v", err)
	}
	// 120 * 5% = 6，不足下限，收 10
	if trade.TotalAmount != 120 || trade.FeeAmount != 10 || trade.SellerNetAmount != 110 {
		t.Errorf("金额错误: total=%d fee=%d net=%d", trade.TotalAmount, trade.FeeAmount, trade.SellerNetAmount)
	}

	got, _ := env.store.Get(listing.ID)
	if got.Status != models.ListingStatusActive || got.Quantity != 6 {
		t.Errorf("挂单应剩 6 件: status=%s quantity=%d", got.Status, got.Quantity)
	}
}

// TestBuy_VIPDiscount VIP 买家手续费减半
func TestBuy_VIPDiscount(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	vip := newTestUser(t, env.db, env.ledger, "vip", 600, true)

	listing, _ := env.store.Create(seller.ID, "sword", 5, 100, "")

	trade, err := env.orchestrator.Buy(listing.ID, vip.ID, 5)
	if err != nil {
		t.Fatalf("购买失败: %v", err)
	}
	// 25 -> VIP 12
	if trade.FeeAmount != 12 || trade.SellerNetAmount != 488 {
		t.Errorf("VIP 手续费错误: fee=%d net=%d", trade.FeeAmount, trade.SellerNetAmount)
	}
}

// TestBuy_InsufficientFunds 场景：余额 40 买总价 50 的商品
// 购买失败，挂单数量和卖家余额都不变
func TestBuy_InsufficientFunds(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 100, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 40, false)

	listing, _ := env.store.Create(seller.ID, "item", 1, 50, "")

	_, err := env.orchestrator.Buy(listing.ID, buyer.ID, 1)
	if !IsKind(err, KindInsufficientFunds) {
		t.Fatalf("error = %v, want InsufficientFunds", err)
	}

	got, _ := env.store.Get(listing.ID)
	if got.Quantity != 1 || got.Status != models.ListingStatusActive {
		t.Errorf("挂单不应变化: quantity=%d status=%s", got.Quantity, got.Status)
	}
	if balance := mustBalance(t, env.ledger, seller.ID); balance != 100 {
		t.Errorf("卖家余额不应变化: %d", balance)
	}
	if balance := mustBalance(t, env.ledger, buyer.ID); balance != 40 {
		t.Errorf("买家余额不应变化: %d", balance)
	}

	// 失败时不留交易记录
	var count int64
	env.db.Model(&models.Trade{}).Count(&count)
	if count != 0 {
		t.Errorf("失败购买不应留交易记录: %d 条", count)
	}
}

// TestBuy_Validation 挂单校验：不存在/已下架/买自己/超库存
func TestBuy_Validation(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 1000, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 1000, false)

	if _, err := env.orchestrator.Buy(999, buyer.ID, 1); !IsKind(err, KindNotFound) {
		t.Errorf("不存在挂单 error = %v, want NotFound", err)
	}

	listing, _ := env.store.Create(seller.ID, "item", 3, 100, "")

	if _, err := env.orchestrator.Buy(listing.ID, seller.ID, 1); !IsKind(err, KindSelfTrade) {
		t.Errorf("买自己 error = %v, want SelfTrade", err)
	}
	if _, err := env.orchestrator.Buy(listing.ID, buyer.ID, 4); !IsKind(err, KindInsufficientStock) {
		t.Errorf("超库存 error = %v, want InsufficientStock", err)
	}
	if _, err := env.orchestrator.Buy(listing.ID, buyer.ID, 0); !IsKind(err, KindInvalidInput) {
		t.Errorf("数量为零 error = %v, want InvalidInput", err)
	}

	env.store.Cancel(listing.ID, seller.ID)
	if _, err := env.orchestrator.Buy(listing.ID, buyer.ID, 1); !IsKind(err, KindInvalidState) {
		t.Errorf("已下架 error = %v, want InvalidState", err)
	}
}

// TestBuy_SoldOut 被别人买完之后再买，报缺货而不是状态错误
func TestBuy_SoldOut(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	first := newTestUser(t, env.db, env.ledger, "first", 1000, false)
	late := newTestUser(t, env.db, env.ledger, "late", 1000, false)

	listing, _ := env.store.Create(seller.ID, "rare_item", 1, 100, "")

	if _, err := env.orchestrator.Buy(listing.ID, first.ID, 1); err != nil {
		t.Fatalf("首单购买失败: %v", err)
	}
	if _, err := env.orchestrator.Buy(listing.ID, late.ID, 1); !IsKind(err, KindInsufficientStock) {
		t.Errorf("卖罄后购买 error = %v, want InsufficientStock", err)
	}
}

// TestBuy_MoneyConservation 完成交易的买卖流水之和为手续费的相反数
func TestBuy_MoneyConservation(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 10000, false)

	listing, _ := env.store.Create(seller.ID, "item", 10, 250, "")

	trade, err := env.orchestrator.Buy(listing.ID, buyer.ID, 4)
	if err != nil {
		t.Fatalf("购买失败: %v", err)
	}

	var out, in models.LedgerEntry
	if err := env.db.First(&out, *trade.BuyerEntryID).Error; err != nil {
		t.Fatalf("查买家流水失败: %v", err)
	}
	if err := env.db.First(&in, *trade.SellerEntryID).Error; err != nil {
		t.Fatalf("查卖家流水失败: %v", err)
	}

	// 买家流出 = 卖家流入 + 手续费，资金守恒
	if out.Amount+in.Amount != -trade.FeeAmount {
		t.Errorf("资金不守恒: out=%d in=%d fee=%d", out.Amount, in.Amount, trade.FeeAmount)
	}
	if trade.FeeAmount+trade.SellerNetAmount != trade.TotalAmount {
		t.Error("手续费 + 卖家净得 != 总额")
	}
}

// TestBuy_Concurrent 并发抢购不超卖
// 库存 3 件，10 个买家每人抢 1 件，最多 3 人成功
func TestBuy_Concurrent(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)

	const stock = 3
	const buyers = 10

	listing, err := env.store.Create(seller.ID, "rare_item", stock, 100, "")
	if err != nil {
		t.Fatalf("上架失败: %v", err)
	}

	ids := make([]uint, buyers)
	for i := 0; i < buyers; i++ {
		user := newTestUser(t, env.db, env.ledger, "buyer"+string(rune('a'+i)), 1000, false)
		ids[i] = user.ID
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = env.orchestrator.Buy(listing.ID, ids[i], 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		// 抢输的只能是缺货或并发冲突
		switch KindOf(err) {
		case KindInsufficientStock, KindConflict:
		default:
			t.Errorf("意外错误: %v", err)
		}
	}
	if succeeded > stock {
		t.Fatalf("超卖: %d 人成功, 库存只有 %d", succeeded, stock)
	}

	// 已完成交易的总件数不超过原始库存
	var trades []models.Trade
	env.db.Where("listing_id = ? AND status = ?", listing.ID, models.TradeStatusCompleted).Find(&trades)
	sold := 0
	for _, tr := range trades {
		sold += tr.Quantity
	}
	if sold > stock {
		t.Fatalf("完成交易总件数 %d 超过库存 %d", sold, stock)
	}

	// 卖家余额 == 所有完成交易的净得之和
	var wantSellerBalance int64
	for _, tr := range trades {
		wantSellerBalance += tr.SellerNetAmount
	}
	if balance := mustBalance(t, env.ledger, seller.ID); balance != wantSellerBalance {
		t.Errorf("卖家余额 = %d, want %d", balance, wantSellerBalance)
	}

	// 每个买家要么原封不动，要么刚好扣掉交易总额（手续费从卖家净得里出）
	for i, id := range ids {
		balance := mustBalance(t, env.ledger, id)
		if results[i] == nil && balance != 900 {
			t.Errorf("成功买家 %d 余额 = %d, want 900", id, balance)
		}
		if results[i] != nil && balance != 1000 {
			t.Errorf("失败买家 %d 余额 = %d, want 1000", id, balance)
		}
	}
}

// TestReverse_RefundsBoth 冲正：买家全额退回，卖家扣回净得
func TestReverse_RefundsBoth(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 500, false)

	listing, _ := env.store.Create(seller.ID, "item", 1, 100, "")

	// 手工模拟已完成的转账：买家 -100，卖家 +90
	if _, _, err := env.ledger.Transfer(buyer.ID, seller.ID, 100, 10, "购买", &listing.ID); err != nil {
		t.Fatalf("转账失败: %v", err)
	}

	if err := env.orchestrator.reverse(listing, buyer.ID, 100, 90, "T1"); err != nil {
		t.Fatalf("冲正失败: %v", err)
	}

	if balance := mustBalance(t, env.ledger, buyer.ID); balance != 500 {
		t.Errorf("买家余额 = %d, want 500", balance)
	}
	if balance := mustBalance(t, env.ledger, seller.ID); balance != 0 {
		t.Errorf("卖家余额 = %d, want 0", balance)
	}
}

// TestReverse_Failed 卖家钱已花掉导致冲正失败：必须报警而不是吞掉
func TestReverse_Failed(t *testing.T) {
	env := newTradeEnv(t)
	seller := newTestUser(t, env.db, env.ledger, "seller", 0, false)
	buyer := newTestUser(t, env.db, env.ledger, "buyer", 500, false)

	listing, _ := env.store.Create(seller.ID, "item", 1, 100, "")

	if _, _, err := env.ledger.Transfer(buyer.ID, seller.ID, 100, 10, "购买", &listing.ID); err != nil {
		t.Fatalf("转账失败: %v", err)
	}
	// 卖家把净得花掉，冲正时扣不回来
	if _, err := env.ledger.Debit(seller.ID, 90, "花掉", nil); err != nil {
		t.Fatalf("出账失败: %v", err)
	}

	err := env.orchestrator.reverse(listing, buyer.ID, 100, 90, "T2")
	if !IsKind(err, KindReversalFailed) {
		t.Fatalf("error = %v, want ReversalFailed", err)
	}

	// 告警落库
	var alarms []models.ReconcileAlarm
	env.db.Find(&alarms)
	if len(alarms) != 1 {
		t.Fatalf("告警条数 = %d, want 1", len(alarms))
	}
	if alarms[0].TradeNo != "T2" || alarms[0].SellerID != seller.ID {
		t.Errorf("告警内容错误: %+v", alarms[0])
	}
}
