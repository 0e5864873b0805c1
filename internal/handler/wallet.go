package handler

import (
	"net/http"
	"strconv"
	"time"

	"gamecore-market/internal/config"
	"gamecore-market/internal/market"
	"gamecore-market/internal/models"
	"gamecore-market/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WalletHandler 负责钱包相关接口
type WalletHandler struct {
	DB        *gorm.DB
	Ledger    *market.Ledger
	SignInCfg config.SignInConfig
}

func NewWalletHandler(db *gorm.DB, ledger *market.Ledger, signInCfg config.SignInConfig) *WalletHandler {
	return &WalletHandler{
		DB:        db,
		Ledger:    ledger,
		SignInCfg: signInCfg,
	}
}

// GetBalance 查询当前用户余额
func (h *WalletHandler) GetBalance(c *gin.Context) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}

	balance, err := h.Ledger.GetBalance(user.ID)
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"user_id": user.ID,
		"balance": balance,
	})
}

type entryResp struct {
	ID               uint      `json:"id"`
	Ref              string    `json:"ref"`
	Amount           int64     `json:"amount"`
	BalanceBefore    int64     `json:"balance_before"`
	BalanceAfter     int64     `json:"balance_after"`
	Kind             string    `json:"kind"`
	Description      string    `json:"description"`
	RelatedListingID *uint     `json:"related_listing_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListEntries 分页查询当前用户的钱包流水
func (h *WalletHandler) ListEntries(c *gin.Context) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, total, err := h.Ledger.History(user.ID, page, size)
	if err != nil {
		failWith(c, err)
		return
	}

	items := make([]entryResp, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		items = append(items, entryResp{
			ID:               e.ID,
			Ref:              e.Ref,
			Amount:           e.Amount,
			BalanceBefore:    e.BalanceBefore,
			BalanceAfter:     e.BalanceAfter,
			Kind:             e.Kind,
			Description:      e.Description,
			RelatedListingID: e.RelatedListingID,
			CreatedAt:        e.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// ---------- 每日签到 ----------

// SignIn 每日签到领取点数，连续签到奖励递增
func (h *WalletHandler) SignIn(c *gin.Context) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "未登录")
		return
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// 昨天签过 -> 连续；否则重新从 1 开始
	streak := 1
	if user.LastSignInAt != nil {
		last := *user.LastSignInAt
		if !last.Before(todayStart) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidState, "今天已经签到过了")
			return
		}
		if !last.Before(todayStart.AddDate(0, 0, -1)) {
			streak = user.SignInStreak + 1
		}
	}

	// 条件更新挡住并发重复签到
	res := h.DB.Model(&models.User{}).
		Where("id = ? AND (last_sign_in_at IS NULL OR last_sign_in_at < ?)", user.ID, todayStart).
		Updates(map[string]interface{}{
			"sign_in_streak":  streak,
			"last_sign_in_at": now,
		})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "签到失败，请重试")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidState, "今天已经签到过了")
		return
	}

	// 奖励 = 基础 + 连续天数递增，封顶
	bonus := h.SignInCfg.BaseBonus + h.SignInCfg.StreakStep*int64(streak-1)
	if h.SignInCfg.MaxBonus > 0 && bonus > h.SignInCfg.MaxBonus {
		bonus = h.SignInCfg.MaxBonus
	}

	entry, err := h.Ledger.Credit(user.ID, bonus, "每日签到奖励", nil)
	if err != nil {
		failWith(c, err)
		return
	}

	user.SignInStreak = streak
	user.LastSignInAt = &now

	util.Success(c, util.Response{
		"streak":  streak,
		"bonus":   bonus,
		"balance": entry.BalanceAfter,
	})
}
