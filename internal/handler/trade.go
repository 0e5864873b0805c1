package handler

import (
	"net/http"
	"strconv"
	"time"

	"gamecore-market/internal/market"
	"gamecore-market/internal/models"
	"gamecore-market/internal/util"

	"github.com/gin-gonic/gin"
)

// TradeHandler 负责购买和交易记录接口
type TradeHandler struct {
	Orchestrator *market.Orchestrator
	Journal      *market.Journal
}

func NewTradeHandler(orchestrator *market.Orchestrator, journal *market.Journal) *TradeHandler {
	return &TradeHandler{
		Orchestrator: orchestrator,
		Journal:      journal,
	}
}

type buyReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

type tradeResp struct {
	ID              uint       `json:"id"`
	TradeNo         string     `json:"trade_no"`
	ListingID       uint       `json:"listing_id"`
	SellerID        uint       `json:"seller_id"`
	BuyerID         uint       `json:"buyer_id"`
	Quantity        int        `json:"quantity"`
	UnitPrice       int64      `json:"unit_price"`
	TotalAmount     int64      `json:"total_amount"`
	FeeAmount       int64      `json:"fee_amount"`
	SellerNetAmount int64      `json:"seller_net_amount"`
	Status          string     `json:"status"`
	FailReason      string     `json:"fail_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func toTradeResp(t *models.Trade) tradeResp {
	return tradeResp{
		ID:              t.ID,
		TradeNo:         t.TradeNo,
		ListingID:       t.ListingID,
		SellerID:        t.SellerID,
		BuyerID:         t.BuyerID,
		Quantity:        t.Quantity,
		UnitPrice:       t.UnitPrice,
		TotalAmount:     t.TotalAmount,
		FeeAmount:       t.FeeAmount,
		SellerNetAmount: t.SellerNetAmount,
		Status:          t.Status,
		FailReason:      t.FailReason,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

// ---------- 购买 ----------

func (h *TradeHandler) Buy(c *gin.Context) {
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

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "ID 不合法")
		return
	}

	var req buyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	trade, err := h.Orchestrator.Buy(uint(id), user.ID, req.Quantity)
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"trade": toTradeResp(trade),
	})
}

// ---------- 交易记录 ----------

func (h *TradeHandler) GetTrade(c *gin.Context) {
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

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "ID 不合法")
		return
	}

	trade, err := h.Journal.Get(uint(id))
	if err != nil {
		failWith(c, err)
		return
	}

	// 只允许买卖双方查看
	if trade.BuyerID != user.ID && trade.SellerID != user.ID {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "无权查看该交易")
		return
	}

	util.Success(c, util.Response{
		"trade": toTradeResp(trade),
	})
}

// ListTrades 分页查询当前用户的买卖记录
func (h *TradeHandler) ListTrades(c *gin.Context) {
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

	trades, total, err := h.Journal.ListByUser(user.ID, page, size)
	if err != nil {
		failWith(c, err)
		return
	}

	items := make([]tradeResp, 0, len(trades))
	for i := range trades {
		items = append(items, toTradeResp(&trades[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
