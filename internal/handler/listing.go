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

// ListingHandler 负责市场挂单接口
type ListingHandler struct {
	Store *market.ListingStore
}

func NewListingHandler(store *market.ListingStore) *ListingHandler {
	return &ListingHandler{Store: store}
}

// ---------- 请求/响应结构 ----------

type createListingReq struct {
	ProductRef  string `json:"product_ref" binding:"required,max=64"`
	Quantity    int    `json:"quantity" binding:"required"`
	UnitPrice   int64  `json:"unit_price" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

type updateListingReq struct {
	UnitPrice   *int64  `json:"unit_price"`
	Description *string `json:"description"`
}

type listingResp struct {
	ID          uint      `json:"id"`
	SellerID    uint      `json:"seller_id"`
	ProductRef  string    `json:"product_ref"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toListingResp(l *models.Listing) listingResp {
	return listingResp{
		ID:          l.ID,
		SellerID:    l.SellerID,
		ProductRef:  l.ProductRef,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		Description: l.Description,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// ---------- 上架 ----------

func (h *ListingHandler) CreateListing(c *gin.Context) {
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

	var req createListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	listing, err := h.Store.Create(user.ID, req.ProductRef, req.Quantity, req.UnitPrice, req.Description)
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"listing": toListingResp(listing),
	})
}

// ---------- 查询 ----------

func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "ID 不合法")
		return
	}

	listing, err := h.Store.Get(uint(id))
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"listing": toListingResp(listing),
	})
}

// SearchListings 搜索挂单，支持商品/卖家/状态/价格筛选
func (h *ListingHandler) SearchListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := market.ListingFilter{
		ProductRef: c.Query("product_ref"),
		Status:     c.DefaultQuery("status", models.ListingStatusActive),
	}
	if sellerStr := c.Query("seller_id"); sellerStr != "" {
		if sellerID, err := strconv.Atoi(sellerStr); err == nil && sellerID > 0 {
			filter.SellerID = uint(sellerID)
		}
	}
	if priceStr := c.Query("max_price"); priceStr != "" {
		if maxPrice, err := strconv.ParseInt(priceStr, 10, 64); err == nil && maxPrice > 0 {
			filter.MaxPrice = maxPrice
		}
	}

	listings, total, err := h.Store.Search(filter, page, size)
	if err != nil {
		failWith(c, err)
		return
	}

	items := make([]listingResp, 0, len(listings))
	for i := range listings {
		items = append(items, toListingResp(&listings[i]))
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// ---------- 改价/下架 ----------

func (h *ListingHandler) UpdateListing(c *gin.Context) {
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

	var req updateListingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
		return
	}

	listing, err := h.Store.Update(uint(id), user.ID, req.UnitPrice, req.Description)
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"listing": toListingResp(listing),
	})
}

func (h *ListingHandler) CancelListing(c *gin.Context) {
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

	listing, err := h.Store.Cancel(uint(id), user.ID)
	if err != nil {
		failWith(c, err)
		return
	}

	util.Success(c, util.Response{
		"listing": toListingResp(listing),
	})
}
