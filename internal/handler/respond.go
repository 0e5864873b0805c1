package handler

import (
	"errors"
	"net/http"

	"gamecore-market/internal/market"
	"gamecore-market/internal/util"

	"github.com/gin-gonic/gin"
)

// failWith 把 market 层的业务错误映射成 HTTP 状态码 + 业务码。
// 非业务错误一律 500，不把内部细节透给调用方
func failWith(c *gin.Context, err error) {
	var me *market.Error
	if !errors.As(err, &me) {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "服务器开小差了，请稍后再试")
		return
	}

	switch me.Kind {
	case market.KindNotFound:
		util.Error(c, http.StatusNotFound, util.CodeNotFound, me.Msg)
	case market.KindInvalidInput:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, me.Msg)
	case market.KindInvalidState:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidState, me.Msg)
	case market.KindInsufficientFunds, market.KindInsufficientStock:
		util.Error(c, http.StatusBadRequest, util.CodeInsufficient, me.Msg)
	case market.KindSelfTrade:
		util.Error(c, http.StatusBadRequest, util.CodeSelfTrade, me.Msg)
	case market.KindForbidden:
		util.Error(c, http.StatusForbidden, util.CodeForbidden, me.Msg)
	case market.KindRateLimited:
		util.Error(c, http.StatusTooManyRequests, util.CodeRateLimited, me.Msg)
	case market.KindConflict:
		util.Error(c, http.StatusConflict, util.CodeConflict, me.Msg)
	case market.KindReversalFailed:
		util.Error(c, http.StatusInternalServerError, util.CodeReversal, me.Msg)
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "服务器开小差了，请稍后再试")
	}
}
