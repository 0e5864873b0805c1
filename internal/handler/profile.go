package handler

import (
	"net/http"
	"strings"

	"gamecore-market/internal/models"
	"gamecore-market/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UpdateProfileReq 更新基本资料请求
type UpdateProfileReq struct {
	Nickname string `json:"nickname" binding:"max=64"`
}

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=32"`
}

// UpdateProfile 更新当前用户的昵称等资料
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		var req UpdateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
			return
		}

		req.Nickname = strings.TrimSpace(req.Nickname)

		if err := db.Model(user).Update("nickname", req.Nickname).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "更新失败")
			return
		}

		user.Nickname = req.Nickname

		util.Success(c, util.Response{
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"nickname": user.Nickname,
			},
		})
	}
}

// ChangePassword 修改当前用户密码，哈希代价与注册时一致
func ChangePassword(db *gorm.DB, bcryptCost int) gin.HandlerFunc {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return func(c *gin.Context) {
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

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "参数错误")
			return
		}

		// 校验旧密码
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "旧密码错误")
			return
		}

		// 新密码强度检查
		if !isStrongPassword(req.NewPassword) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "密码需8-32位，且包含大写、小写字母和数字")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "密码加密失败")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "更新失败")
			return
		}

		util.Success(c, util.Response{
			"message": "密码修改成功",
		})
	}
}
