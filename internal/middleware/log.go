package middleware

import (
	"bytes"
	"io"
	"strings"

	"gamecore-market/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 这些接口的请求体含密码等凭证，不能落库
var credentialPaths = []string{
	"/password",
	"/auth/login",
	"/auth/register",
}

func carriesCredentials(path string) bool {
	for _, p := range credentialPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// AuditMiddleware 记录登录用户的写操作，便于排查交易纠纷
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取用户 ID
		var userID uint
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		// 读取请求体；凭证类接口只记路由不记内容
		var bodyBytes []byte
		if c.Request.Body != nil && !carriesCredentials(c.Request.URL.Path) {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		// 执行请求
		c.Next()

		// 只记录登录用户的写操作
		if userID == 0 || c.Request.Method == "GET" {
			return
		}

		// 构造 action
		path := c.Request.URL.Path
		action := c.Request.Method + " " + path

		if len(bodyBytes) > 0 && len(bodyBytes) < 2000 {
			action += " " + string(bodyBytes)
		}

		entry := models.AuditLog{
			UserID:    &userID,
			Path:      path,
			Method:    c.Request.Method,
			Action:    action,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		_ = db.Create(&entry).Error
	}
}
