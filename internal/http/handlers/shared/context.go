package shared

import (
	"strconv"
	"strings"

	"github.com/hmdp-next/internal/http/response"
	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/models"

	"github.com/gin-gonic/gin"
)

// CurrentUser 读取登录用户，未登录时直接写入 401 响应。
func CurrentUser(c *gin.Context) (*models.UserDTO, bool) {
	user, ok := identity.FromContext(c.Request.Context())
	if !ok {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return nil, false
	}
	return user, true
}

// ParamInt64 解析正整数路径参数，非法时写入 400 响应。
func ParamInt64(c *gin.Context, name, invalidKey string) (int64, bool) {
	value, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || value <= 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return value, true
}

// QueryInt 解析整数查询参数，缺省或非法时返回默认值。
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
