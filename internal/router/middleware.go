package router

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hmdp-next/internal/config"
	"github.com/hmdp-next/internal/constants"
	handlershared "github.com/hmdp-next/internal/http/handlers/shared"
	"github.com/hmdp-next/internal/http/response"
	"github.com/hmdp-next/internal/identity"
	"github.com/hmdp-next/internal/logger"
	"github.com/hmdp-next/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Cache-Control", "X-Requested-With", requestIDHeader}
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	wildcard         bool
	origins          map[string]struct{}
	allowCredentials bool
	methods          string
	headers          string
	maxAge           string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:          make(map[string]struct{}, len(cfg.AllowedOrigins)),
		allowCredentials: cfg.AllowCredentials,
		methods:          strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:          strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	for _, origin := range orDefault(cfg.AllowedOrigins, []string{"*"}) {
		origin = strings.ToLower(strings.TrimSpace(origin))
		if origin == "*" {
			p.wildcard = true
			continue
		}
		p.origins[origin] = struct{}{}
	}
	return p
}

// allowOrigin 返回应写入 Access-Control-Allow-Origin 的值，空串表示不允许。
// 允许携带凭证时通配符必须回显具体 origin
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		if p.allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if _, ok := p.origins[strings.ToLower(origin)]; ok && origin != "" {
		return origin
	}
	return ""
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			header.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				header.Add("Vary", "Origin")
			}
		}
		if policy.allowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		header.Set("Access-Control-Allow-Methods", policy.methods)
		header.Set("Access-Control-Allow-Headers", policy.headers)
		if policy.maxAge != "" {
			header.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件，5xx 记 error，4xx 记 warn
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	sugar := base.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		kv := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_id", identity.UserID(c.Request.Context()),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		switch {
		case status >= http.StatusInternalServerError:
			sugar.Errorw("request", kv...)
		case status >= http.StatusBadRequest:
			sugar.Warnw("request", kv...)
		default:
			sugar.Infow("request", kv...)
		}
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// LoginUserLookup 按登录令牌查找用户
type LoginUserLookup interface {
	Get(ctx context.Context, token string) (*models.UserDTO, error)
	Refresh(ctx context.Context, token string) error
}

// LoginTokenMiddleware 解析登录令牌并刷新有效期，未登录请求直接放行
func LoginTokenMiddleware(store LoginUserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(constants.LoginTokenHeader))
		if store == nil || token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		user, err := store.Get(ctx, token)
		if err != nil {
			logger.Warnw("login_token_lookup_failed", "request_id", getRequestID(c), "error", err)
			c.Next()
			return
		}
		if user == nil {
			c.Next()
			return
		}
		if err := store.Refresh(ctx, token); err != nil {
			logger.Warnw("login_token_refresh_failed", "request_id", getRequestID(c), "user_id", user.ID, "error", err)
		}
		c.Request = c.Request.WithContext(identity.WithUser(ctx, user))
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// RequireLoginMiddleware 要求请求已登录
func RequireLoginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := identity.FromContext(c.Request.Context()); !ok {
			response.Unauthorized(c, handlershared.Message("error.unauthorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}
