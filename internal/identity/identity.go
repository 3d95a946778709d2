// Package identity 在 context 中传递当前登录用户。
package identity

import (
	"context"

	"github.com/hmdp-next/internal/models"
)

type ctxKey struct{}

// WithUser 将登录用户写入 context
func WithUser(ctx context.Context, user *models.UserDTO) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext 读取登录用户
func FromContext(ctx context.Context) (*models.UserDTO, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ctxKey{}).(*models.UserDTO)
	if !ok || user == nil || user.ID <= 0 {
		return nil, false
	}
	return user, true
}

// UserID 读取登录用户 ID，未登录返回 0
func UserID(ctx context.Context) int64 {
	user, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return user.ID
}
