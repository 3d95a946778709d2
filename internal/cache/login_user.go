package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hmdp-next/internal/constants"
	"github.com/hmdp-next/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidToken 登录令牌为空
var ErrInvalidToken = errors.New("invalid login token")

// LoginUserStore 登录令牌存储：login:token:<token> -> 用户哈希
type LoginUserStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewLoginUserStore 创建登录令牌存储
func NewLoginUserStore(rdb redis.Cmdable, ttl time.Duration) *LoginUserStore {
	if ttl <= 0 {
		ttl = constants.LoginTokenTTL
	}
	return &LoginUserStore{rdb: rdb, ttl: ttl}
}

func loginTokenKey(token string) string {
	return constants.LoginTokenKeyPrefix + token
}

// Get 根据令牌获取登录用户，令牌不存在时返回 nil
func (s *LoginUserStore) Get(ctx context.Context, token string) (*models.UserDTO, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	fields, err := s.rdb.HGetAll(ctx, loginTokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("read login token: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}
	return &models.UserDTO{
		ID:       id,
		NickName: fields["nickName"],
		Icon:     fields["icon"],
	}, nil
}

// Refresh 刷新令牌有效期
func (s *LoginUserStore) Refresh(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if err := s.rdb.Expire(ctx, loginTokenKey(token), s.ttl).Err(); err != nil {
		return fmt.Errorf("refresh login token: %w", err)
	}
	return nil
}

// Save 保存登录用户，用于运维工具与测试
func (s *LoginUserStore) Save(ctx context.Context, token string, user *models.UserDTO) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if user == nil || user.ID <= 0 {
		return fmt.Errorf("invalid login user")
	}
	key := loginTokenKey(token)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"id":       strconv.FormatInt(user.ID, 10),
			"nickName": user.NickName,
			"icon":     user.Icon,
		})
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save login token: %w", err)
	}
	return nil
}
