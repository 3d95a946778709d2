package models

// UserDTO 登录用户快照，保存在 Redis 令牌哈希中
type UserDTO struct {
	ID       int64  `json:"id"`
	NickName string `json:"nickName"`
	Icon     string `json:"icon"`
}
