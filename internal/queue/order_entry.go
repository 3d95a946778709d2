package queue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidEntry 流条目缺少字段或字段格式非法
var ErrInvalidEntry = errors.New("invalid order entry")

// 流条目字段名，与秒杀脚本 XADD 的字段保持一致
const (
	FieldOrderID   = "id"
	FieldUserID    = "userId"
	FieldVoucherID = "voucherId"
)

// OrderEntry 订单队列条目
type OrderEntry struct {
	ID        string    // 流条目 ID
	OrderID   int64     // 订单 ID
	UserID    int64     // 下单用户
	VoucherID int64     // 秒杀券
	Timestamp time.Time // 入队时间，由流条目 ID 携带
}

func (e OrderEntry) values() []interface{} {
	return []interface{}{
		FieldUserID, strconv.FormatInt(e.UserID, 10),
		FieldVoucherID, strconv.FormatInt(e.VoucherID, 10),
		FieldOrderID, strconv.FormatInt(e.OrderID, 10),
	}
}

// DecodeOrderEntry 解析流消息；失败时返回带 ID 的条目和 ErrInvalidEntry
func DecodeOrderEntry(msg redis.XMessage) (*OrderEntry, error) {
	entry := &OrderEntry{ID: msg.ID}
	ts, err := parseStreamTime(msg.ID)
	if err != nil {
		return entry, err
	}
	entry.Timestamp = ts

	if entry.OrderID, err = int64Field(msg.Values, FieldOrderID); err != nil {
		return entry, err
	}
	if entry.UserID, err = int64Field(msg.Values, FieldUserID); err != nil {
		return entry, err
	}
	if entry.VoucherID, err = int64Field(msg.Values, FieldVoucherID); err != nil {
		return entry, err
	}
	return entry, nil
}

func int64Field(values map[string]interface{}, field string) (int64, error) {
	raw, ok := values[field]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidEntry, field)
	}
	text, ok := raw.(string)
	if !ok {
		text = fmt.Sprint(raw)
	}
	value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: bad %s %q", ErrInvalidEntry, field, text)
	}
	return value, nil
}

// parseStreamTime 流条目 ID 形如 <毫秒时间戳>-<序号>
func parseStreamTime(id string) (time.Time, error) {
	ms, _, ok := strings.Cut(id, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: bad stream id %q", ErrInvalidEntry, id)
	}
	value, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad stream id %q", ErrInvalidEntry, id)
	}
	return time.UnixMilli(value), nil
}
