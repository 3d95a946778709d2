package service

import "errors"

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStockExhausted     = errors.New("seckill stock exhausted")
	ErrDuplicateOrder     = errors.New("duplicate seckill order")
	ErrOrderAlreadyExists = errors.New("voucher order already exists")
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrSeckillNotStarted  = errors.New("seckill not started")
	ErrSeckillEnded       = errors.New("seckill ended")
	ErrShopNotFound       = errors.New("shop not found")
	ErrOrderNotFound      = errors.New("voucher order not found")
	ErrContention         = errors.New("resource busy, retry later")
)
