package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSeckillVoucherInitialisesStockCounter(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 100)

	stock, err := f.mr.Get(SeckillStockKey(voucher.ID))
	require.NoError(t, err)
	assert.Equal(t, "100", stock)

	loaded, err := f.vouchers.GetVoucher(context.Background(), voucher.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.SeckillVoucher)
	assert.Equal(t, 100, loaded.SeckillVoucher.Stock)
	assert.Equal(t, "80.00", loaded.PayValue.String())
}

func TestAddSeckillVoucherValidation(t *testing.T) {
	f := newServiceFixture(t, "")
	now := time.Now()
	base := AddSeckillVoucherInput{
		ShopID:      1,
		Title:       "t",
		PayValue:    decimal.NewFromInt(1),
		ActualValue: decimal.NewFromInt(2),
		Stock:       1,
		BeginTime:   now,
		EndTime:     now.Add(time.Hour),
	}
	cases := map[string]func(*AddSeckillVoucherInput){
		"negative stock": func(in *AddSeckillVoucherInput) { in.Stock = -1 },
		"window":         func(in *AddSeckillVoucherInput) { in.EndTime = in.BeginTime },
		"pay value":      func(in *AddSeckillVoucherInput) { in.PayValue = decimal.Zero },
		"title":          func(in *AddSeckillVoucherInput) { in.Title = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := base
			mutate(&input)
			_, err := f.vouchers.AddSeckillVoucher(context.Background(), input)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestGetSeckillVoucherUsesCache(t *testing.T) {
	f := newServiceFixture(t, "")
	voucher := f.addVoucher(t, 1)
	ctx := context.Background()

	_, err := f.vouchers.GetSeckillVoucher(ctx, voucher.ID)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists(fmt.Sprintf("cache:seckill:voucher:%d", voucher.ID)))

	_, err = f.vouchers.GetSeckillVoucher(ctx, voucher.ID+1000)
	assert.ErrorIs(t, err, ErrVoucherNotFound)
	raw, err := f.mr.Get(fmt.Sprintf("cache:seckill:voucher:%d", voucher.ID+1000))
	require.NoError(t, err)
	assert.Equal(t, "", raw)
}
