package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hmdp-next/internal/provider"
	"github.com/hmdp-next/internal/service"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04:05"

type voucherAddOptions struct {
	shopID      int64
	title       string
	subTitle    string
	rules       string
	payValue    string
	actualValue string
	stock       int
	begin       string
	end         string
}

// NewVoucherCommand 秒杀券管理
func NewVoucherCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "秒杀券管理",
	}
	cmd.AddCommand(newVoucherAddCommand(rootOpts))
	return cmd
}

func newVoucherAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &voucherAddOptions{}
	cmd := &cobra.Command{
		Use:           "add",
		Short:         "新增秒杀券并预热 Redis 库存",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := opts.toInput()
			if err != nil {
				return err
			}
			return withContainer(cmd, rootOpts, func(ctx context.Context, c *provider.Container) error {
				voucher, err := c.VoucherService.AddSeckillVoucher(ctx, input)
				if err != nil {
					return fmt.Errorf("add seckill voucher: %w", err)
				}
				line := fmt.Sprintf("voucher %d created, stock %d", voucher.ID, input.Stock)
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, voucher, line)
			})
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.shopID, "shop", 0, "shop id")
	flags.StringVar(&opts.title, "title", "", "voucher title")
	flags.StringVar(&opts.subTitle, "sub-title", "", "voucher sub title")
	flags.StringVar(&opts.rules, "rules", "", "usage rules")
	flags.StringVar(&opts.payValue, "pay", "", "pay value, e.g. 80.00")
	flags.StringVar(&opts.actualValue, "actual", "", "actual value, e.g. 100.00")
	flags.IntVar(&opts.stock, "stock", 0, "seckill stock")
	flags.StringVar(&opts.begin, "begin", "", "begin time (RFC3339 or \"2006-01-02 15:04:05\")")
	flags.StringVar(&opts.end, "end", "", "end time (RFC3339 or \"2006-01-02 15:04:05\")")
	_ = cmd.MarkFlagRequired("shop")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("begin")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (o *voucherAddOptions) toInput() (service.AddSeckillVoucherInput, error) {
	payValue, err := decimal.NewFromString(strings.TrimSpace(o.payValue))
	if err != nil {
		return service.AddSeckillVoucherInput{}, fmt.Errorf("invalid --pay: %w", err)
	}
	actualValue, err := decimal.NewFromString(strings.TrimSpace(o.actualValue))
	if err != nil {
		return service.AddSeckillVoucherInput{}, fmt.Errorf("invalid --actual: %w", err)
	}
	begin, err := parseTime(o.begin)
	if err != nil {
		return service.AddSeckillVoucherInput{}, fmt.Errorf("invalid --begin: %w", err)
	}
	end, err := parseTime(o.end)
	if err != nil {
		return service.AddSeckillVoucherInput{}, fmt.Errorf("invalid --end: %w", err)
	}
	return service.AddSeckillVoucherInput{
		ShopID:      o.shopID,
		Title:       o.title,
		SubTitle:    o.subTitle,
		Rules:       o.rules,
		PayValue:    payValue,
		ActualValue: actualValue,
		Stock:       o.stock,
		BeginTime:   begin,
		EndTime:     end,
	}, nil
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(timeLayout, raw, time.Local)
}
