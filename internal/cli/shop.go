package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hmdp-next/internal/provider"

	"github.com/spf13/cobra"
)

// NewShopCommand 商铺缓存管理
func NewShopCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "商铺缓存管理",
	}
	cmd.AddCommand(newShopPreheatCommand(rootOpts))
	return cmd
}

func newShopPreheatCommand(rootOpts *RootOptions) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:           "preheat <shop-id>...",
		Short:         "写入带逻辑过期时间的商铺缓存",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid shop id %q", arg)
				}
				ids = append(ids, id)
			}
			return withContainer(cmd, rootOpts, func(ctx context.Context, c *provider.Container) error {
				for _, id := range ids {
					if err := c.ShopService.Preheat(ctx, id, ttl); err != nil {
						return fmt.Errorf("preheat shop %d: %w", id, err)
					}
				}
				line := fmt.Sprintf("preheated %d shop(s), logical ttl %s", len(ids), ttl)
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, map[string]interface{}{
					"shop_ids": ids,
					"ttl":      ttl.String(),
				}, line)
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 30*time.Minute, "logical expire duration")
	return cmd
}
