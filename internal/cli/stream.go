package cli

import (
	"context"
	"fmt"

	"github.com/hmdp-next/internal/provider"

	"github.com/spf13/cobra"
)

// NewStreamCommand 订单队列巡检
func NewStreamCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "订单队列巡检",
	}
	cmd.AddCommand(newStreamPendingCommand(rootOpts))
	return cmd
}

func newStreamPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "pending",
		Short:         "查看消费组中已投递未确认的订单数",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(ctx context.Context, c *provider.Container) error {
				if err := c.OrderStream.EnsureGroup(ctx); err != nil {
					return err
				}
				count, err := c.OrderStream.PendingCount(ctx)
				if err != nil {
					return fmt.Errorf("read pending: %w", err)
				}
				cfg := c.OrderStream.Config()
				line := fmt.Sprintf("stream %s group %s pending %d", cfg.Stream, cfg.Group, count)
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, map[string]interface{}{
					"stream":  cfg.Stream,
					"group":   cfg.Group,
					"pending": count,
				}, line)
			})
		},
	}
}
