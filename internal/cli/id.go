package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hmdp-next/internal/idgen"
	"github.com/hmdp-next/internal/provider"

	"github.com/spf13/cobra"
)

// NewIDCommand ID 生成调试
func NewIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "id",
		Short: "全局 ID 调试",
	}
	cmd.AddCommand(newIDNextCommand(rootOpts))
	return cmd
}

type generatedID struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Sequence  int64  `json:"sequence"`
}

func newIDNextCommand(rootOpts *RootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:           "next <prefix>",
		Short:         "按业务前缀生成 ID",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			return withContainer(cmd, rootOpts, func(ctx context.Context, c *provider.Container) error {
				ids := make([]generatedID, 0, count)
				lines := make([]string, 0, count)
				for i := 0; i < count; i++ {
					id, err := c.IDWorker.NextID(ctx, args[0])
					if err != nil {
						return fmt.Errorf("next id: %w", err)
					}
					ts, seq := idgen.Split(id)
					ids = append(ids, generatedID{ID: strconv.FormatInt(id, 10), Timestamp: ts, Sequence: seq})
					lines = append(lines, strconv.FormatInt(id, 10))
				}
				return writeResult(cmd.OutOrStdout(), rootOpts.Format, ids, strings.Join(lines, "\n"))
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of ids")
	return cmd
}
