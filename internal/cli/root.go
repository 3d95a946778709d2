package cli

import (
	"context"
	"fmt"

	"github.com/hmdp-next/internal/app"
	"github.com/hmdp-next/internal/config"
	"github.com/hmdp-next/internal/provider"

	"github.com/spf13/cobra"
)

// ValidFormats 支持的输出格式
var ValidFormats = []string{"text", "json"}

// OpenFunc 打开依赖容器，返回的 release 用于释放资源
type OpenFunc func(ctx context.Context) (container *provider.Container, release func(), err error)

// RootOptions 全局参数
type RootOptions struct {
	Format string
	Open   OpenFunc
}

// NewRootCommand 创建运维命令入口，依赖从 config.yml 打开
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOpener(defaultOpener)
}

// NewRootCommandWithOpener 使用指定的容器打开方式创建命令入口
func NewRootCommandWithOpener(open OpenFunc) *cobra.Command {
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "hmdpctl",
		Short: "HMDP 秒杀运维工具",
		Long:  "秒杀券上架、商铺缓存预热、订单队列巡检与 ID 生成调试。",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewVoucherCommand(opts))
	cmd.AddCommand(NewShopCommand(opts))
	cmd.AddCommand(NewStreamCommand(opts))
	cmd.AddCommand(NewIDCommand(opts))

	return cmd
}

func defaultOpener(context.Context) (*provider.Container, func(), error) {
	container, err := app.InitContainer(config.Load())
	if err != nil {
		return nil, nil, err
	}
	return container, func() { _ = container.Close() }, nil
}

// withContainer 打开容器执行 fn 后释放
func withContainer(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, c *provider.Container) error) error {
	if opts.Open == nil {
		return fmt.Errorf("container opener not configured")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	container, release, err := opts.Open(ctx)
	if err != nil {
		return fmt.Errorf("open container: %w", err)
	}
	if release != nil {
		defer release()
	}
	return fn(ctx, container)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
