package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type downloadArgs struct {
	output string
}

func NewDownloadCmd(c *Context) *cobra.Command {
	args := &downloadArgs{}
	subc := &cobra.Command{
		Use:     "download <remote-file>",
		Aliases: []string{"dl"},
		Short:   "Download a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunDownload(context.Background(), c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.output, "output", "o", "", "local target path, defaults to the remote basename")
	return subc
}

func onRunDownload(ctx context.Context, c *Context, args *downloadArgs, remote string) error {
	local := args.output
	if len(local) == 0 {
		local = filepath.Base(path.Clean(remote))
	}
	start := time.Now()
	if err := c.NC.DownloadFile(ctx, remote, local); err != nil {
		return fmt.Errorf("download %s failed, err:%w", remote, err)
	}
	logutil.GetLogger(ctx).Info("download file succ", zap.String("remote", remote),
		zap.String("local", local), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewDownloadCmd)
}
