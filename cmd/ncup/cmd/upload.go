package cmd

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type uploadArgs struct {
	remoteDir string
	chunkSize string
	thread    int
	retries   int
}

func NewUploadCmd(c *Context) *cobra.Command {
	args := &uploadArgs{}
	subc := &cobra.Command{
		Use:     "upload <files...>",
		Aliases: []string{"up"},
		Short:   "Upload files with resumable chunking",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			return onRunUpload(context.Background(), c, args, files)
		},
	}
	subc.PersistentFlags().StringVarP(&args.remoteDir, "remote-dir", "t", "/", "remote folder to upload into")
	subc.PersistentFlags().StringVarP(&args.chunkSize, "chunk-size", "s", "", "bytes per chunk, overrides config")
	subc.PersistentFlags().IntVar(&args.thread, "thread", 0, "files uploaded in parallel, overrides config")
	subc.PersistentFlags().IntVar(&args.retries, "retry", 1, "attempts per file, later attempts resume")
	return subc
}

func onRunUpload(ctx context.Context, c *Context, args *uploadArgs, files []string) error {
	chunkSizeSpec := c.Config.ChunkSize
	if len(args.chunkSize) != 0 {
		chunkSizeSpec = args.chunkSize
	}
	chunkSize, err := humanize.ParseBytes(chunkSizeSpec)
	if err != nil {
		return fmt.Errorf("parse chunk size failed, value:%s, err:%w", chunkSizeSpec, err)
	}
	thread := c.Config.Thread
	if args.thread > 0 {
		thread = args.thread
	}
	if args.retries < 1 {
		args.retries = 1
	}
	eg, subctx := errgroup.WithContext(ctx)
	eg.SetLimit(thread)
	for _, file := range files {
		local := file
		eg.Go(func() error {
			return uploadOneFile(subctx, c, args, local, int64(chunkSize))
		})
	}
	return eg.Wait()
}

func uploadOneFile(ctx context.Context, c *Context, args *uploadArgs, local string, chunkSize int64) error {
	info, err := os.Stat(local)
	if err != nil {
		return fmt.Errorf("stat %s failed, err:%w", local, err)
	}
	remote := path.Join(args.remoteDir, filepath.Base(local))
	start := time.Now()
	// a failed attempt leaves resumable staging state, every following
	// attempt continues from the last confirmed byte
	if err := retry.RetryDo(ctx, uint32(args.retries), 2*time.Second, func(ctx context.Context) error {
		if err := c.NC.UploadFileChunked(ctx, local, remote, chunkSize); err != nil {
			logutil.GetLogger(ctx).Error("upload attempt failed, wait retry", zap.Error(err), zap.String("local", local))
			return err
		}
		return nil
	}); err != nil {
		return fmt.Errorf("upload %s failed, err:%w", local, err)
	}
	cost := time.Since(start)
	speed := "-"
	if cost > time.Millisecond {
		speed = humanize.IBytes(uint64(float64(info.Size())*1000/float64(int64(cost/time.Millisecond)))) + "/s"
	}
	logutil.GetLogger(ctx).Info("upload file succ", zap.String("local", local), zap.String("remote", remote),
		zap.String("size", humanize.IBytes(uint64(info.Size()))), zap.Duration("cost", cost), zap.String("speed", speed))
	return nil
}

func init() {
	register(NewUploadCmd)
}
