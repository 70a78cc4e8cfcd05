// Package ncfile is a client for a Nextcloud style WebDAV file surface. It
// carries the one-request file operations plus a resumable chunked upload
// protocol for large files.
package ncfile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/aaronsegura/ncfile/chunkupload"
	"github.com/aaronsegura/ncfile/davclient"
	"github.com/aaronsegura/ncfile/utils"
)

type Client struct {
	c        *config
	uploader *chunkupload.Uploader
}

func New(opts ...Option) (*Client, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Dav == nil {
		return nil, fmt.Errorf("no dav client found")
	}
	upOpts := []chunkupload.Option{chunkupload.WithDavClient(c.Dav)}
	if len(c.StagingRoot) != 0 {
		upOpts = append(upOpts, chunkupload.WithStagingRoot(c.StagingRoot))
	}
	uploader, err := chunkupload.New(upOpts...)
	if err != nil {
		return nil, fmt.Errorf("create uploader failed, err:%w", err)
	}
	return &Client{c: c, uploader: uploader}, nil
}

func (c *Client) filePath(remote string) string {
	return path.Join("/files", c.c.Dav.User(), strings.Trim(remote, "/"))
}

// UploadFile sends the whole file in one PUT request. Use UploadFileChunked
// for anything large enough to be worth resuming.
func (c *Client) UploadFile(ctx context.Context, localPath string, remotePath string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local file failed, err:%w", err)
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file failed, err:%w", err)
	}
	defer f.Close()
	return c.c.Dav.Put(ctx, c.filePath(remotePath), f, info.Size())
}

// UploadFileChunked transfers localPath in chunkSize byte pieces with local
// staging, resuming any earlier interrupted attempt for the same pair.
func (c *Client) UploadFileChunked(ctx context.Context, localPath string, remotePath string, chunkSize int64) error {
	return c.uploader.Upload(ctx, localPath, remotePath, chunkSize)
}

// DownloadFile fetches remotePath into localPath through a temp file, the
// target is only replaced once the download completed.
func (c *Client) DownloadFile(ctx context.Context, remotePath string, localPath string) error {
	rc, err := c.c.Dav.Get(ctx, c.filePath(remotePath))
	if err != nil {
		return err
	}
	defer rc.Close()
	return utils.SafeSaveIOToFile(localPath, rc)
}

func (c *Client) Delete(ctx context.Context, remotePath string) error {
	return c.c.Dav.Delete(ctx, c.filePath(remotePath))
}

func (c *Client) Move(ctx context.Context, src string, dst string, overwrite bool) error {
	return c.c.Dav.Move(ctx, c.filePath(src), c.filePath(dst), overwrite)
}

func (c *Client) Copy(ctx context.Context, src string, dst string, overwrite bool) error {
	return c.c.Dav.Copy(ctx, c.filePath(src), c.filePath(dst), overwrite)
}

func (c *Client) Mkdir(ctx context.Context, remotePath string) error {
	return c.c.Dav.Mkcol(ctx, c.filePath(remotePath))
}

// MkdirWithParents creates the folder and any missing parents, existing
// folders along the way are not an error.
func (c *Client) MkdirWithParents(ctx context.Context, remotePath string) error {
	parts := strings.Split(strings.Trim(remotePath, "/"), "/")
	for i := range parts {
		err := c.Mkdir(ctx, strings.Join(parts[:i+1], "/"))
		if err == nil || isAlreadyExists(err) {
			continue
		}
		return err
	}
	return nil
}

// MKCOL on an existing collection answers 405, some servers 409.
func isAlreadyExists(err error) bool {
	if errors.Is(err, davclient.ErrConflict) {
		return true
	}
	var se *davclient.StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusMethodNotAllowed
}
