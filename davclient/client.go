package davclient

import (
	"context"
	"io"
)

// IDavClient is the narrow DAV surface the rest of the library builds on.
// Paths are relative to the server's /remote.php/dav stub.
type IDavClient interface {
	Mkcol(ctx context.Context, path string) error
	Put(ctx context.Context, path string, r io.Reader, size int64) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Move(ctx context.Context, src, dst string, overwrite bool) error
	Copy(ctx context.Context, src, dst string, overwrite bool) error
	Delete(ctx context.Context, path string) error
	User() string
}
