package davclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const davStub = "/remote.php/dav"

var defaultHttpClient = &http.Client{
	Timeout: 300 * time.Second,
	Transport: &http.Transport{
		IdleConnTimeout:     20 * time.Second,
		MaxIdleConns:        5,
		MaxIdleConnsPerHost: 2,
	},
}

type defaultDavClient struct {
	c *config
}

func New(opts ...Option) (IDavClient, error) {
	c := &config{
		Client: defaultHttpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.Endpoint) == 0 {
		return nil, fmt.Errorf("no endpoint found")
	}
	if len(c.User) == 0 {
		return nil, fmt.Errorf("no user found")
	}
	c.Endpoint = strings.TrimSuffix(c.Endpoint, "/")
	return &defaultDavClient{c: c}, nil
}

func (d *defaultDavClient) User() string {
	return d.c.User
}

func (d *defaultDavClient) buildUrl(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return d.c.Endpoint + davStub + escapePath(path)
}

// escapePath percent-encodes each segment but keeps the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (d *defaultDavClient) do(ctx context.Context, method string, path string, body io.Reader, size int64, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, d.buildUrl(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request failed, err:%w", err)
	}
	req.SetBasicAuth(d.c.User, d.c.Password)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	rsp, err := d.c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request failed, err:%w", err)
	}
	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		defer rsp.Body.Close()
		err := statusToError(rsp)
		logutil.GetLogger(ctx).Debug("dav request not ok", zap.String("method", method),
			zap.String("path", path), zap.Int("code", rsp.StatusCode), zap.Error(err))
		return nil, err
	}
	return rsp, nil
}

func (d *defaultDavClient) call(ctx context.Context, method string, path string, body io.Reader, size int64, headers map[string]string) error {
	rsp, err := d.do(ctx, method, path, body, size, headers)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	_, _ = io.Copy(io.Discard, rsp.Body)
	return nil
}

func (d *defaultDavClient) Mkcol(ctx context.Context, path string) error {
	return d.call(ctx, "MKCOL", path, nil, 0, nil)
}

func (d *defaultDavClient) Put(ctx context.Context, path string, r io.Reader, size int64) error {
	return d.call(ctx, http.MethodPut, path, r, size, nil)
}

func (d *defaultDavClient) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	rsp, err := d.do(ctx, http.MethodGet, path, nil, -1, nil)
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}

func (d *defaultDavClient) Move(ctx context.Context, src, dst string, overwrite bool) error {
	return d.call(ctx, "MOVE", src, nil, 0, d.destinationHeaders(dst, overwrite))
}

func (d *defaultDavClient) Copy(ctx context.Context, src, dst string, overwrite bool) error {
	return d.call(ctx, "COPY", src, nil, 0, d.destinationHeaders(dst, overwrite))
}

func (d *defaultDavClient) Delete(ctx context.Context, path string) error {
	return d.call(ctx, http.MethodDelete, path, nil, 0, nil)
}

func (d *defaultDavClient) destinationHeaders(dst string, overwrite bool) map[string]string {
	ow := "F"
	if overwrite {
		ow = "T"
	}
	return map[string]string{
		"Destination": d.buildUrl(dst),
		"Overwrite":   ow,
	}
}
