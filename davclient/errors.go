package davclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrNotModified     = errors.New("dav: not modified")
	ErrBadRequest      = errors.New("dav: bad request")
	ErrUnauthorized    = errors.New("dav: unauthorized")
	ErrForbidden       = errors.New("dav: forbidden")
	ErrNotFound        = errors.New("dav: not found")
	ErrConflict        = errors.New("dav: conflict")
	ErrTooManyRequests = errors.New("dav: too many requests")
)

// StatusError carries any non-2xx status with no dedicated sentinel.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dav: status code not ok, code:%d, body:%s", e.StatusCode, e.Body)
}

func statusToError(rsp *http.Response) error {
	switch rsp.StatusCode {
	case http.StatusNotModified:
		return ErrNotModified
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	}
	body := make([]byte, 1024)
	n, _ := io.ReadAtLeast(rsp.Body, body, 1)
	return &StatusError{StatusCode: rsp.StatusCode, Body: string(body[:n])}
}
