package upstream

import (
	"errors"
	"fmt"
	"strings"
)

// ThrottlingError means the provider asked us to slow down (HTTP 429 or an
// in-body rate-limit notice).
type ThrottlingError struct {
	Op      string
	Symbols []string
	Err     error
}

func (e *ThrottlingError) Error() string {
	return fmt.Sprintf("%s throttled for [%s]: %v", e.Op, strings.Join(e.Symbols, ","), e.Err)
}

func (e *ThrottlingError) Unwrap() error { return e.Err }

// UpstreamError is any other transport, status or payload failure.
type UpstreamError struct {
	Op         string
	Symbols    []string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed for [%s] with status %d: %v", e.Op, strings.Join(e.Symbols, ","), e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed for [%s]: %v", e.Op, strings.Join(e.Symbols, ","), e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func IsThrottling(err error) bool {
	var t *ThrottlingError
	return errors.As(err, &t)
}

func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
