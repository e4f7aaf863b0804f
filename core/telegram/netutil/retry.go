// Package netutil classifies transport failures of Bot API calls.
package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether err is a transient dial or timeout failure.
// Resets and other read errors are not retried.
func ShouldRetry(err error) bool {
	for err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return true
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var urlErr *url.Error
		if !errors.As(err, &urlErr) || urlErr.Err == err {
			return false
		}
		err = urlErr.Err
	}
	return false
}
