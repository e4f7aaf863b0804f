package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/lendbot/core/logger"
	"github.com/m3rciful/lendbot/core/telegram/netutil"
)

// ClientOptions tunes the Bot API HTTP client. Zero values fall back to defaults.
type ClientOptions struct {
	Timeout        time.Duration
	DialTimeout    time.Duration
	HeaderTimeout  time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.HeaderTimeout <= 0 {
		o.HeaderTimeout = 5 * time.Second
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 3
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 2 * time.Second
	}
	return o
}

// BuildHTTPClient returns an HTTP client for Bot API calls that retries
// transient dial and timeout failures with linear backoff.
func BuildHTTPClient(opts ...ClientOptions) *http.Client {
	var o ClientOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: o.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   o.DialTimeout,
		ResponseHeaderTimeout: o.HeaderTimeout,
	}
	return &http.Client{
		Timeout:   o.Timeout,
		Transport: &retryTransport{base: base, retries: o.RetryAttempts, delay: o.RetryBaseDelay},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	delay   time.Duration
}

// RoundTrip sends req, repeating it while the failure is transient and the body can be replayed.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.retries && netutil.ShouldRetry(err); attempt++ {
		if req.Body != nil && req.GetBody == nil {
			break
		}
		wait := t.delay * time.Duration(attempt)
		logger.Debug(ctx, "tg", "http.retry",
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
			slog.Duration("backoff", wait),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		next := req.Clone(ctx)
		if req.GetBody != nil {
			if next.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		resp, err = t.base.RoundTrip(next)
	}
	return resp, err
}
