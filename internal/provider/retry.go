package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"cvpulse-backend/internal/shared/metrics"
	"cvpulse-backend/internal/shared/telemetry"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = time.Second
)

// Failover tries the remote provider with bounded retries, then hands
// the request to the fallback. The fallback is local and deterministic,
// so a request entering Failover always produces a result.
type Failover struct {
	Remote    Provider
	Fallback  Provider
	Attempts  int
	BaseDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewFailover(remote, fallback Provider) *Failover {
	return &Failover{
		Remote:    remote,
		Fallback:  fallback,
		Attempts:  defaultAttempts,
		BaseDelay: defaultBaseDelay,
	}
}

func (f *Failover) Analyze(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error) {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	baseDelay := f.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	var lastErr error
	if f.Remote != nil {
		for attempt := 1; attempt <= attempts; attempt++ {
			if attempt > 1 {
				// 1s before the second try, 2s before the third.
				delay := baseDelay << (attempt - 2)
				metrics.IncProviderRetry()
				telemetry.Warn("provider.retry", map[string]any{
					"attempt": attempt,
					"delay":   delay.String(),
					"error":   lastErr.Error(),
				})
				if err := f.wait(ctx, delay); err != nil {
					lastErr = err
					break
				}
			}

			raw, err := f.Remote.Analyze(ctx, in, variant)
			if err == nil {
				return raw, nil
			}
			lastErr = err
			if !IsTransient(err) {
				break
			}
		}
	}

	if f.Fallback == nil {
		return nil, lastErr
	}

	noteFallback(ctx)
	metrics.IncProviderFallback()
	fields := map[string]any{}
	if lastErr != nil {
		fields["error"] = lastErr.Error()
	}
	telemetry.Warn("provider.fallback", fields)
	return f.Fallback.Analyze(ctx, in, variant)
}

func (f *Failover) wait(ctx context.Context, d time.Duration) error {
	if f.sleep != nil {
		return f.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsTransient classifies provider errors worth retrying: rate limiting,
// server-side faults and network-level failures. Malformed replies and
// client errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedReply) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code == 503 || apiErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "resource exhausted"):
		return true
	case strings.Contains(msg, "503"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "overloaded"):
		return true
	case strings.Contains(msg, "http status 5"), strings.Contains(msg, "internal error"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return true
	case strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection closed"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "tls handshake timeout"),
		strings.Contains(msg, "eof"):
		return true
	}
	return false
}
