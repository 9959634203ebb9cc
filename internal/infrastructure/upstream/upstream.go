// Package upstream holds the transport helpers shared by the provider adapters.
package upstream

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"golang.org/x/time/rate"
)

// MaxBodySize caps how much of an upstream response is read into memory.
const MaxBodySize = 20 << 20

// UserAgent is sent on every outbound request that has no provider-specific agent.
const UserAgent = "HiperaliaEANProcessing/1.0"

// NewLimiter returns a limiter allowing perMinute requests with a small burst.
// A non-positive rate disables limiting.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// Classify converts a transport failure into a non-retryable provider error.
func Classify(source string, err error) *domain.ProviderError {
	if isTimeout(err) {
		return domain.NewProviderError(source, domain.ErrTimeout, "request timed out", err)
	}
	return domain.NewProviderError(source, domain.ErrConnection, "could not connect to server", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ReadLimitedBody reads at most limit bytes from r.
func ReadLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
