// Package retry implements the exponential-backoff retry schedule
// shared by every outbound HTTP caller in travharv: the LOD client's
// content-negotiated fetch and the remote SPARQL backend's query/update
// calls.
//
// Grounded on pithecene-io-quarry's adapter/webhook.Adapter.Publish
// (for-loop with ctx-aware time.After backoff and a typed status error
// distinguishing retriable from fatal failures), adapted to the spec's
// fixed 0.4*2^(n-1) schedule instead of quarry's 500ms base.
package retry

import (
	"context"
	"math"
	"time"
)

// Policy is an exponential backoff schedule.
type Policy struct {
	MaxAttempts int
	BaseSeconds float64
}

// Default is the fixed schedule every HTTP caller in this module uses:
// at most 8 attempts, 0.4*2^(n-1) seconds between them.
var Default = Policy{MaxAttempts: 8, BaseSeconds: 0.4}

// Delay returns the backoff duration before the given 1-indexed
// attempt.
func (p Policy) Delay(attempt int) time.Duration {
	seconds := p.BaseSeconds * math.Pow(2, float64(attempt-1))
	return time.Duration(seconds * float64(time.Second))
}

// Sleep waits out Delay(attempt) unless ctx is cancelled first or
// attempt has already exhausted the policy's attempt budget, in which
// case it returns false immediately without sleeping.
func (p Policy) Sleep(ctx context.Context, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryableStatus is the HTTP status set the spec designates transient:
// 429 and the 5xx gateway/availability codes.
var RetryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}
