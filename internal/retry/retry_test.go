package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/pithecene-io/travharv/internal/retry"
)

func TestPolicyDelaySchedule(t *testing.T) {
	p := retry.Policy{MaxAttempts: 8, BaseSeconds: 0.4}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 400 * time.Millisecond},
		{2, 800 * time.Millisecond},
		{3, 1600 * time.Millisecond},
	}
	for _, c := range cases {
		if got := p.Delay(c.attempt); got != c.want {
			t.Errorf("attempt %d: got %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestPolicySleepStopsAtMaxAttempts(t *testing.T) {
	p := retry.Policy{MaxAttempts: 2, BaseSeconds: 0.001}
	if !p.Sleep(context.Background(), 1) {
		t.Fatal("expected sleep to proceed before max attempts")
	}
	if p.Sleep(context.Background(), 2) {
		t.Fatal("expected sleep to refuse at max attempts")
	}
}

func TestPolicySleepRespectsCancellation(t *testing.T) {
	p := retry.Policy{MaxAttempts: 8, BaseSeconds: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p.Sleep(ctx, 1) {
		t.Fatal("expected sleep to return false on cancelled context")
	}
}

func TestRetryableStatusSet(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !retry.RetryableStatus[code] {
			t.Errorf("expected %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 301, 400, 404} {
		if retry.RetryableStatus[code] {
			t.Errorf("expected %d to not be retryable", code)
		}
	}
}
