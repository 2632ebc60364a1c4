package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/ai"
	"github.com/KaramelBytes/dataloom-cli/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
)

// DefaultRetryDelays is the wait before each retry of a rate-limited call.
var DefaultRetryDelays = []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second}

// RetryPolicy retries model calls that fail with *ai.RateLimitError on a
// fixed schedule. Any other error is returned at once.
type RetryPolicy struct {
	Delays []time.Duration
	Clock  clockwork.Clock
	Logger *slog.Logger
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delays: DefaultRetryDelays}
}

// EscalatingDelays returns attempts delays growing linearly by base
// (base, 2*base, 3*base, ...), each capped at ceiling.
func EscalatingDelays(attempts int, base, ceiling time.Duration) []time.Duration {
	if attempts <= 0 || base <= 0 {
		return nil
	}
	out := make([]time.Duration, attempts)
	for i := range out {
		d := base * time.Duration(i+1)
		if ceiling > 0 && d > ceiling {
			d = ceiling
		}
		out[i] = d
	}
	return out
}

// Do runs call, retrying rate limits. ctx cancellation interrupts a wait.
func (p RetryPolicy) Do(ctx context.Context, provider string, call func() (*ai.ChatResponse, error)) (*ai.ChatResponse, error) {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	op := func() (*ai.ChatResponse, error) {
		resp, err := call()
		if err != nil && !ai.IsRateLimit(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}
	notify := func(err error, wait time.Duration) {
		metrics.LLMRetriesTotal.WithLabelValues(provider).Inc()
		logger.Warn("rate limited, retrying", "provider", provider, "wait", wait, "error", err)
	}
	b := backoff.WithContext(&schedule{delays: p.Delays}, ctx)
	return backoff.RetryNotifyWithTimerAndData(op, b, notify, &clockTimer{clock: clock})
}

// schedule is a backoff.BackOff over a fixed list of delays.
type schedule struct {
	delays []time.Duration
	next   int
}

func (s *schedule) NextBackOff() time.Duration {
	if s.next >= len(s.delays) {
		return backoff.Stop
	}
	d := s.delays[s.next]
	s.next++
	return d
}

func (s *schedule) Reset() { s.next = 0 }

// clockTimer adapts a clockwork clock to backoff.Timer.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = t.clock.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time { return t.timer.Chan() }
