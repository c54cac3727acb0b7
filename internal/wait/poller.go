// internal/wait/poller.go
// Package wait blocks until a condition against the live page holds, polling at
// a configured pace and giving up after a configured timeout.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webtester/internal/config"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultInterval = 100 * time.Millisecond
)

// ErrTimeout is matched by every error a Poller returns because its timeout elapsed.
var ErrTimeout = errors.New("wait timed out")

// TimeoutError reports that a condition did not hold within the timeout. Last
// is the most recent error returned by the condition, if any.
type TimeoutError struct {
	Timeout time.Duration
	Polls   int
	Last    error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("condition not met after %v (%d polls): %v", e.Timeout, e.Polls, e.Last)
	}
	return fmt.Sprintf("condition not met after %v (%d polls)", e.Timeout, e.Polls)
}

// Unwrap exposes both ErrTimeout and the last condition error to errors.Is/As.
func (e *TimeoutError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Last}
}

// Poller is the wait facility used for stale element recovery.
type Poller struct {
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewPoller creates a Poller from the wait configuration. Non-positive values
// fall back to defaults.
func NewPoller(cfg config.WaitConfig, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Poller{
		timeout:  cfg.Timeout,
		interval: cfg.PollInterval,
		logger:   logger.Named("wait"),
	}
	if p.timeout <= 0 {
		p.timeout = defaultTimeout
	}
	if p.interval <= 0 {
		p.interval = defaultInterval
	}
	return p
}

// Timeout returns the effective timeout.
func (p *Poller) Timeout() time.Duration { return p.timeout }

// Interval returns the effective poll interval.
func (p *Poller) Interval() time.Duration { return p.interval }

// Until calls invalidate once (when non-nil) and then evaluates condition at most
// once per interval until it reports true. Condition errors are remembered and
// polling continues, so transient lookup failures do not end the wait early.
// The last poll happens at the deadline even when it falls between two
// intervals. Cancellation of ctx is returned as is; running out of time yields
// a *TimeoutError.
func (p *Poller) Until(ctx context.Context, invalidate func(), condition func(ctx context.Context) (bool, error)) error {
	if invalidate != nil {
		invalidate()
	}

	deadline := time.Now().Add(p.timeout)
	// Burst of one lets the first poll run immediately.
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	var (
		polls   int
		lastErr error
	)
	for {
		delay := limiter.Reserve().Delay()
		if remaining := time.Until(deadline); delay > remaining {
			delay = max(remaining, 0)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}

		polls++
		ok, err := condition(ctx)
		if err == nil && ok {
			p.logger.Debug("Wait condition met.", zap.Int("polls", polls))
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !time.Now().Before(deadline) {
			p.logger.Debug("Wait timed out.", zap.Duration("timeout", p.timeout), zap.Int("polls", polls), zap.Error(lastErr))
			return &TimeoutError{Timeout: p.timeout, Polls: polls, Last: lastErr}
		}
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
