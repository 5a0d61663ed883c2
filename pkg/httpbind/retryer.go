package httpbind

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retryer governs the retry loop MethodHandler runs around a Transport
// call. It only acts on *RetryableError - anything else the Response
// pipeline returns propagates immediately. A Retryer carries both its
// configuration and its per-invocation state; MethodHandler calls Clone
// before each Invoke so state never leaks across calls (see Clone).
type Retryer struct {
	// MaxAttempts is the total number of attempts allowed, including the
	// first. A value <= 1 disables retrying entirely.
	MaxAttempts int
	// InitialInterval is the delay before the second attempt.
	InitialInterval time.Duration
	// MaxInterval caps the computed delay between attempts, and also
	// clamps a RetryAfter-derived delay from above.
	MaxInterval time.Duration
	// Multiplier scales the delay after each attempt. The default
	// constructor uses 1.5, matching the backoff-monotonicity property in
	// the k-th sleep equals min(period * 1.5^(k-1), maxPeriod).
	Multiplier float64

	attempt        int
	sleptForMillis int64
	backoffCalc    *backoff.ExponentialBackOff
}

// NewRetryer returns a Retryer with the given attempt budget and backoff
// bounds, scaling the delay by 1.5x after each attempt.
func NewRetryer(maxAttempts int, initial, max time.Duration) *Retryer {
	return &Retryer{
		MaxAttempts:     maxAttempts,
		InitialInterval: initial,
		MaxInterval:     max,
		Multiplier:      1.5,
	}
}

// NeverRetry returns a Retryer that rethrows the first *RetryableError it
// sees without sleeping - the sentinel "never retry" policy. Its
// MaxAttempts of 1 means a RetryAfter deadline is never waited for either.
func NeverRetry() *Retryer {
	return &Retryer{MaxAttempts: 1}
}

// Clone returns a fresh Retryer carrying r's configuration and reset
// per-invocation state (attempt=1, sleptForMillis=0), satisfying the
// clone-idempotence: cloning always yields fresh state. attempt starts at 1
// because it counts the attempt about to be made, not the number already
// completed. MethodHandler calls this once per Invoke before handing the
// clone to Do.
func (r *Retryer) Clone() *Retryer {
	c := &Retryer{
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
		Multiplier:      r.Multiplier,
		attempt:         1,
	}
	c.initBackoff()
	return c
}

func (r *Retryer) initBackoff() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.InitialInterval
	b.MaxInterval = r.MaxInterval
	multiplier := r.Multiplier
	if multiplier <= 0 {
		multiplier = 1.5
	}
	b.Multiplier = multiplier
	// RandomizationFactor is pinned to 0: the delay sequence must be a
	// deterministic function of attempt number, not perturbed by jitter.
	b.RandomizationFactor = 0
	r.backoffCalc = b
}

// Attempt reports the 1-based number of the current attempt this
// invocation: 1 on a fresh clone, before any attempt has run.
func (r *Retryer) Attempt() int { return r.attempt }

// SleptForMillis reports total accumulated sleep time this invocation.
func (r *Retryer) SleptForMillis() int64 { return r.sleptForMillis }

// next reports whether another attempt should be made for err, and if so
// the delay to wait first. It implements ContinueOrPropagate: the Method on
// err is carried for a Retryer's own use (a custom Retryer might special-case
// verbs), but the default policy here retries any *RetryableError up to
// MaxAttempts regardless of verb - idempotency is the caller's concern,
// enforced upstream by whichever capability decided the error was retryable
// in the first place.
func (r *Retryer) next(err *RetryableError) (time.Duration, bool) {
	if r.MaxAttempts <= 1 || r.attempt >= r.MaxAttempts {
		return 0, false
	}
	r.attempt++
	if err.RetryAfter != nil {
		d := time.Until(*err.RetryAfter)
		if d <= 0 {
			return 0, true
		}
		if r.MaxInterval > 0 && d > r.MaxInterval {
			d = r.MaxInterval
		}
		return d, true
	}
	d := r.backoffCalc.NextBackOff()
	return d, true
}

// Do runs attempt repeatedly until it returns a non-*RetryableError result,
// the attempt budget is exhausted, or ctx is done while sleeping between
// attempts (the last *RetryableError is then returned). attempt is called with
// the attempt count about to be made (1-based) so a Transport/interceptor
// can log it.
func (r *Retryer) Do(ctx context.Context, attempt func(attemptNum int) (*Response, error)) (*Response, error) {
	if r.backoffCalc == nil {
		r.initBackoff()
	}
	for {
		resp, err := attempt(r.attempt)
		if err == nil {
			return resp, nil
		}
		var retryable *RetryableError
		if !errors.As(err, &retryable) {
			return resp, err
		}
		delay, again := r.next(retryable)
		if !again {
			return resp, err
		}
		select {
		case <-ctx.Done():
			return resp, err
		case <-time.After(delay):
		}
		r.sleptForMillis += delay.Milliseconds()
	}
}
