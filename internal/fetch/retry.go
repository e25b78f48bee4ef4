package fetch

import "time"

// RetryPolicy controls backoff for retryable request failures. Delays double
// from BaseDelay on every retry, capped at MaxDelay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 5,
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
	}
}

// Delay returns the wait before the given retry (0-based), so the schedule
// under the defaults is 1s, 2s, 4s, 8s, 16s.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	if retry > 30 {
		retry = 30
	}
	d := p.BaseDelay * (1 << uint(retry))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
