package alloy

import (
	"math"
	"time"
)

// resolveDeferred runs the deferred-import algorithm of spec.md §4.E.2:
// attempt index starts at 0; on failure, retry while attempt_index is
// below AttemptsAfterFirst, sleeping InitialBackoffMS*Factor^attempt
// milliseconds between attempts (0 means immediate).
func resolveDeferred(d *Deferred, sleep func(time.Duration)) (*ServiceKey, error) {
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		key, err := d.Import()
		if err == nil {
			return key, nil
		}
		lastErr = err
		if attempt >= d.Retry.AttemptsAfterFirst {
			return nil, lastErr
		}
		backoff := float64(d.Retry.InitialBackoffMS) * math.Pow(d.Retry.Factor, float64(attempt))
		if backoff > 0 {
			sleep(time.Duration(backoff) * time.Millisecond)
		}
	}
}
