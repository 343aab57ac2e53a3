package ws

import (
	"time"
)

const (
	BackoffMinInterval = 1 * time.Second
	BackoffMaxInterval = 60 * time.Second
	BackoffMultiplier  = 1.5
)

// backoff grows d from min by BackoffMultiplier, capped at max.
func backoff(d *time.Duration, min, max time.Duration) {
	if *d == 0 {
		*d = min
		return
	}
	*d = time.Duration(float64(*d) * BackoffMultiplier).Truncate(time.Millisecond)
	if *d > max {
		*d = max
	}
}
