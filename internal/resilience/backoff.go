package resilience

import (
	"math/rand"
	"time"
)

// maxBackoff caps a single delay so late retries stay bounded.
const maxBackoff = 5 * time.Minute

// Backoff returns base doubled per attempt (attempt 1 waits base), spread by
// ±jitterPct. A non-positive base means 100ms.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	if jitterPct <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitterPct
	return d + time.Duration(delta)
}
