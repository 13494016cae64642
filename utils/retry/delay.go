package retry

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Calculator computes jittered retry delays.
// The zero value uses math/rand and the wall clock.
type Calculator struct {
	// Rand returns a uniform value in [0,1)
	Rand func() float64
	// Now is the reference instant for date hints
	Now func() time.Time
}

var defaultCalculator = Calculator{}

// CalculateDelay computes the delay before the retry following attempt (0-indexed)
func CalculateDelay(attempt int, retryAfter string, cfg Config) time.Duration {
	return defaultCalculator.Delay(attempt, retryAfter, cfg)
}

// Delay computes the delay before the retry following attempt (0-indexed).
// A parseable retryAfter hint takes precedence over exponential backoff.
func (c Calculator) Delay(attempt int, retryAfter string, cfg Config) time.Duration {
	delay, ok := c.hintDelay(retryAfter, cfg.MaxDelay)
	if !ok {
		delay = Backoff(attempt, cfg.InitialDelay, cfg.MaxDelay)
	}

	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	jitter := (c.random()*2 - 1) * cfg.JitterFactor * float64(delay)
	delay = time.Duration(math.Max(0, float64(delay)+jitter))

	return delay.Round(time.Millisecond)
}

// Backoff returns initial * 2^attempt, saturating at maxDelay
func Backoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if initial <= 0 {
		return 0
	}
	delay := initial
	for i := 0; i < attempt; i++ {
		if delay >= maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return delay
}

// hintDelay parses a Retry-After value as integer seconds, then as a date.
// ok is false when the hint is absent or unparseable.
func (c Calculator) hintDelay(retryAfter string, maxDelay time.Duration) (time.Duration, bool) {
	retryAfter = strings.TrimSpace(retryAfter)
	if retryAfter == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		if seconds < 0 {
			return 0, true
		}
		// Saturate before multiplying so huge hints cannot overflow
		if int64(seconds) > int64(maxDelay/time.Second) {
			return maxDelay, true
		}
		return time.Duration(seconds) * time.Second, true
	}

	if at, ok := parseDate(retryAfter); ok {
		wait := at.Sub(c.now())
		if wait < 0 {
			wait = 0
		}
		return wait, true
	}

	return 0, false
}

// parseDate accepts the HTTP date formats and RFC3339
func parseDate(s string) (time.Time, bool) {
	if t, err := http.ParseTime(s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (c Calculator) random() float64 {
	if c.Rand != nil {
		return c.Rand()
	}
	return rand.Float64()
}

func (c Calculator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
