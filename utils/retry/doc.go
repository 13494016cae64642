// Package retry holds the retry policy for rate-limited API calls and the delay
// calculator that turns an attempt index and an optional server hint into a wait time.
//
// Basic Usage:
//
//	cfg, err := retry.Resolve("turbo-retry.yaml", os.LookupEnv)
//	if err != nil {
//	    return err
//	}
//	delay := retry.CalculateDelay(attempt, snapshot.RetryAfter, cfg)
//
// Configuration:
//
// The Config struct is resolved once per orchestrated call and never mutated afterwards:
//   - MaxRetries: retries after the first attempt (default: 3)
//   - InitialDelay: backoff base for attempt 0 (default: 1s)
//   - MaxDelay: upper bound applied before jitter (default: 60s)
//   - JitterFactor: symmetric jitter as a fraction of the delay (default: 0.1)
//   - LogRateLimits: emit rate-limit events to the log sink (default: true)
//
// Sources are layered defaults < YAML file < environment. The environment variables are
// ANTHROPIC_MAX_RETRIES, ANTHROPIC_INITIAL_DELAY_MS, ANTHROPIC_MAX_DELAY_MS,
// ANTHROPIC_JITTER_FACTOR and ANTHROPIC_LOG_RATE_LIMITS.
//
// Delay Calculation:
//
// A Retry-After hint wins whenever it parses, either as integer seconds or as a date.
// Otherwise the delay is InitialDelay * 2^attempt, saturating at MaxDelay. The result is
// then jittered by ±JitterFactor, clamped at zero and rounded to the millisecond.
package retry
