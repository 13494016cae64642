package turbo_retry

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/FrenchMajesty/turbo-retry/utils/parallel"
	"github.com/FrenchMajesty/turbo-retry/utils/retry"
	"github.com/google/uuid"
)

const defaultDescription = "API call"

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a TurboRetry
type Options struct {
	// Config is the retry policy. The zero value means retry.DefaultConfig().
	Config retry.Config
	// Logger receives the rate limit event lines. Defaults to stdout.
	Logger logger.Logger
	// Backend records every rate limit snapshot under the call description
	Backend rate_limit.Backend
	// Metrics, when set, exports Prometheus counters
	Metrics *Metrics
	// EventChan, when set, receives every retry event (non-blocking)
	EventChan chan<- *RetryEvent
	// Calculator computes the delays. The zero value uses math/rand and the wall clock.
	Calculator retry.Calculator
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep SleepFunc
}

// TurboRetry retries calls to a rate limited API.
// It is safe for concurrent use: every Execute owns its attempt counter
// and only reads the shared policy.
type TurboRetry struct {
	cfg        retry.Config
	reporter   *Reporter
	backend    rate_limit.Backend
	metrics    *Metrics
	calculator retry.Calculator
	sleep      SleepFunc
	stats      statsTracker
}

// New validates the options and builds a TurboRetry
func New(opts Options) (*TurboRetry, error) {
	cfg := opts.Config
	if cfg == (retry.Config{}) {
		cfg = retry.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := opts.Logger
	if l == nil {
		l = logger.NewStdoutLogger()
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &TurboRetry{
		cfg:        cfg,
		reporter:   NewReporter(l, cfg.LogRateLimits).WithEventChan(opts.EventChan),
		backend:    opts.Backend,
		metrics:    opts.Metrics,
		calculator: opts.Calculator,
		sleep:      sleep,
	}, nil
}

// WithRateLimit resolves the policy from the environment and executes call once
// through a fresh TurboRetry logging to stdout.
func WithRateLimit(ctx context.Context, call Call, description string) (Response, error) {
	cfg, err := retry.Resolve("", os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("resolve retry config: %w", err)
	}
	tr, err := New(Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	return tr.Execute(ctx, call, description)
}

// Config returns the policy in use
func (tr *TurboRetry) Config() retry.Config {
	return tr.cfg
}

// Stats returns a snapshot of the counters
func (tr *TurboRetry) Stats() Stats {
	return tr.stats.snapshot()
}

// Execute invokes call until it succeeds, fails with something other than a rate limit,
// or the retry budget is spent. Attempts are strictly sequential.
//
// A 429 is retried after a delay derived from the Retry-After hint or exponential
// backoff. Any other unsuccessful status fails immediately with an *APIError. A transport
// error fails immediately with a *TransportError unless it is rate limited (IsRateLimited).
func (tr *TurboRetry) Execute(ctx context.Context, call Call, description string) (Response, error) {
	if description == "" {
		description = defaultDescription
	}

	run := &attemptRun{
		tr:          tr,
		cfg:         tr.cfg,
		callID:      uuid.New().String()[:8],
		description: description,
	}
	tr.stats.calls.Add(1)

	for attempt := 0; attempt <= run.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, run.fail(resultTransportFailure, &TransportError{Attempt: attempt + 1, Err: err})
		}

		tr.stats.attempts.Add(1)
		tr.metrics.observeAttempt()

		resp, err := call(ctx)
		outcome := classify(resp, err)
		last := attempt == run.cfg.MaxRetries

		switch outcome.Kind {
		case OutcomeSuccess:
			if attempt > 0 {
				run.report(EventSucceededAfterRetry, outcome.StatusCode, attempt, 0, "Request succeeded after retry", nil)
			}
			tr.stats.succeeded.Add(1)
			tr.metrics.observeResult(resultSuccess)
			return resp, nil

		case OutcomeRateLimited:
			tr.stats.rateLimited.Add(1)
			tr.metrics.observeRateLimited()
			run.record(outcome.Snapshot)

			if !last {
				delay := tr.calculator.Delay(attempt, outcome.RetryAfter(), run.cfg)
				snapshot := outcome.Snapshot
				run.report(EventRateLimited, outcome.StatusCode, attempt, delay,
					fmt.Sprintf("Rate limited. Retrying in %dms...", delay.Milliseconds()), &snapshot)
				discard(resp)
				if err := run.wait(ctx, attempt, delay); err != nil {
					return nil, err
				}
				continue
			}

			snapshot := outcome.Snapshot
			run.report(EventRateLimitExhausted, outcome.StatusCode, attempt, 0, "Max retries exhausted. Returning error.", &snapshot)
			return nil, run.fail(resultRateLimitExhausted, run.apiError(ctx, resp, attempt))

		case OutcomeUpstreamError:
			return nil, run.fail(resultUpstreamError, run.apiError(ctx, resp, attempt))

		case OutcomeTransportFailure:
			if outcome.Retryable && !last {
				tr.stats.rateLimited.Add(1)
				tr.metrics.observeRateLimited()
				delay := tr.calculator.Delay(attempt, "", run.cfg)
				run.report(EventRateLimited, 0, attempt, delay,
					fmt.Sprintf("Rate limited (%v). Retrying in %dms...", outcome.Err, delay.Milliseconds()), nil)
				if err := run.wait(ctx, attempt, delay); err != nil {
					return nil, err
				}
				continue
			}

			if outcome.Retryable {
				run.report(EventRateLimitExhausted, 0, attempt, 0, "Max retries exhausted. Returning error.", nil)
			}
			return nil, run.fail(resultTransportFailure, &TransportError{
				Attempt:   attempt + 1,
				Exhausted: outcome.Retryable,
				Err:       outcome.Err,
			})
		}
	}

	// Every branch of the last attempt returns, so this is a broken invariant
	return nil, run.fail(resultTransportFailure,
		fmt.Errorf("%s failed after %d retries: %w", description, run.cfg.MaxRetries, ErrRetryExhausted))
}

// ExecuteAll runs independent calls concurrently, each with its own attempt sequence.
// Keys double as call descriptions.
func (tr *TurboRetry) ExecuteAll(ctx context.Context, calls map[string]Call) parallel.Results[Response] {
	b := parallel.NewBuilder[Response]()
	for key, call := range calls {
		b.Add(key, func(ctx context.Context) (Response, error) {
			return tr.Execute(ctx, call, key)
		})
	}
	return b.Run(ctx)
}

// attemptRun is the state owned by a single Execute
type attemptRun struct {
	tr          *TurboRetry
	cfg         retry.Config
	callID      string
	description string
}

func (r *attemptRun) report(eventType EventType, status, attempt int, delay time.Duration, reason string, snapshot *rate_limit.Snapshot) {
	r.tr.reporter.Report(&RetryEvent{
		Type:        eventType,
		CallID:      r.callID,
		Description: r.description,
		Status:      status,
		Attempt:     attempt + 1,
		MaxAttempts: r.cfg.MaxAttempts(),
		Delay:       delay,
		Reason:      reason,
		Snapshot:    snapshot,
		Timestamp:   time.Now(),
	})
}

// record stores the snapshot in the backend. Failures only cost telemetry.
func (r *attemptRun) record(snapshot rate_limit.Snapshot) {
	if r.tr.backend == nil {
		return
	}
	defer func() {
		recover()
	}()
	_ = r.tr.backend.Record(r.description, snapshot)
}

// wait sleeps before the next attempt
func (r *attemptRun) wait(ctx context.Context, attempt int, delay time.Duration) error {
	r.tr.stats.retries.Add(1)
	r.tr.metrics.observeRetry(delay)

	if err := r.tr.sleep(ctx, delay); err != nil {
		return r.fail(resultTransportFailure, &TransportError{Attempt: attempt + 1, Err: err})
	}
	return nil
}

func (r *attemptRun) apiError(ctx context.Context, resp Response, attempt int) *APIError {
	body, readErr := resp.Text(ctx)
	return &APIError{
		StatusCode: resp.StatusCode(),
		Body:       body,
		Attempts:   attempt + 1,
		MaxRetries: r.cfg.MaxRetries,
		ReadErr:    readErr,
	}
}

func (r *attemptRun) fail(result string, err error) error {
	r.tr.stats.failed.Add(1)
	r.tr.metrics.observeResult(result)
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
