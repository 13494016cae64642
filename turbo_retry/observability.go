package turbo_retry

import (
	"fmt"
	"time"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"go.uber.org/zap"
)

type EventType string

const (
	// A rate limited attempt that will be retried after Delay
	EventRateLimited EventType = "rate_limited"
	// The last attempt was rate limited too
	EventRateLimitExhausted EventType = "rate_limit_exhausted"
	// A later attempt succeeded
	EventSucceededAfterRetry EventType = "succeeded_after_retry"
)

// RetryEvent is one decision point of an orchestrated call
type RetryEvent struct {
	Type        EventType            `json:"type"`
	CallID      string               `json:"call_id"`
	Description string               `json:"description"`
	Status      int                  `json:"status"`
	Attempt     int                  `json:"attempt"`
	MaxAttempts int                  `json:"max_attempts"`
	Delay       time.Duration        `json:"delay,omitempty"`
	Reason      string               `json:"reason"`
	Snapshot    *rate_limit.Snapshot `json:"snapshot,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

// HasDelay reports whether the event announces a wait before the next attempt
func (e *RetryEvent) HasDelay() bool {
	return e.Type == EventRateLimited
}

// Reporter writes retry events to a log sink and, optionally, to an event channel.
// Reporting never fails and never blocks the retry loop.
type Reporter struct {
	logger    logger.Logger
	enabled   bool
	eventChan chan<- *RetryEvent
}

// NewReporter creates a reporter. When enabled is false no line is logged.
func NewReporter(l logger.Logger, enabled bool) *Reporter {
	if l == nil {
		l = logger.NewNoopLogger()
	}
	return &Reporter{logger: l, enabled: enabled}
}

// WithEventChan also sends every event to ch, dropping events when it is full.
// Events are sent whether or not logging is enabled.
func (r *Reporter) WithEventChan(ch chan<- *RetryEvent) *Reporter {
	r.eventChan = ch
	return r
}

// Report emits the event. Sink panics are swallowed.
func (r *Reporter) Report(event *RetryEvent) {
	if r == nil || event == nil {
		return
	}

	r.emitEvent(event)

	if !r.enabled {
		return
	}

	defer func() {
		recover()
	}()

	if zl, ok := r.logger.(*logger.ZapLogger); ok {
		zl.Zap().Info("rate limit event", eventFields(event)...)
		return
	}

	for _, line := range FormatEvent(event) {
		r.logger.Println(line)
	}
}

// emitEvent sends an event to the event channel (non-blocking)
func (r *Reporter) emitEvent(event *RetryEvent) {
	if r.eventChan == nil {
		return
	}

	defer func() {
		// Sending on a closed channel must not take the caller down
		recover()
	}()

	select {
	case r.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, drop event to avoid blocking
	}
}

// FormatEvent renders the summary line followed by one line per known budget field
func FormatEvent(event *RetryEvent) []string {
	delay := "N/A"
	if event.HasDelay() {
		delay = fmt.Sprintf("%dms", event.Delay.Milliseconds())
	}

	lines := []string{fmt.Sprintf(
		"[RATE_LIMIT] %s | Call: %s#%s | Status: %s | Attempt: %d/%d | Delay: %s | %s",
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.Description,
		event.CallID,
		orNA(statusText(event.Status)),
		event.Attempt,
		event.MaxAttempts,
		delay,
		event.Reason,
	)}

	s := event.Snapshot
	if s == nil {
		return lines
	}
	if s.RequestsRemaining != "" {
		lines = append(lines, fmt.Sprintf("[RATE_LIMIT_INFO] Requests: %s/%s remaining", s.RequestsRemaining, orNA(s.RequestsLimit)))
	}
	if s.TokensRemaining != "" {
		lines = append(lines, fmt.Sprintf("[RATE_LIMIT_INFO] Tokens: %s/%s remaining", s.TokensRemaining, orNA(s.TokensLimit)))
	}
	if s.RequestsReset != "" {
		lines = append(lines, fmt.Sprintf("[RATE_LIMIT_INFO] Requests reset at: %s", s.RequestsReset))
	}
	if s.TokensReset != "" {
		lines = append(lines, fmt.Sprintf("[RATE_LIMIT_INFO] Tokens reset at: %s", s.TokensReset))
	}
	return lines
}

func eventFields(event *RetryEvent) []zap.Field {
	fields := []zap.Field{
		zap.String("event", string(event.Type)),
		zap.String("call_id", event.CallID),
		zap.String("description", event.Description),
		zap.Int("status", event.Status),
		zap.Int("attempt", event.Attempt),
		zap.Int("max_attempts", event.MaxAttempts),
		zap.String("reason", event.Reason),
	}
	if event.HasDelay() {
		fields = append(fields, zap.Int64("delay_ms", event.Delay.Milliseconds()))
	}
	if s := event.Snapshot; s != nil {
		fields = append(fields, zap.Object("rate_limit", snapshotMarshaler(*s)))
	}
	return fields
}

func statusText(status int) string {
	if status == 0 {
		return ""
	}
	return fmt.Sprint(status)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
