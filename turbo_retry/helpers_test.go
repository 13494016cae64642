package turbo_retry

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/FrenchMajesty/turbo-retry/utils/retry"
)

// fakeResponse is a canned response
type fakeResponse struct {
	status  int
	headers http.Header
	body    string
	closed  bool
}

func (f *fakeResponse) StatusCode() int { return f.status }

func (f *fakeResponse) Headers() rate_limit.HeaderGetter {
	if f.headers == nil {
		return nil
	}
	return f.headers
}

func (f *fakeResponse) Text(ctx context.Context) (string, error) { return f.body, nil }

func (f *fakeResponse) Close() error {
	f.closed = true
	return nil
}

func respond(status int, body string, headers ...string) *fakeResponse {
	h := http.Header{}
	for i := 0; i+1 < len(headers); i += 2 {
		h.Set(headers[i], headers[i+1])
	}
	return &fakeResponse{status: status, body: body, headers: h}
}

type step struct {
	resp Response
	err  error
}

// scriptedTransport replays steps in order, repeating the last one
type scriptedTransport struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func newScriptedTransport(steps ...step) *scriptedTransport {
	return &scriptedTransport{steps: steps}
}

func (s *scriptedTransport) Call(ctx context.Context) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].resp, s.steps[i].err
}

func (s *scriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// sleepRecorder replaces real sleeping
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// newTestTurboRetry builds a TurboRetry without jitter, logging into buf
func newTestTurboRetry(cfg retry.Config, buf *bytes.Buffer, sleeper *sleepRecorder, events chan *RetryEvent) *TurboRetry {
	tr, err := New(Options{
		Config:     cfg,
		Logger:     logger.NewWriterLogger(buf),
		Calculator: retry.Calculator{Rand: func() float64 { return 0.5 }},
		Sleep:      sleeper.Sleep,
		EventChan:  events,
	})
	if err != nil {
		panic(err)
	}
	return tr
}

func lines(buf *bytes.Buffer) []string {
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func drain(ch chan *RetryEvent) []*RetryEvent {
	var events []*RetryEvent
	for {
		select {
		case e := <-ch:
			events = append(events, e)
		default:
			return events
		}
	}
}

func countPrefix(ls []string, prefix string) int {
	n := 0
	for _, l := range ls {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
