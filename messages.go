package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/FrenchMajesty/turbo-retry/clients/anthropic"
	"github.com/FrenchMajesty/turbo-retry/rate_limit/backends/memory"
	"github.com/FrenchMajesty/turbo-retry/turbo_retry"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/FrenchMajesty/turbo-retry/utils/token_counter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type messagesFlags struct {
	prompt      string
	system      string
	model       string
	maxTokens   int
	baseURL     string
	repeat      int
	logFormat   string
	logFile     string
	metricsAddr string
}

var msgFlags messagesFlags

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Send a Messages API request, retrying on 429",
	RunE:  runMessages,
}

func init() {
	flags := messagesCmd.Flags()
	flags.StringVar(&msgFlags.prompt, "prompt", "", "user message (required)")
	flags.StringVar(&msgFlags.system, "system", "", "system prompt")
	flags.StringVar(&msgFlags.model, "model", "claude-sonnet-4-5", "model name")
	flags.IntVar(&msgFlags.maxTokens, "max-tokens", 1024, "maximum output tokens")
	flags.StringVar(&msgFlags.baseURL, "base-url", anthropic.DefaultBaseURL, "API base URL")
	flags.IntVar(&msgFlags.repeat, "repeat", 1, "send the request N times concurrently")
	flags.StringVar(&msgFlags.logFormat, "log-format", "text", "rate limit log format: text or json")
	flags.StringVar(&msgFlags.logFile, "log-file", "", "also append text logs to this file")
	flags.StringVar(&msgFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	messagesCmd.MarkFlagRequired("prompt")
}

func runMessages(cmd *cobra.Command, args []string) error {
	cfg, err := resolvePolicy(cmd)
	if err != nil {
		return err
	}
	if msgFlags.repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", msgFlags.repeat)
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return errors.New("ANTHROPIC_API_KEY is not set")
	}

	l, err := newLogger(msgFlags.logFormat, msgFlags.logFile)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := turbo_retry.Options{
		Config:  cfg,
		Logger:  l,
		Backend: memory.NewBackend(),
	}

	if msgFlags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.Metrics, err = turbo_retry.NewMetrics(reg)
		if err != nil {
			return err
		}
		shutdown := serveMetrics(msgFlags.metricsAddr, reg, l)
		defer shutdown()
	}

	tr, err := turbo_retry.New(opts)
	if err != nil {
		return err
	}

	clientOpts := []anthropic.Option{
		anthropic.WithBaseURL(msgFlags.baseURL),
		anthropic.WithLogger(l),
	}
	if counter, err := token_counter.NewTokenCounter(); err == nil {
		clientOpts = append(clientOpts, anthropic.WithTokenCounter(counter))
	} else {
		l.Printf("token estimates disabled: %v", err)
	}
	client := anthropic.NewClient(apiKey, tr, clientOpts...)

	req := anthropic.MessagesRequest{
		Model:     msgFlags.model,
		MaxTokens: msgFlags.maxTokens,
		System:    msgFlags.system,
		Messages:  []anthropic.Message{{Role: anthropic.MessageRoleUser, Content: msgFlags.prompt}},
	}

	out := cmd.OutOrStdout()
	defer func() {
		s := tr.Stats()
		l.Printf("calls=%d attempts=%d rate_limited=%d retries=%d succeeded=%d failed=%d",
			s.Calls, s.Attempts, s.RateLimited, s.Retries, s.Succeeded, s.Failed)
	}()

	if msgFlags.repeat == 1 {
		resp, err := client.CreateMessage(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, resp.Text())
		return nil
	}

	client.LogEstimate(req)
	calls := make(map[string]turbo_retry.Call, msgFlags.repeat)
	for i := 1; i <= msgFlags.repeat; i++ {
		calls[fmt.Sprintf("messages.create#%d", i)] = client.MessagesCall(req)
	}

	results := tr.ExecuteAll(ctx, calls)

	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failed int
	for _, key := range keys {
		resp, err := results.Get(key)
		if err == nil {
			var msg *anthropic.MessagesResponse
			if msg, err = anthropic.DecodeMessagesResponse(ctx, resp); err == nil {
				fmt.Fprintf(out, "[%s] %s\n", key, msg.Text())
				continue
			}
		}
		failed++
		fmt.Fprintf(out, "[%s] error: %v\n", key, err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(keys))
	}
	return nil
}

func newLogger(format, file string) (logger.Logger, error) {
	var base logger.Logger
	switch format {
	case "text":
		base = logger.NewStdoutLogger()
	case "json":
		zl, err := logger.NewProductionZapLogger()
		if err != nil {
			return nil, err
		}
		base = zl
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	if file == "" {
		return base, nil
	}
	fl, err := logger.NewFileLogger(file)
	if err != nil {
		return nil, err
	}
	return logger.NewMultiLogger(base, fl), nil
}

// serveMetrics exposes reg on addr until the returned func is called
func serveMetrics(addr string, reg *prometheus.Registry, l logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Printf("metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}
}
