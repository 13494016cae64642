package main

import (
	"fmt"
	"os"
	"time"

	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/FrenchMajesty/turbo-retry/utils/retry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// policyFlags are the retry knobs shared by every subcommand
type policyFlags struct {
	configPath     string
	maxRetries     int
	initialDelayMs int64
	maxDelayMs     int64
	jitterFactor   float64
	logRateLimits  bool
}

var policy policyFlags

var rootCmd = &cobra.Command{
	Use:           "turbo-retry",
	Short:         "Call the Anthropic API with rate limit aware retries",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved retry policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvePolicy(cmd)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&policy.configPath, "config", "", "YAML retry policy file")
	flags.IntVar(&policy.maxRetries, "max-retries", retry.DefaultMaxRetries, "retries after the first attempt")
	flags.Int64Var(&policy.initialDelayMs, "initial-delay-ms", retry.DefaultInitialDelay.Milliseconds(), "base backoff delay")
	flags.Int64Var(&policy.maxDelayMs, "max-delay-ms", retry.DefaultMaxDelay.Milliseconds(), "upper bound on any delay")
	flags.Float64Var(&policy.jitterFactor, "jitter-factor", retry.DefaultJitterFactor, "relative jitter in [0,1)")
	flags.BoolVar(&policy.logRateLimits, "log-rate-limits", true, "log rate limit events")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(messagesCmd)
}

// resolvePolicy layers defaults < file < environment < explicitly set flags
func resolvePolicy(cmd *cobra.Command) (retry.Config, error) {
	cfg, err := retry.Resolve(policy.configPath, os.LookupEnv)
	if err != nil {
		return retry.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-retries") {
		cfg.MaxRetries = policy.maxRetries
	}
	if flags.Changed("initial-delay-ms") {
		cfg.InitialDelay = time.Duration(policy.initialDelayMs) * time.Millisecond
	}
	if flags.Changed("max-delay-ms") {
		cfg.MaxDelay = time.Duration(policy.maxDelayMs) * time.Millisecond
	}
	if flags.Changed("jitter-factor") {
		cfg.JitterFactor = policy.jitterFactor
	}
	if flags.Changed("log-rate-limits") {
		cfg.LogRateLimits = policy.logRateLimits
	}

	if err := cfg.Validate(); err != nil {
		return retry.Config{}, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.NewStdoutLogger().Printf("Error: %v", err)
		os.Exit(1)
	}
}
