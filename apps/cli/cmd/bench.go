package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/bench"
	"github.com/httper/httper/packages/core/runner"
	"github.com/httper/httper/packages/output"
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Send one request repeatedly and report latency",
	Long: `Send one request from a .http file many times and print the status
code distribution and latency percentiles. Variables are resolved again
for every request, so {{$uuid}} and friends differ between iterations.

Examples:
  httper bench api.http -n 500
  httper bench api.http --name login -n 1000 --rate 50 -c 10
  httper bench api.http -n 200 --threshold "p90<200ms,errors<1%"
  httper bench api.http -n 100 --json`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchRateFlag        float64
	benchConcurrencyFlag int
	benchNameFlag        string
	benchThresholdFlag   string
	benchJSONFlag        bool
)

func init() {
	flags := benchCmd.Flags()
	flags.IntVarP(&benchRequestsFlag, "requests", "n", getEnvInt("HTTPER_BENCH_REQUESTS", 100), "Number of requests to send (env: HTTPER_BENCH_REQUESTS)")
	flags.Float64Var(&benchRateFlag, "rate", getEnvFloat("HTTPER_BENCH_RATE", 0), "Requests per second, 0 for unpaced (env: HTTPER_BENCH_RATE)")
	flags.IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("HTTPER_BENCH_CONCURRENCY", 1), "Maximum requests in flight (env: HTTPER_BENCH_CONCURRENCY)")
	flags.StringVar(&benchNameFlag, "name", "", "Name of the request to send (default: first request)")
	flags.StringVar(&benchThresholdFlag, "threshold", "", "Pass/fail thresholds, e.g. \"p90<200ms,errors<1%\"")
	flags.BoolVar(&benchJSONFlag, "json", false, "Print the summary as JSON")
	flags.StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return usageError(fmt.Errorf("cannot access %s: %w", path, err))
	}

	thresholds, err := bench.ParseThresholds(benchThresholdFlag)
	if err != nil {
		return usageError(err)
	}
	benchConfig := &bench.Config{
		Requests:    benchRequestsFlag,
		Rate:        benchRateFlag,
		Concurrency: benchConcurrencyFlag,
		Thresholds:  thresholds,
	}
	if err := benchConfig.Validate(); err != nil {
		return usageError(err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vars, err := splitVars(varFlags)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	client := newClient(cfg, logger)
	defer client.CloseIdleConnections()

	resolver, err := runner.NewRunner(runnerConfig(cfg, vars), runner.WithLogger(logger)).
		LoadResolver(filepath.Dir(path))
	if err != nil {
		return err
	}

	factory, err := bench.FileRequestFactory(path, benchNameFlag, resolver.Resolve)
	if err != nil {
		return err
	}
	// Unresolved variables were reported while building the first request.
	resolver.SetWarnFunc(nil)

	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(cfg.GetNoColor() || !output.ColorEnabled(os.Stdout, false)),
		bench.WithJSON(benchJSONFlag),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := bench.NewRunner(benchConfig, factory,
		bench.WithSender(client),
		bench.WithReporter(reporter),
		bench.WithLogger(logger),
	).Run(ctx)
	if err != nil {
		return err
	}

	if result.HasThresholdFailures() {
		return &exitError{code: ExitFailure, err: errors.New("thresholds not met"), reported: true}
	}
	return nil
}
