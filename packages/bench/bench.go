package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/httper/httper/packages/core/parser"
	"github.com/httper/httper/packages/http"
	"github.com/httper/httper/packages/logging"
)

// Sender executes one parsed request. *http.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, req *parser.Request) (*http.Response, error)
}

// RequestFactory produces a freshly parsed request for every iteration, so
// multipart file handles are never shared between sends.
type RequestFactory func() (*parser.Request, error)

// Runner executes a benchmark
type Runner struct {
	config   *Config
	factory  RequestFactory
	sender   Sender
	reporter *Reporter
	logger   *slog.Logger
	metrics  *Metrics
}

type RunnerOption func(*Runner)

func WithSender(s Sender) RunnerOption {
	return func(r *Runner) {
		r.sender = s
	}
}

func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(config *Config, factory RequestFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:  config,
		factory: factory,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.sender == nil {
		r.sender = http.NewClient()
	}
	if r.reporter == nil {
		r.reporter = NewReporter(WithWriter(os.Stdout))
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// Result holds the final result of a run
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

// Run sends Config.Requests requests, paced by Config.Rate and bounded by
// Config.Concurrency, and prints the summary. Cancelling ctx stops issuing
// new requests; the summary covers what completed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}
	sem := make(chan struct{}, r.config.Concurrency)

	r.reporter.Header(r.config)
	r.metrics.Start()

	var wg sync.WaitGroup
issue:
	for i := 0; i < r.config.Requests; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break issue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.execute(ctx)
		}()
	}
	wg.Wait()
	r.metrics.Stop()

	summary := r.metrics.Summary()
	result := &Result{Summary: summary, Passed: true}
	if r.config.Thresholds.HasThresholds() {
		result.Thresholds = r.config.Thresholds.Evaluate(summary)
		for _, tr := range result.Thresholds {
			if !tr.Passed {
				result.Passed = false
			}
		}
	}

	r.reporter.Summary(summary, result.Thresholds)
	return result, nil
}

func (r *Runner) execute(ctx context.Context) {
	req, err := r.factory()
	if err != nil {
		r.logger.Warn("building request failed", "error", err)
		r.metrics.RecordError()
		return
	}

	resp, err := r.sender.Send(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Debug("request failed", "error", err)
		}
		r.metrics.RecordError()
		return
	}
	r.metrics.RecordResponse(resp.StatusCode, resp.Duration)
}

// HasThresholdFailures returns true if any thresholds failed
func (r *Result) HasThresholdFailures() bool {
	return !r.Passed
}
