package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/httper/httper/packages/core/env"
	"github.com/httper/httper/packages/core/parser"
	"github.com/httper/httper/packages/history"
	"github.com/httper/httper/packages/http"
	"github.com/httper/httper/packages/logging"
	"github.com/httper/httper/packages/save"
)

// SystemVariablePrefix marks process environment variables that are exposed
// as request variables, e.g. HTTPER_VAR_host becomes {{host}}.
const SystemVariablePrefix = "HTTPER_VAR_"

// Sender executes one parsed request. *http.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, req *parser.Request) (*http.Response, error)
}

type Config struct {
	Environment string
	EnvFile     string
	// NameFilter selects requests by name; a leading or trailing * matches a
	// suffix or prefix.
	NameFilter string
	Bail       bool
	// Save writes every response body into SaveDir under a generated name.
	Save    bool
	SaveDir string
	// OutputFile receives the body of every response, the last one winning.
	OutputFile string
	ConfigEnvs map[string]map[string]any
	Variables  map[string]any
}

type Runner struct {
	client   Sender
	config   *Config
	history  *history.Store
	logger   *slog.Logger
	onResult func(*RequestResult)
}

type Option func(*Runner)

func WithClient(client Sender) Option {
	return func(r *Runner) {
		r.client = client
	}
}

// WithHistory records every exchange in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithResultHandler calls fn after each request completes, before the next
// one is sent.
func WithResultHandler(fn func(*RequestResult)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{config: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logging.Discard()
	}
	if r.client == nil {
		r.client = http.NewClient(http.WithLogger(r.logger))
	}
	return r
}

type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Sent     int
	Failed   int
	Skipped  int
}

// Err returns the first request error, or nil when every request succeeded.
func (r *RunResult) Err() error {
	for _, res := range r.Results {
		if res.Error != nil {
			return res.Error
		}
	}
	return nil
}

// RequestResult is the outcome of one request. Error is set when no response
// arrived or the response could not be saved; HTTP error statuses are not
// failures.
type RequestResult struct {
	Name     string
	Request  *parser.Request
	Response *http.Response
	Duration time.Duration
	SavedTo  string
	Error    error
}

// LoadResolver builds the variable resolver for request files in dir. Sources
// are merged in order: the selected environment, HTTPER_VAR_* process
// variables, then Config.Variables.
func (r *Runner) LoadResolver(dir string) (*env.Resolver, error) {
	if err := r.loadDotEnv(dir); err != nil {
		return nil, err
	}

	environment, err := env.LoadEnvironment(dir, r.config.Environment, r.config.ConfigEnvs)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	resolver := env.NewResolver()
	resolver.SetWarnFunc(logging.WarnFunc(r.logger))
	resolver.SetVariables(env.MergeVariables(
		environment.Variables,
		env.LoadSystemEnv(SystemVariablePrefix),
		r.config.Variables,
	))
	return resolver, nil
}

// loadDotEnv exports Config.EnvFile, or the .env next to the request file
// when it exists.
func (r *Runner) loadDotEnv(dir string) error {
	path := r.config.EnvFile
	if path == "" {
		path = filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	vars, err := env.LoadAndExportDotEnv(path)
	if err != nil {
		return err
	}
	r.logger.Debug("loaded env file", "path", path, "variables", len(vars))
	return nil
}

// RunFile sends the requests of the file at path in order. Parse and
// environment errors abort the run before anything is sent.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	resolver, err := r.LoadResolver(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	file, err := parser.Parse(resolver.Resolve(string(data)), path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	defer file.Close()

	return r.runRequests(ctx, file), nil
}

func (r *Runner) runRequests(ctx context.Context, file *parser.File) *RunResult {
	start := time.Now()
	result := &RunResult{File: file.Path}

	for _, req := range file.Requests {
		if !MatchesName(req.Name, r.config.NameFilter) {
			result.Skipped++
			continue
		}
		if ctx.Err() != nil || (r.config.Bail && result.Failed > 0) {
			result.Skipped++
			continue
		}

		reqResult := r.runRequest(ctx, file.Path, req)
		result.Results = append(result.Results, reqResult)
		result.Sent++
		if reqResult.Error != nil {
			result.Failed++
		}

		if r.onResult != nil {
			r.onResult(reqResult)
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runRequest(ctx context.Context, path string, req *parser.Request) *RequestResult {
	result := &RequestResult{
		Name:    req.Name,
		Request: req,
	}

	start := time.Now()
	resp, err := r.client.Send(ctx, req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		r.record(ctx, path, result)
		return result
	}
	result.Response = resp
	result.Duration = resp.Duration

	if saved, err := r.save(resp); err != nil {
		result.Error = err
	} else {
		result.SavedTo = saved
	}

	r.record(ctx, path, result)
	return result
}

func (r *Runner) save(resp *http.Response) (string, error) {
	if r.config.OutputFile != "" {
		if err := save.SaveTo(r.config.OutputFile, resp); err != nil {
			return "", err
		}
		return r.config.OutputFile, nil
	}
	if !r.config.Save {
		return "", nil
	}

	dir := r.config.SaveDir
	if dir == "" {
		dir = "."
	}
	return save.NewSaver(dir).Save(resp)
}

func (r *Runner) record(ctx context.Context, path string, res *RequestResult) {
	if r.history == nil {
		return
	}

	entry := &history.Entry{
		SentAt:   time.Now().Add(-res.Duration),
		File:     path,
		Name:     res.Name,
		Method:   res.Request.Method,
		URL:      res.Request.URL.String(),
		Duration: res.Duration,
		SavedTo:  res.SavedTo,
	}
	if res.Response != nil {
		entry.Status = res.Response.StatusCode
		entry.Size = int64(len(res.Response.Body))
	}
	if res.Error != nil {
		entry.Error = res.Error.Error()
	}

	if _, err := r.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warn("recording history failed", "error", err)
	}
}

// MatchesName reports whether name matches a filter pattern. An empty pattern
// matches everything; a "*" at either end matches any prefix or suffix.
func MatchesName(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	if pattern == "*" {
		return name != ""
	}

	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}

// IsParseError reports whether err came from parsing a request file.
func IsParseError(err error) bool {
	var pe *parser.ParseError
	return errors.As(err, &pe)
}
