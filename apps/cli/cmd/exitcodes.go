package cmd

import (
	"errors"
	"net"
	"net/url"

	"github.com/httper/httper/packages/core/config"
	"github.com/httper/httper/packages/core/env"
	"github.com/httper/httper/packages/core/runner"
)

// Exit codes for httper CLI
const (
	// ExitSuccess indicates every request got a response
	ExitSuccess = 0

	// ExitFailure indicates a failure with no more specific code
	ExitFailure = 1

	// ExitParseError indicates a request file parsing error
	ExitParseError = 2

	// ExitConfigError indicates a configuration or environment error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an explicit exit code. reported marks errors the
// command already printed.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

func configError(err error) error {
	return &exitError{code: ExitConfigError, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) && ee.code != 0 {
		return ee.code
	}

	var urlErr *url.Error
	var netErr net.Error
	switch {
	case runner.IsParseError(err):
		return ExitParseError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, env.ErrUnknownEnvironment):
		return ExitConfigError
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return ExitNetworkError
	}
	return ExitFailure
}
