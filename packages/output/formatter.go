package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/httper/httper/packages/core/runner"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Formatter interface {
	FormatRequest(res *runner.RequestResult)
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	Flush() error
}

type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	// Query prints a single value extracted from each response instead of
	// the response itself.
	Query string
}

// NewFormatter returns the formatter registered under format.
func NewFormatter(format string, opts Options) (Formatter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "", FormatConsole:
		return NewConsoleFormatter(
			WithWriter(opts.Writer),
			WithVerbose(opts.Verbose),
			WithNoColor(opts.NoColor),
			WithQuery(opts.Query),
		), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(opts.Writer)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected %s or %s)", format, FormatConsole, FormatJSON)
	}
}

// ColorEnabled reports whether output to f should be colored: never with
// noColor or NO_COLOR set, otherwise only on a terminal.
func ColorEnabled(f *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
