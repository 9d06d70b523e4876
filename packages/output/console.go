package output

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/fatih/color"
	"github.com/tidwall/pretty"

	"github.com/httper/httper/packages/capture"
	"github.com/httper/httper/packages/core/runner"
	httperhttp "github.com/httper/httper/packages/http"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	query   string

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	blue   *color.Color
	bold   *color.Color
	faint  *color.Color
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.green = f.newColor(color.FgGreen)
	f.red = f.newColor(color.FgRed)
	f.yellow = f.newColor(color.FgYellow)
	f.cyan = f.newColor(color.FgCyan)
	f.blue = f.newColor(color.FgBlue)
	f.bold = f.newColor(color.Bold)
	f.faint = f.newColor(color.Faint)
	return f
}

func (f *ConsoleFormatter) newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if f.noColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func WithQuery(q string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.query = q
	}
}

func (f *ConsoleFormatter) FormatRequest(res *runner.RequestResult) {
	if f.query != "" {
		f.formatQuery(res)
		return
	}

	if f.verbose && res.Request != nil {
		f.formatRequestEcho(res)
	}

	if res.Response != nil {
		f.formatResponse(res)
	}

	if res.Error != nil {
		fmt.Fprintf(f.writer, "%s %s\n\n", f.red.Sprint("Error:"), res.Error)
	}
}

func (f *ConsoleFormatter) formatQuery(res *runner.RequestResult) {
	if res.Response == nil {
		if res.Error != nil {
			fmt.Fprintf(f.writer, "%s %s\n", f.red.Sprint("Error:"), res.Error)
		}
		return
	}

	value, ok := capture.Query(res.Response, f.query)
	if !ok {
		fmt.Fprintf(f.writer, "%s query %q matched nothing\n", f.yellow.Sprint("Warning:"), f.query)
		return
	}
	fmt.Fprintln(f.writer, value)
}

func (f *ConsoleFormatter) formatRequestEcho(res *runner.RequestResult) {
	req := res.Request
	if res.Name != "" {
		fmt.Fprintf(f.writer, "%s\n", f.faint.Sprint("### "+res.Name))
	}
	fmt.Fprintf(f.writer, "%s %s %s\n",
		f.bold.Sprint(req.Method),
		f.cyan.Sprint(req.URL.String()),
		f.blue.Sprint(req.Version.String()))
	for _, h := range req.Headers {
		fmt.Fprintf(f.writer, "%s: %s\n", h.Key, h.Value)
	}
	if req.ContentType != "" {
		fmt.Fprintf(f.writer, "Content-Type: %s\n", req.ContentType)
	}
	if req.Auth != nil {
		fmt.Fprintf(f.writer, "%s\n", f.faint.Sprintf("(%s auth)", req.Auth.Type))
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) formatResponse(res *runner.RequestResult) {
	resp := res.Response

	fmt.Fprintf(f.writer, "%s %s\n", f.blue.Sprint(resp.Proto), f.statusColor(resp).Sprint(statusText(resp)))

	if f.verbose {
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range resp.Headers[name] {
				fmt.Fprintf(f.writer, "%s: %s\n", f.faint.Sprint(name), value)
			}
		}
	}
	fmt.Fprintln(f.writer)

	if len(resp.Body) > 0 && (f.verbose || res.SavedTo == "") {
		f.formatBody(resp)
	}

	if res.SavedTo != "" {
		fmt.Fprintf(f.writer, "Response file saved.\n> %s\n\n", res.SavedTo)
	}

	fmt.Fprintln(f.writer, f.faint.Sprint(Summary(resp)))
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) formatBody(resp *httperhttp.Response) {
	body := resp.Body
	if resp.IsJSON() {
		body = pretty.Pretty(body)
		if !f.noColor {
			body = pretty.Color(body, nil)
		}
	}

	_, _ = f.writer.Write(body)
	if body[len(body)-1] != '\n' {
		fmt.Fprintln(f.writer)
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) statusColor(resp *httperhttp.Response) *color.Color {
	switch {
	case resp.IsSuccess():
		return f.green
	case resp.IsServerError():
		return f.red
	case resp.IsClientError():
		return f.yellow
	default:
		return f.cyan
	}
}

// FormatResult prints a tally when the run sent more than one request or
// skipped some.
func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	if f.query != "" || (result.Sent <= 1 && result.Skipped == 0) {
		return
	}

	fmt.Fprintf(f.writer, "%s ", f.bold.Sprint(result.File+":"))
	fmt.Fprintf(f.writer, "%d sent", result.Sent)
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, ", %s", f.red.Sprintf("%d failed", result.Failed))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, ", %s", f.yellow.Sprintf("%d skipped", result.Skipped))
	}
	fmt.Fprintf(f.writer, " in %s\n", formatDuration(result.Duration))
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", f.red.Sprint("Error:"), err)
}

func (f *ConsoleFormatter) Flush() error {
	return nil
}

// Summary renders the one-line response summary.
func Summary(resp *httperhttp.Response) string {
	return fmt.Sprintf("Response code: %s; Time: %s; Content length: %s",
		statusText(resp),
		formatDuration(resp.Duration),
		bytefmt.ByteSize(uint64(len(resp.Body))))
}

// statusText returns "200 OK", deriving the reason phrase when the server
// sent none.
func statusText(resp *httperhttp.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
