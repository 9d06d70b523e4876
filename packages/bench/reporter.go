package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter handles output for benchmark runs
type Reporter struct {
	writer  io.Writer
	noColor bool
	json    bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithJSON prints the summary as a JSON document and suppresses the header.
func WithJSON(enabled bool) ReporterOption {
	return func(r *Reporter) {
		r.json = enabled
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.green = r.newColor(color.FgGreen)
	r.red = r.newColor(color.FgRed)
	r.yellow = r.newColor(color.FgYellow)
	r.cyan = r.newColor(color.FgCyan)
	r.bold = r.newColor(color.Bold)
	return r
}

func (r *Reporter) newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if r.noColor {
		c.DisableColor()
	}
	return c
}

func (r *Reporter) Header(config *Config) {
	if r.json {
		return
	}

	details := []string{fmt.Sprintf("Requests: %d", config.Requests)}
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %s req/s", formatFloat(config.Rate)))
	} else {
		details = append(details, "Rate: unpaced")
	}
	details = append(details, fmt.Sprintf("Concurrency: %d", config.Concurrency))

	r.cyan.Fprintln(r.writer, strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

func (r *Reporter) Summary(summary *Summary, thresholds []ThresholdResult) {
	if r.json {
		_ = r.JSONSummary(summary, thresholds)
		return
	}

	r.bold.Fprintln(r.writer, "BENCHMARK SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(summary.Total))
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Errors:     ")
	if summary.Errors > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(summary.Errors))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(summary.Errors))
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.ErrorRate*100)

	if len(summary.Statuses) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "STATUS CODES")
		for _, code := range summary.StatusCodes() {
			fmt.Fprint(r.writer, "  ")
			r.statusColor(code).Fprintf(r.writer, "%d", code)
			fmt.Fprintf(r.writer, " %-22s %s\n", http.StatusText(code), formatNumber(summary.Statuses[code]))
		}
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-6s | max: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.Max))
	fmt.Fprintf(r.writer, "  p50: %-6s | p90: %-6s  | p99: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P90),
		formatLatencyMs(summary.P99))

	if len(thresholds) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		allPassed := true
		for _, tr := range thresholds {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
				allPassed = false
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}

		fmt.Fprintln(r.writer)
		if allPassed {
			r.green.Fprintln(r.writer, "All thresholds passed!")
		} else {
			r.red.Fprintln(r.writer, "Some thresholds failed!")
		}
	}
}

func (r *Reporter) statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return r.red
	case code >= 400:
		return r.yellow
	case code >= 300:
		return r.cyan
	default:
		return r.green
	}
}

type jsonSummary struct {
	Duration   string             `json:"duration"`
	Total      int64              `json:"total"`
	Errors     int64              `json:"errors"`
	RPS        float64            `json:"rps"`
	ErrorRate  float64            `json:"errorRate"`
	Statuses   map[string]int64   `json:"statuses"`
	LatencyMs  map[string]float64 `json:"latencyMs"`
	Thresholds []ThresholdResult  `json:"thresholds,omitempty"`
}

// JSONSummary outputs the summary as JSON
func (r *Reporter) JSONSummary(summary *Summary, thresholds []ThresholdResult) error {
	statuses := make(map[string]int64, len(summary.Statuses))
	for code, n := range summary.Statuses {
		statuses[fmt.Sprint(code)] = n
	}

	out := jsonSummary{
		Duration:  summary.Duration.String(),
		Total:     summary.Total,
		Errors:    summary.Errors,
		RPS:       summary.RPS,
		ErrorRate: summary.ErrorRate,
		Statuses:  statuses,
		LatencyMs: map[string]float64{
			"min":  toMs(summary.Min),
			"mean": toMs(summary.Mean),
			"p50":  toMs(summary.P50),
			"p90":  toMs(summary.P90),
			"p99":  toMs(summary.P99),
			"max":  toMs(summary.Max),
		},
		Thresholds: thresholds,
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func toMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatencyMs(d time.Duration) string {
	ms := toMs(d)
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with thousands separators
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}

	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	start := len(s) % 3
	if start == 0 {
		start = 3
	}
	result = append(result, s[:start]...)
	for i := start; i < len(s); i += 3 {
		result = append(result, ',')
		result = append(result, s[i:i+3]...)
	}
	return string(result)
}
