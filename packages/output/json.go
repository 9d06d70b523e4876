package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/httper/httper/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	File      string         `json:"file,omitempty"`
	Summary   JSONSummary    `json:"summary"`
	Exchanges []JSONExchange `json:"exchanges"`
	Errors    []string       `json:"errors,omitempty"`
	Duration  float64        `json:"duration"`
	Time      string         `json:"time"`
}

type JSONSummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type JSONExchange struct {
	Name     string        `json:"name,omitempty"`
	Duration float64       `json:"duration"`
	Error    string        `json:"error,omitempty"`
	SavedTo  string        `json:"savedTo,omitempty"`
	Request  *JSONRequest  `json:"request,omitempty"`
	Response *JSONResponse `json:"response,omitempty"`
}

type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Version string            `json:"version"`
	Headers map[string]string `json:"headers,omitempty"`
}

type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Proto      string              `json:"proto"`
	Headers    map[string][]string `json:"headers,omitempty"`
	// Body is embedded as JSON when the response is JSON, else as a string.
	Body json.RawMessage `json:"body,omitempty"`
	Size int             `json:"size"`
}

// JSONFormatter accumulates exchanges and writes them as one document on
// Flush.
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		output: JSONOutput{Exchanges: make([]JSONExchange, 0)},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatRequest(res *runner.RequestResult) {
	ex := JSONExchange{
		Name:     res.Name,
		Duration: float64(res.Duration.Milliseconds()),
		SavedTo:  res.SavedTo,
	}

	if res.Error != nil {
		ex.Error = res.Error.Error()
	}

	if req := res.Request; req != nil {
		ex.Request = &JSONRequest{
			Method:  req.Method,
			URL:     req.URL.String(),
			Version: req.Version.String(),
		}
		if len(req.Headers) > 0 {
			ex.Request.Headers = make(map[string]string, len(req.Headers))
			for _, h := range req.Headers {
				ex.Request.Headers[h.Key] = h.Value
			}
		}
	}

	if resp := res.Response; resp != nil {
		ex.Response = &JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Proto:      resp.Proto,
			Headers:    resp.Headers,
			Size:       len(resp.Body),
		}
		if len(resp.Body) > 0 {
			ex.Response.Body = encodeBody(resp.Body)
		}
	}

	f.output.Exchanges = append(f.output.Exchanges, ex)
}

func encodeBody(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, _ := json.Marshal(string(body))
	return encoded
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.output.File = result.File
	f.output.Summary.Sent += result.Sent
	f.output.Summary.Failed += result.Failed
	f.output.Summary.Skipped += result.Skipped
	f.output.Duration += float64(result.Duration.Milliseconds())
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Errors = append(f.output.Errors, err.Error())
}

// Flush writes the accumulated JSON output and resets the formatter.
func (f *JSONFormatter) Flush() error {
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(f.output)

	f.output = JSONOutput{Exchanges: make([]JSONExchange, 0)}
	return err
}
