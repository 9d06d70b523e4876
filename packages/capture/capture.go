package capture

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/httper/httper/packages/http"
)

const headerPrefix = "header."

// Extractor pulls single values out of a response for --query.
type Extractor struct {
	response *http.Response
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	if resp.IsJSON() || gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.isJSON = true
	}
	return e
}

// Extract evaluates a query. "status", "duration" and "header.<Name>" read
// response metadata; "body" or "" returns the whole body; anything else is a
// gjson path into a JSON body.
func (e *Extractor) Extract(query string) (string, bool) {
	query = strings.TrimSpace(query)

	switch {
	case query == "status":
		return strconv.Itoa(e.response.StatusCode), true
	case query == "duration":
		return strconv.FormatInt(e.response.DurationMs(), 10), true
	case strings.HasPrefix(query, headerPrefix):
		return e.extractFromHeader(strings.TrimPrefix(query, headerPrefix))
	case query == "" || query == "body":
		return e.response.BodyString(), true
	default:
		return e.extractFromBody(query)
	}
}

func (e *Extractor) extractFromBody(path string) (string, bool) {
	if !e.isJSON {
		return "", false
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return "", false
	}
	if result.Type == gjson.String {
		return result.Str, true
	}
	return result.Raw, true
}

func (e *Extractor) extractFromHeader(name string) (string, bool) {
	values := e.response.Headers.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ", "), true
}

// Query is a shorthand for NewExtractor(resp).Extract(query).
func Query(resp *http.Response, query string) (string, bool) {
	return NewExtractor(resp).Extract(query)
}
