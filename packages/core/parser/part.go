package parser

import (
	"strings"
)

// PartHeaders is what the header block of one multipart segment declares.
type PartHeaders struct {
	Headers  map[string]string
	Name     string
	Filename string
}

// ExtractPartHeaders reads the header lines of a multipart segment.
// Content-Type lines are ignored, the name and filename come from
// Content-Disposition, and every other line is kept verbatim.
func ExtractPartHeaders(lines []Line) (PartHeaders, error) {
	ph := PartHeaders{Headers: make(map[string]string)}

	for _, line := range lines {
		if lineHasHeader(line.Text, headerContentType) {
			continue
		}

		key, value, ok := strings.Cut(line.Text, ":")
		if !ok {
			return PartHeaders{}, newParseError(ErrInvalidHeader, line.Num, line.Text)
		}

		if headerIs(key, headerContentDisposition) {
			ph = ph.withDisposition(value)
			continue
		}

		ph.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return ph, nil
}

func (ph PartHeaders) withDisposition(value string) PartHeaders {
	for _, param := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		v = unquote(strings.TrimSpace(v))
		switch foldKey(k) {
		case "name":
			ph.Name = v
		case "filename":
			ph.Filename = v
		}
	}
	return ph
}

// unquote strips one layer of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
