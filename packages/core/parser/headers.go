package parser

import (
	"strings"
)

const (
	headerContentType        = "content-type"
	headerAuthorization      = "authorization"
	headerContentDisposition = "content-disposition"
)

// foldKey is the single case-folding rule for header names and parameter
// keys.
func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func headerIs(key, name string) bool {
	return foldKey(key) == foldKey(name)
}

// lineHasHeader reports whether a raw header line starts with the given
// (lower-case) header name.
func lineHasHeader(line, name string) bool {
	return strings.HasPrefix(foldKey(line), name)
}

// HeaderSection is the result of parsing the block between the request line
// and the body.
type HeaderSection struct {
	ContentType    string
	HasContentType bool
	Auth           *Auth
	Headers        Headers
}

// ParseHeaders parses top-level header lines. Content-Type and recognised
// Authorization values are diverted out of the ordinary header set.
func ParseHeaders(lines []Line) (*HeaderSection, error) {
	section := &HeaderSection{}

	for _, line := range lines {
		if isBlank(line.Text) {
			continue
		}

		key, value, ok := strings.Cut(line.Text, ":")
		if !ok {
			return nil, newParseError(ErrInvalidHeader, line.Num, line.Text)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case headerIs(key, headerContentType):
			section.ContentType = value
			section.HasContentType = true
			continue
		case headerIs(key, headerAuthorization):
			auth, err := ResolveAuth(value)
			if err != nil {
				if pe, ok := err.(*ParseError); ok {
					pe.Line = line.Num
				}
				return nil, err
			}
			if auth != nil {
				section.Auth = auth
				continue
			}
		}

		section.Headers.Set(key, value, line.Num)
	}

	return section, nil
}
