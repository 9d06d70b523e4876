package parser

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const (
	requestSeparator = "###"
	nameAnnotation   = "@name"
)

var methods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
	"CONNECT": true,
	"TRACE":   true,
}

// Line is one line of input with its 1-based position in the source.
type Line struct {
	Num  int
	Text string
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

// Parse parses every request in input. File references are resolved relative
// to the directory of filename.
func Parse(input, filename string) (*File, error) {
	file := &File{Path: filename}
	baseDir := baseDirOf(filename)

	for _, chunk := range splitRequests(splitLines(input)) {
		if isBlankLines(stripComments(chunk.lines)) {
			continue
		}

		req, err := parseRequest(chunk.lines, baseDir)
		if err != nil {
			_ = file.Close()
			return nil, withFile(err, filename)
		}
		if chunk.name != "" {
			req.Name = chunk.name
		}
		file.Requests = append(file.Requests, req)
	}

	if len(file.Requests) == 0 {
		return nil, withFile(newParseError(ErrEmptyRequest, 0, ""), filename)
	}

	return file, nil
}

// ParseRequest parses a single request. Separator lines are treated as
// ordinary comments.
func ParseRequest(raw, baseDir string) (*Request, error) {
	return parseRequest(splitLines(raw), baseDir)
}

func parseRequest(lines []Line, baseDir string) (*Request, error) {
	name := nameFromAnnotations(lines)

	lines = stripComments(lines)
	if isBlankLines(lines) {
		return nil, newParseError(ErrEmptyRequest, 0, "")
	}

	start := firstNonBlank(lines)
	if start < 0 {
		return nil, newParseError(ErrNoRequestLine, 0, "")
	}
	reqLine := lines[start]

	req, err := parseRequestLine(reqLine)
	if err != nil {
		return nil, err
	}
	req.Name = name

	headerLines, bodyLines := splitHeadBody(lines[start+1:])
	bodyLines = trimTrailingBlank(bodyLines)

	section, err := ParseHeaders(headerLines)
	if err != nil {
		return nil, err
	}
	req.Headers = section.Headers
	req.Auth = section.Auth
	req.ContentType = section.ContentType

	body := joinLines(bodyLines)
	switch {
	case section.HasContentType:
		req.Body, err = DispatchBody(section.ContentType, body, baseDir)
	case body != "":
		req.Body = &Body{Type: BodyRaw, Raw: []byte(body)}
	}
	if err != nil {
		return nil, atBodyLine(err, bodyLines)
	}

	return req, nil
}

func parseRequestLine(line Line) (*Request, error) {
	parts := strings.Fields(line.Text)
	if len(parts) < 2 {
		return nil, newParseError(ErrNotEnoughParts, line.Num, line.Text)
	}

	method := parts[0]
	if !methods[method] {
		return nil, newParseError(ErrInvalidMethod, line.Num, method)
	}

	u, err := url.Parse(parts[1])
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, newParseError(ErrInvalidURL, line.Num, parts[1])
	}

	version := DefaultVersion(u)
	if len(parts) > 2 {
		version = ParseVersion(parts[2])
	}

	return &Request{
		Method:  method,
		URL:     u,
		Version: version,
		Line:    line.Num,
	}, nil
}

// splitHeadBody splits at the first blank line. Without one, everything is
// header.
func splitHeadBody(lines []Line) ([]Line, []Line) {
	for i, l := range lines {
		if isBlank(l.Text) {
			return lines[:i], lines[i+1:]
		}
	}
	return lines, nil
}

func trimTrailingBlank(lines []Line) []Line {
	for len(lines) > 0 && isBlank(lines[len(lines)-1].Text) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type requestChunk struct {
	name  string
	lines []Line
}

func splitRequests(lines []Line) []requestChunk {
	chunks := []requestChunk{{}}
	for _, l := range lines {
		if strings.HasPrefix(l.Text, requestSeparator) {
			name := strings.TrimSpace(strings.TrimLeft(l.Text, "#"))
			chunks = append(chunks, requestChunk{name: name})
			continue
		}
		cur := &chunks[len(chunks)-1]
		cur.lines = append(cur.lines, l)
	}
	return chunks
}

func splitLines(input string) []Line {
	input = normalizeNewlines(input)
	input = strings.TrimSuffix(input, "\n")

	texts := strings.Split(input, "\n")
	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Num: i + 1, Text: t}
	}
	return lines
}

// stripComments removes comment lines wherever they appear, body included.
func stripComments(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if isComment(l.Text) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func isComment(text string) bool {
	return strings.HasPrefix(text, "//") || strings.HasPrefix(text, "#")
}

// nameFromAnnotations returns the value of a "# @name" comment.
func nameFromAnnotations(lines []Line) string {
	for _, l := range lines {
		if !isComment(l.Text) {
			continue
		}
		text := strings.TrimSpace(strings.TrimLeft(l.Text, "/#"))
		if rest, ok := strings.CutPrefix(text, nameAnnotation); ok && (rest == "" || rest[0] == ' ' || rest[0] == '=') {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), "="))
		}
	}
	return ""
}

func firstNonBlank(lines []Line) int {
	for i, l := range lines {
		if !isBlank(l.Text) {
			return i
		}
	}
	return -1
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isBlankLines(lines []Line) bool {
	return firstNonBlank(lines) < 0
}

func joinLines(lines []Line) string {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func baseDirOf(filename string) string {
	if filename == "" {
		return "."
	}
	return filepath.Dir(filename)
}

// atBodyLine maps a body-relative line number onto the source file. Lines in
// the body may have had comments removed, so the mapping goes through the
// original line numbers.
func atBodyLine(err error, bodyLines []Line) error {
	var pe *ParseError
	if !errors.As(err, &pe) || len(bodyLines) == 0 {
		return err
	}
	idx := pe.Line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bodyLines) {
		idx = len(bodyLines) - 1
	}
	pe.Line = bodyLines[idx].Num
	return err
}

func withFile(err error, filename string) error {
	var pe *ParseError
	if filename != "" && errors.As(err, &pe) && pe.File == "" {
		pe.File = filename
	}
	return err
}

func closeRequests(reqs []*Request) error {
	var result *multierror.Error
	for _, r := range reqs {
		if err := r.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing %s %s: %w", r.Method, r.URL, err))
		}
	}
	return result.ErrorOrNil()
}
