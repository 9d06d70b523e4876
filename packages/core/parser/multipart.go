package parser

import (
	"slices"
	"strings"
)

// AssembleForm builds a Form from a multipart/form-data body. The boundary
// comes from contentType and is only used to split the body. On error every
// file handle opened so far is closed.
func AssembleForm(contentType, body, baseDir string) (*Form, error) {
	boundary, ok := formBoundary(contentType)
	if !ok {
		return nil, newParseError(ErrFormDataBoundaryMissing, 0, contentType)
	}

	form := NewForm()
	for _, seg := range splitSegments(normalizeNewlines(body), "--"+boundary) {
		if isBlank(seg.text) || strings.HasPrefix(seg.text, "--") {
			continue
		}

		part, name, err := assemblePart(seg, baseDir)
		if err != nil {
			_ = form.Close()
			return nil, err
		}
		if part == nil {
			continue
		}
		form.Set(name, part)
	}

	return form, nil
}

// formBoundary finds the boundary parameter of a multipart content type.
func formBoundary(contentType string) (string, bool) {
	for _, param := range strings.Split(contentType, ";") {
		k, v, ok := strings.Cut(param, "=")
		if !ok || foldKey(k) != "boundary" {
			continue
		}
		if v = unquote(strings.TrimSpace(v)); v != "" {
			return v, true
		}
	}
	return "", false
}

type segment struct {
	text string
	line int
}

// splitSegments splits body on delim and records the body-relative line on
// which each segment starts.
func splitSegments(body, delim string) []segment {
	chunks := strings.Split(body, delim)
	segments := make([]segment, 0, len(chunks))
	line := 1
	for _, chunk := range chunks {
		segments = append(segments, segment{text: chunk, line: line})
		line += strings.Count(chunk, "\n")
	}
	return segments
}

// assemblePart returns a nil part for a segment that declares no headers at
// all.
func assemblePart(seg segment, baseDir string) (*FormPart, string, error) {
	scan := scanPart(seg)
	if len(scan.headers) == 0 {
		return nil, "", nil
	}

	ph, err := ExtractPartHeaders(scan.headers)
	if err != nil {
		return nil, "", err
	}
	if ph.Name == "" {
		return nil, "", newParseError(ErrFormPartNameMissing, scan.headers[0].Num, scan.headers[0].Text)
	}

	content, err := ResolveContent(scan.bodyText(), baseDir)
	if err != nil {
		return nil, "", err
	}

	return &FormPart{
		Content:  content,
		Filename: ph.Filename,
		Headers:  ph.Headers,
	}, ph.Name, nil
}

type scanState int

const (
	scanHeaders scanState = iota
	scanBody
)

// partScan is the accumulator threaded through the lines of one segment.
type partScan struct {
	state   scanState
	headers []Line
	body    []string
}

func scanPart(seg segment) partScan {
	var scan partScan
	for i, text := range strings.Split(seg.text, "\n") {
		scan = scan.step(Line{Num: seg.line + i, Text: text})
	}
	return scan
}

// step consumes one line. Blank lines before the first header are skipped;
// the first blank line after a header starts the body.
func (s partScan) step(line Line) partScan {
	switch s.state {
	case scanHeaders:
		if isBlank(line.Text) {
			if len(s.headers) > 0 {
				s.state = scanBody
			}
			return s
		}
		s.headers = append(slices.Clip(s.headers), line)
	case scanBody:
		s.body = append(slices.Clip(s.body), line.Text)
	}
	return s
}

// bodyText joins the body lines, dropping the line break that precedes the
// next delimiter.
func (s partScan) bodyText() string {
	body := s.body
	if n := len(body); n > 0 && body[n-1] == "" {
		body = body[:n-1]
	}
	return strings.Join(body, "\n")
}
