package parser

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRequest            = errors.New("empty request file")
	ErrNoRequestLine           = errors.New("no request line found")
	ErrNotEnoughParts          = errors.New("not enough parts in request line")
	ErrInvalidMethod           = errors.New("invalid method")
	ErrInvalidURL              = errors.New("invalid url")
	ErrInvalidHeader           = errors.New("invalid header")
	ErrFormDataBoundaryMissing = errors.New("missing form data boundary")
	ErrFormPartNameMissing     = errors.New("form part lacks a name")
	ErrEmptyBody               = errors.New("part has no body")
)

// ParseError carries one of the sentinel errors above together with the
// offending input fragment and, where known, its position.
type ParseError struct {
	File     string
	Line     int
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Fragment != "" {
		msg += ": " + e.Fragment
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
	case e.File != "":
		return e.File + ": " + msg
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	default:
		return msg
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(err error, line int, fragment string) *ParseError {
	return &ParseError{Line: line, Fragment: fragment, Err: err}
}
