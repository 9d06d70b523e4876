package parser

import (
	"net/url"
	"strings"
)

type File struct {
	Path     string
	Requests []*Request
}

// Close releases the file handles held by every request in the file.
func (f *File) Close() error {
	return closeRequests(f.Requests)
}

// Request is a fully parsed request descriptor. Method and URL are always
// set; Auth and Body are nil when the file declares none.
type Request struct {
	Name        string
	Method      string
	URL         *url.URL
	Version     Version
	Headers     Headers
	Auth        *Auth
	ContentType string
	Body        *Body
	Line        int
}

// Close releases any file handles owned by multipart parts of the body. It is
// safe to call more than once.
func (r *Request) Close() error {
	if r == nil || r.Body == nil || r.Body.Form == nil {
		return nil
	}
	return r.Body.Form.Close()
}

type Version int

const (
	HTTP09 Version = iota
	HTTP10
	HTTP11
	HTTP2
	HTTP3
)

func (v Version) String() string {
	switch v {
	case HTTP09:
		return "HTTP/0.9"
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	case HTTP2:
		return "HTTP/2.0"
	case HTTP3:
		return "HTTP/3.0"
	default:
		return "unknown"
	}
}

// ParseVersion maps a version token to a Version. Unknown tokens fall back to
// HTTP/1.1.
func ParseVersion(s string) Version {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HTTP/0.9":
		return HTTP09
	case "HTTP/1.0":
		return HTTP10
	case "HTTP/2", "HTTP/2.0":
		return HTTP2
	case "HTTP/3", "HTTP/3.0":
		return HTTP3
	default:
		return HTTP11
	}
}

// DefaultVersion is the version used when the request line has none.
func DefaultVersion(u *url.URL) Version {
	if u != nil && u.Scheme == "https" {
		return HTTP2
	}
	return HTTP11
}

type Header struct {
	Key   string
	Value string
	Line  int
}

// Headers keeps header fields in the order they were written. Keys keep their
// original spelling but are matched case-insensitively.
type Headers []*Header

func (h Headers) Get(key string) string {
	for _, f := range h {
		if headerIs(f.Key, key) {
			return f.Value
		}
	}
	return ""
}

func (h Headers) Has(key string) bool {
	for _, f := range h {
		if headerIs(f.Key, key) {
			return true
		}
	}
	return false
}

// Set stores a field. A later field with the same key replaces the earlier
// one in place, taking over its position.
func (h *Headers) Set(key, value string, line int) {
	for _, f := range *h {
		if headerIs(f.Key, key) {
			f.Key = key
			f.Value = value
			f.Line = line
			return
		}
	}
	*h = append(*h, &Header{Key: key, Value: value, Line: line})
}

type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
	AuthBasic
)

func (t AuthType) String() string {
	switch t {
	case AuthBearer:
		return "bearer"
	case AuthBasic:
		return "basic"
	default:
		return "none"
	}
}

type Auth struct {
	Type     AuthType
	Token    string
	Username string
	Password string
}

type BodyType int

const (
	BodyRaw BodyType = iota
	BodyJSON
	BodyURLEncoded
	BodyMultipart
)

func (t BodyType) String() string {
	switch t {
	case BodyJSON:
		return "json"
	case BodyURLEncoded:
		return "urlencoded"
	case BodyMultipart:
		return "multipart"
	default:
		return "raw"
	}
}

// Body is the request payload. Raw holds the bytes for every type except
// BodyMultipart, which uses Form.
type Body struct {
	Type BodyType
	Raw  []byte
	Form *Form
}
