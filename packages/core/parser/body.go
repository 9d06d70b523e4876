package parser

import (
	"strings"
)

const (
	MediaTypeJSON       = "application/json"
	MediaTypeURLEncoded = "application/x-www-form-urlencoded"
	MediaTypeMultipart  = "multipart/form-data"
)

// MediaType returns the primary token of a content type, the part before the
// first ";".
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}

// DispatchBody turns body text into a Body according to the declared content
// type. JSON and URL-encoded bodies are kept as written.
func DispatchBody(contentType, body, baseDir string) (*Body, error) {
	switch MediaType(contentType) {
	case MediaTypeJSON:
		return &Body{Type: BodyJSON, Raw: []byte(body)}, nil
	case MediaTypeURLEncoded:
		return &Body{Type: BodyURLEncoded, Raw: []byte(body)}, nil
	case MediaTypeMultipart:
		form, err := AssembleForm(contentType, body, baseDir)
		if err != nil {
			return nil, err
		}
		return &Body{Type: BodyMultipart, Form: form}, nil
	default:
		return &Body{Type: BodyRaw, Raw: []byte(body)}, nil
	}
}
