package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/httper/httper/packages/core/parser"
)

// NewHTTPRequest converts a parsed request into an *http.Request. A
// multipart body is streamed, so the returned request can be sent once and
// its Body must be closed by the caller.
func NewHTTPRequest(ctx context.Context, req *parser.Request) (*http.Request, error) {
	var body io.Reader
	contentType := req.ContentType

	var stream *formStream
	if req.Body != nil {
		switch req.Body.Type {
		case parser.BodyMultipart:
			stream = newFormStream(req.Body.Form)
			body = stream
			contentType = stream.contentType
		default:
			body = bytes.NewReader(req.Body.Raw)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		if stream != nil {
			_ = stream.Close()
		}
		return nil, err
	}

	for _, h := range req.Headers {
		httpReq.Header.Set(h.Key, h.Value)
		if http.CanonicalHeaderKey(h.Key) == "Host" {
			httpReq.Host = h.Value
		}
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	applyAuth(httpReq, req.Auth)

	return httpReq, nil
}

func applyAuth(r *http.Request, auth *parser.Auth) {
	if auth == nil {
		return
	}

	switch auth.Type {
	case parser.AuthBasic:
		r.SetBasicAuth(auth.Username, auth.Password)
	case parser.AuthBearer:
		r.Header.Set("Authorization", "Bearer "+auth.Token)
	}
}
