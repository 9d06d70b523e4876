package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/httper/httper/packages/core/parser"
	"github.com/httper/httper/packages/logging"
)

func mustParse(t *testing.T, raw, baseDir string) *parser.Request {
	t.Helper()
	req, err := parser.ParseRequest(raw, baseDir)
	require.NoError(t, err)
	return req
}

func TestClient_SendGET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+"/test?page=1\nX-Custom: yes\n", "."))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "HTTP/1.1", resp.Proto)
	assert.Equal(t, "application/json", resp.Header("content-type"))
	assert.Contains(t, resp.BodyString(), "hello")
}

func TestClient_SendJSONKeepsDeclaredContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name": "test"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	raw := "POST " + server.URL + "\nContent-Type: application/json; charset=utf-8\n\n{\"name\": \"test\"}"
	resp, err := NewClient().Send(context.Background(), mustParse(t, raw, "."))

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Contains(t, resp.BodyString(), "123")
}

func TestClient_SendURLEncodedIsNotReencoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "a=1&b=hello%20world", string(body))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	raw := "POST " + server.URL + "\nContent-Type: application/x-www-form-urlencoded\n\na=1&b=hello%20world"
	resp, err := NewClient().Send(context.Background(), mustParse(t, raw, "."))

	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestClient_SendAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		check  func(t *testing.T, r *http.Request)
	}{
		{
			name:   "bearer",
			header: "Authorization: Bearer abc123",
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
			},
		},
		{
			name:   "basic",
			header: "Authorization: Basic admin s3cret",
			check: func(t *testing.T, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "admin", user)
				assert.Equal(t, "s3cret", pass)
			},
		},
		{
			name:   "other scheme passes through",
			header: "Authorization: Token xyz",
			check: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "Token xyz", r.Header.Get("Authorization"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.check(t, r)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			resp, err := NewClient().Send(context.Background(), mustParse(t, "GET "+server.URL+"\n"+tt.header, "."))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

func TestClient_SendMultipart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("file body"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Quarterly", r.FormValue("title"))

		file, header, err := r.FormFile("doc")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.txt", header.Filename)
		assert.Equal(t, "abc", header.Header.Get("X-Checksum"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "file body", string(data))

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	raw := `POST ` + server.URL + `/upload
Content-Type: multipart/form-data; boundary=xyz

--xyz
Content-Disposition: form-data; name="title"

Quarterly
--xyz
Content-Disposition: form-data; name="doc"; filename="report.txt"
Content-Type: text/plain
X-Checksum: abc

< report.txt
--xyz--
`
	req := mustParse(t, raw, dir)
	part, ok := req.Body.Form.Get("doc")
	require.True(t, ok)
	file := part.Content.Reader().(*os.File)

	resp, err := NewClient().Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestClient_SendClosesFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte("A"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	raw := "POST " + url + "\nContent-Type: multipart/form-data; boundary=b\n\n--b\nContent-Disposition: form-data; name=\"f\"\n\n< a.bin\n--b--"
	req := mustParse(t, raw, dir)
	part, _ := req.Body.Form.Get("f")
	file := part.Content.Reader().(*os.File)

	_, err := NewClient().Send(context.Background(), req)
	require.Error(t, err)

	_, err = file.Read(make([]byte, 1))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestClient_HostHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "api.internal", r.Host)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := NewClient().Send(context.Background(), mustParse(t, "GET "+server.URL+"\nHost: api.internal", "."))
	require.NoError(t, err)
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL, "."))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deadline exceeded")
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "from-file", r.Header.Get("X-Env"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithDefaultHeaders(map[string]string{
		"User-Agent": "custom-agent",
		"X-Env":      "from-defaults",
	}))
	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+"\nX-Env: from-file", "."))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(true))
	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+"/redirect", "."))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+"/redirect", "."))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(3))
	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+"/redirect", "."))

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.LessOrEqual(t, redirectCount, 4)
}

func TestClient_HTTP2OverTLS(t *testing.T) {
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	}))
	server.EnableHTTP2 = true
	server.StartTLS()
	defer server.Close()

	client := NewClient(WithValidateSSL(false))

	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL, "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/2.0", resp.BodyString())

	resp, err = client.Send(context.Background(), mustParse(t, "GET "+server.URL+" HTTP/1.1", "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", resp.BodyString())
}

func TestClient_H2C(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	})
	server := httptest.NewServer(h2c.NewHandler(handler, &http2.Server{}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), mustParse(t, "GET "+server.URL+" HTTP/2", "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/2.0", resp.BodyString())
}

func TestClient_UnsupportedVersionFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), mustParse(t, "GET "+server.URL+" HTTP/3", "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", resp.BodyString())
}

func TestClient_HTTP10FallsBackWithWarning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := NewClient(WithLogger(logging.New(&logs, false)))

	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+" HTTP/1.0", "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", resp.BodyString())
	assert.Contains(t, logs.String(), "protocol version not supported, falling back")
	assert.Contains(t, logs.String(), "requested=HTTP/1.0")
	assert.Contains(t, logs.String(), "transport=http/1.1")
}

func TestClient_HTTP11DoesNotWarn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Proto))
	}))
	defer server.Close()

	var logs bytes.Buffer
	client := NewClient(WithLogger(logging.New(&logs, false)))

	resp, err := client.Send(context.Background(), mustParse(t, "GET "+server.URL+" HTTP/1.1", "."))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", resp.BodyString())
	assert.NotContains(t, logs.String(), "falling back")
}

func TestNewHTTPRequest(t *testing.T) {
	req := mustParse(t, "PUT http://example.com/x HTTP/1.0\nX-A: 1\nContent-Type: text/plain\n\nhi", ".")

	httpReq, err := NewHTTPRequest(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "PUT", httpReq.Method)
	assert.Equal(t, "1", httpReq.Header.Get("X-A"))
	assert.Equal(t, "text/plain", httpReq.Header.Get("Content-Type"))
	assert.Equal(t, int64(2), httpReq.ContentLength)
}

func TestNewHTTPRequest_MultipartUsesFreshBoundary(t *testing.T) {
	raw := "POST http://example.com\nContent-Type: multipart/form-data; boundary=declared\n\n--declared\nContent-Disposition: form-data; name=\"a\"\n\n1\n--declared--"
	req := mustParse(t, raw, ".")

	httpReq, err := NewHTTPRequest(context.Background(), req)
	require.NoError(t, err)
	defer httpReq.Body.Close()

	ct := httpReq.Header.Get("Content-Type")
	assert.Contains(t, ct, "multipart/form-data; boundary=")
	assert.NotContains(t, ct, "boundary=declared")

	body, err := io.ReadAll(httpReq.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `Content-Disposition: form-data; name="a"`)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "file scheme",
			url:     "file:///etc/passwd",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, true},
		{201, true},
		{204, true},
		{299, true},
		{300, false},
		{400, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode}
		assert.Equal(t, tt.expected, resp.IsSuccess(), "StatusCode: %d", tt.statusCode)
	}
}

func TestResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/problem+json", true},
		{"text/html", false},
		{"text/plain", false},
		{"", false},
	}

	for _, tt := range tests {
		resp := &Response{Headers: http.Header{"Content-Type": []string{tt.contentType}}}
		assert.Equal(t, tt.expected, resp.IsJSON(), "Content-Type: %s", tt.contentType)
	}
}
