package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httper/httper/packages/core/config"
	"github.com/httper/httper/packages/core/env"
	"github.com/httper/httper/packages/core/parser"
	"github.com/httper/httper/packages/output"
)

// resetFlags restores every flag variable to its default so commands can be
// executed repeatedly in one process.
func resetFlags() {
	configFlag, envFlag, envFileFlag, timeoutFlag, proxyFlag, historyFlag = "", "", "", "", "", ""
	verboseFlag, noColorFlag, insecureFlag, noHistoryFlag = false, false, false, false

	nameFlag, outputFileFlag, queryFlag, waitForFlag = "", "", "", ""
	outputFlag = output.FormatConsole
	saveFlag, bailFlag, watchFlag = false, false, false
	varFlags = nil
	waitTimeout = 30 * time.Second

	benchRequestsFlag, benchRateFlag, benchConcurrencyFlag = 100, 0, 1
	benchNameFlag, benchThresholdFlag, benchJSONFlag = "", "", false

	historyLimitFlag, historyClearFlag = 20, false
	forceInit = false
	importOutputFlag = ""
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"id":7,"path":%q}}`, r.URL.Path)
	}))
	t.Cleanup(server.Close)
	return server
}

const pingFile = `### ping
GET {{host}}/ping
Accept: application/json
`

func TestExitCode(t *testing.T) {
	_, parseErr := parser.ParseRequest("FETCH http://x.test/", ".")
	require.Error(t, parseErr)
	urlErr := &url.Error{Op: "Get", URL: "http://x.test/", Err: errors.New("connection refused")}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitFailure},
		{"usage", usageError(errors.New("bad flag")), ExitUsageError},
		{"explicit code wins", &exitError{code: ExitNetworkError, err: parseErr}, ExitNetworkError},
		{"parse error", fmt.Errorf("parsing file: %w", parseErr), ExitParseError},
		{"invalid config", fmt.Errorf("loading config: %w", config.ErrInvalidConfig), ExitConfigError},
		{"unknown environment", fmt.Errorf("loading environment: %w", env.ErrUnknownEnvironment), ExitConfigError},
		{"transport", urlErr, ExitNetworkError},
		{"reported transport", &exitError{err: multierror.Append(nil, fmt.Errorf("api.http: %w", urlErr)), reported: true}, ExitNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	writeFile(t, dir, "a.http", pingFile)
	writeFile(t, dir, "nested/b.rest", pingFile)
	writeFile(t, dir, "notes.txt", "x")
	explicit := writeFile(t, dir, "explicit.txt", pingFile)

	files, err := collectFiles([]string{dir, explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.http"),
		filepath.Join(dir, "nested", "b.rest"),
		explicit,
	}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing.http")})
	assert.Error(t, err)
}

func TestSplitVars(t *testing.T) {
	vars, err := splitVars([]string{"host=localhost:8080", " token =a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"host": "localhost:8080", "token": "a=b", "empty": ""}, vars)

	_, err = splitVars([]string{"novalue"})
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, err = splitVars([]string{"=x"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	server := newAPIServer(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "api.http", pingFile)

	out, err := execute(t, "run", path, "--var", "host="+server.URL, "--no-history", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP/1.1 200 OK")
	assert.Contains(t, out, `"path": "/ping"`)
	assert.Contains(t, out, "Response code: 200")
}

func TestRun_RootAlias(t *testing.T) {
	server := newAPIServer(t)
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	out, err := execute(t, path, "--var", "host="+server.URL, "--no-history", "-q", "data.id")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestRun_EnvironmentFile(t *testing.T) {
	server := newAPIServer(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "api.http", pingFile)
	writeFile(t, dir, env.PublicEnvFile, fmt.Sprintf(`{"local": {"host": %q}}`, server.URL))

	out, err := execute(t, "run", path, "-e", "local", "--no-history", "-q", "data.path")
	require.NoError(t, err)
	assert.Equal(t, "/ping\n", out)

	_, err = execute(t, "run", path, "-e", "staging", "--no-history")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, exitCode(err))
}

func TestRun_JSONOutput(t *testing.T) {
	server := newAPIServer(t)
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	out, err := execute(t, "run", path, "--var", "host="+server.URL, "--no-history", "--output", "json")
	require.NoError(t, err)

	var doc output.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Summary.Sent)
	require.Len(t, doc.Exchanges, 1)
	assert.Equal(t, "ping", doc.Exchanges[0].Name)
}

func TestRun_NetworkError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	out, err := execute(t, "run", path, "--var", "host=http://127.0.0.1:1", "--no-history", "--no-color")
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
	assert.Contains(t, out, "Error:")
}

func TestRun_ParseError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.http", "FETCH http://x.test/\n")

	_, err := execute(t, "run", path, "--no-history")
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
}

func TestRun_NoRequestFiles(t *testing.T) {
	_, err := execute(t, "run", t.TempDir(), "--no-history")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestRun_SaveToOutputFile(t *testing.T) {
	server := newAPIServer(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "api.http", pingFile)
	target := filepath.Join(dir, "out", "ping.json")

	out, err := execute(t, "run", path, "--var", "host="+server.URL, "--no-history", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Response file saved.")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"id":7,"path":"/ping"}}`, string(data))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.http", pingFile)

	out, err := execute(t, "validate", good, "--var", "host=http://x.test")
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: "+good+" (1 requests)")

	_, err = execute(t, "validate", good)
	require.Error(t, err, "unresolved host leaves an invalid URL")

	writeFile(t, dir, "bad.http", "GET\n")
	_, err = execute(t, "validate", dir, "--var", "host=http://x.test")
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
}

func TestList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "api.http", `### first
GET http://x.test/a

###
POST http://x.test/b
Content-Type: application/json

{}
`)

	out, err := execute(t, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  - first: GET http://x.test/a\n")
	assert.Contains(t, out, "  - POST http://x.test/b\n    body: json\n")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "httper project initialized!")

	for _, name := range []string{".httper.yaml", env.PublicEnvFile, "example.http", "hello.txt"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.DefaultEnvironment)
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())

	out, err = execute(t, "validate", "example.http")
	require.NoError(t, err)
	assert.Contains(t, out, "Valid: example.http (5 requests)")

	_, err = execute(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, err = execute(t, "init", "--force")
	require.NoError(t, err)
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "commands.sh", `curl -X POST https://api.example.com/users \
  -H 'Content-Type: application/json' \
  -d '{"name":"ada"}'
`)
	target := filepath.Join(dir, "api.http")

	out, err := execute(t, "import", script, "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 requests")

	out, err = execute(t, "export", target, "--no-history")
	require.NoError(t, err)
	assert.Equal(t,
		"# post-users\ncurl -X POST -H 'Content-Type: application/json' --data-raw '{\"name\":\"ada\"}' https://api.example.com/users\n",
		out)
}

func TestImport_Stdin(t *testing.T) {
	rootCmd.SetIn(strings.NewReader("curl https://x.test/health\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "import", "-")
	require.NoError(t, err)
	assert.Equal(t, "### get-health\nGET https://x.test/health\n", out)
}

func TestHistory(t *testing.T) {
	server := newAPIServer(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "api.http", pingFile)
	db := filepath.Join(dir, "history.db")

	_, err := execute(t, "run", path, "--var", "host="+server.URL, "--history", db)
	require.NoError(t, err)

	out, err := execute(t, "history", "--history", db, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "ping: GET "+server.URL+"/ping")
	assert.Contains(t, out, "200")

	out, err = execute(t, "history", "--history", db, "--clear")
	require.NoError(t, err)
	assert.Equal(t, "History cleared.\n", out)

	out, err = execute(t, "history", "--history", db)
	require.NoError(t, err)
	assert.Equal(t, "No requests recorded yet.\n", out)
}

func TestBench(t *testing.T) {
	server := newAPIServer(t)
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	out, err := execute(t, "bench", path, "-n", "5", "-c", "2", "--json", "--var", "host="+server.URL, "--no-history")
	require.NoError(t, err)

	var summary struct {
		Total    int64            `json:"total"`
		Errors   int64            `json:"errors"`
		Statuses map[string]int64 `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.EqualValues(t, 5, summary.Total)
	assert.Zero(t, summary.Errors)
	assert.Equal(t, map[string]int64{"200": 5}, summary.Statuses)
}

func TestBench_ThresholdFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	_, err := execute(t, "bench", path, "-n", "2", "--json", "--threshold", "errors<1%", "--var", "host=http://127.0.0.1:1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(err))
}

func TestBench_InvalidFlags(t *testing.T) {
	path := writeFile(t, t.TempDir(), "api.http", pingFile)

	_, err := execute(t, "bench", path, "-n", "0")
	assert.Equal(t, ExitUsageError, exitCode(err))

	_, err = execute(t, "bench", path, "--threshold", "p95<1s")
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "httper version dev\n")
}

func TestCompletion(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "httper")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
