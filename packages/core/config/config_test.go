package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, 30*time.Second, c.GetTimeout())
	assert.Equal(t, 10, c.GetMaxRedirects())
	assert.True(t, c.GetFollowRedirects())
	assert.True(t, c.GetValidateSSL())
	assert.False(t, c.GetSaveResponses())
	assert.False(t, c.GetNoColor())
}

func TestGetters_ZeroValue(t *testing.T) {
	var c Config

	assert.Equal(t, DefaultTimeout, c.GetTimeout())
	assert.Equal(t, DefaultMaxRedirects, c.GetMaxRedirects())
	assert.True(t, c.GetFollowRedirects())
	assert.False(t, c.GetVerbose())
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `defaultEnvironment: dev
timeout: 5s
validateSSL: false
headers:
  User-Agent: httper-test
environments:
  dev:
    host: localhost:8080
history: .httper/history.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".httper.yaml"), []byte(content), 0o644))

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "dev", c.DefaultEnvironment)
	assert.Equal(t, 5*time.Second, c.GetTimeout())
	assert.False(t, c.GetValidateSSL())
	assert.True(t, c.GetFollowRedirects())
	assert.Equal(t, "httper-test", c.Headers["User-Agent"])
	assert.Equal(t, "localhost:8080", c.Environments["dev"]["host"])
	assert.Equal(t, ".httper/history.db", c.History)
}

func TestFindAndLoadConfig_NoFile(t *testing.T) {
	c, err := FindAndLoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: [1, 2"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		Timeout:     2 * time.Second,
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "2"},
		OutputDir:   "out",
	})

	assert.Equal(t, 2*time.Second, merged.Timeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, "out", merged.OutputDir)

	assert.Equal(t, "1", base.Headers["B"], "merge must not modify the receiver")
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".httper.yaml")
	c := DefaultConfig()
	c.DefaultEnvironment = "prod"

	require.NoError(t, c.SaveConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 30s")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", loaded.DefaultEnvironment)
	assert.Equal(t, c.Timeout, loaded.Timeout)
}
