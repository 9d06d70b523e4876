package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/core/config"
	"github.com/httper/httper/packages/history"
	"github.com/httper/httper/packages/http"
	"github.com/httper/httper/packages/logging"
)

// Flags shared by every command that sends requests.
var (
	configFlag    string
	envFlag       string
	envFileFlag   string
	verboseFlag   bool
	noColorFlag   bool
	timeoutFlag   string
	insecureFlag  bool
	proxyFlag     string
	historyFlag   string
	noHistoryFlag bool
)

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", getEnvString("HTTPER_CONFIG", ""), "Path to config file (env: HTTPER_CONFIG)")
	flags.StringVarP(&envFlag, "env", "e", getEnvString("HTTPER_ENV", ""), "Environment from http-client.env.json to use (env: HTTPER_ENV)")
	flags.StringVar(&envFileFlag, "env-file", getEnvString("HTTPER_ENV_FILE", ""), "Path to .env file for {{$env.NAME}} lookups (env: HTTPER_ENV_FILE)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HTTPER_VERBOSE", false), "Echo requests, print response headers and debug logs (env: HTTPER_VERBOSE)")
	flags.BoolVar(&noColorFlag, "no-color", getEnvBool("HTTPER_NO_COLOR", false), "Disable colored output (env: HTTPER_NO_COLOR)")
	flags.StringVar(&timeoutFlag, "timeout", getEnvString("HTTPER_TIMEOUT", ""), "Request timeout, e.g. 30s or 1m (env: HTTPER_TIMEOUT)")
	flags.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HTTPER_INSECURE", false), "Disable TLS certificate validation (env: HTTPER_INSECURE)")
	flags.StringVar(&proxyFlag, "proxy", getEnvString("HTTPER_PROXY", ""), "Proxy URL for HTTP requests (env: HTTPER_PROXY)")
	flags.StringVar(&historyFlag, "history", getEnvString("HTTPER_HISTORY", ""), "History database path (env: HTTPER_HISTORY)")
	flags.BoolVar(&noHistoryFlag, "no-history", getEnvBool("HTTPER_NO_HISTORY", false), "Do not record sent requests (env: HTTPER_NO_HISTORY)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// loadConfig loads --config, or the config file in the working directory,
// and applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, configError(fmt.Errorf("loading config: %w", err))
	}

	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, usageError(fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		cfg.Timeout = timeout
	}
	if proxyFlag != "" {
		cfg.Proxy = proxyFlag
	}
	if insecureFlag {
		cfg.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag {
		cfg.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	if envFlag != "" {
		cfg.DefaultEnvironment = envFlag
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.GetVerbose())
}

func newClient(cfg *config.Config, logger *slog.Logger) *http.Client {
	return http.NewClient(
		http.WithTimeout(cfg.GetTimeout()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.GetMaxRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithLogger(logger),
	)
}

// historyPath returns the database to record into, or "" when disabled.
func historyPath(cfg *config.Config) string {
	if noHistoryFlag {
		return ""
	}
	if historyFlag != "" {
		return historyFlag
	}
	if cfg != nil && cfg.History != "" {
		return cfg.History
	}
	return history.DefaultPath
}

func splitVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, usageError(fmt.Errorf("invalid --var %q (expected name=value)", pair))
		}
		vars[strings.TrimSpace(name)] = value
	}
	return vars, nil
}
