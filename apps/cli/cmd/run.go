package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/core/config"
	"github.com/httper/httper/packages/core/runner"
	"github.com/httper/httper/packages/history"
	"github.com/httper/httper/packages/output"
	"github.com/httper/httper/packages/save"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Send the requests in .http files",
	Long: `Send the requests defined in .http or .rest files, in file order.

Examples:
  httper run api.http
  httper run api.http --env staging
  httper run api.http --name "create-*" --verbose
  httper run api.http --save
  httper run api.http -o response.json
  httper run api.http --query data.items.0.id
  httper run api.http --var host=localhost:8080 --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag       string
	outputFlag     string
	outputFileFlag string
	saveFlag       bool
	bailFlag       bool
	watchFlag      bool
	queryFlag      string
	varFlags       []string
	waitForFlag    string
	waitTimeout    time.Duration
)

func init() {
	addRunFlags(runCmd)
}

// addRunFlags registers the run flags on cmd. The root command shares them
// so that "httper FILE" accepts the same options as "httper run FILE".
func addRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&nameFlag, "name", "n", "", "Send only requests matching name pattern (* wildcard at either end)")
	flags.StringVar(&outputFlag, "output", getEnvString("HTTPER_OUTPUT", output.FormatConsole), "Output format: console, json (env: HTTPER_OUTPUT)")
	flags.StringVarP(&outputFileFlag, "output-file", "o", "", "Write the response body to this file")
	flags.BoolVar(&saveFlag, "save", getEnvBool("HTTPER_SAVE", false), "Save response bodies under generated names (env: HTTPER_SAVE)")
	flags.BoolVar(&bailFlag, "bail", getEnvBool("HTTPER_BAIL", false), "Stop at the first request that gets no response (env: HTTPER_BAIL)")
	flags.BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-send")
	flags.StringVarP(&queryFlag, "query", "q", "", "Print only this value of each response (status, header.Name, or a JSON path)")
	flags.StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
	flags.StringVar(&waitForFlag, "wait-for", "", "Poll this URL until it returns 200 before sending")
	flags.DurationVar(&waitTimeout, "wait-timeout", 30*time.Second, "How long --wait-for polls")
}

func runCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return usageError(err)
	}
	if len(files) == 0 {
		return usageError(fmt.Errorf("no .http or .rest files found"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vars, err := splitVars(varFlags)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(outputFlag, output.Options{
		Writer:  cmd.OutOrStdout(),
		Verbose: cfg.GetVerbose(),
		NoColor: cfg.GetNoColor() || !output.ColorEnabled(os.Stdout, false),
		Query:   queryFlag,
	})
	if err != nil {
		return usageError(err)
	}

	logger := newLogger(cmd, cfg)
	client := newClient(cfg, logger)
	defer client.CloseIdleConnections()

	opts := []runner.Option{
		runner.WithClient(client),
		runner.WithLogger(logger),
		runner.WithResultHandler(formatter.FormatRequest),
	}
	if path := historyPath(cfg); path != "" {
		store, err := history.Open(path)
		if err != nil {
			logger.Warn("history disabled", "path", path, "error", err)
		} else {
			defer store.Close()
			opts = append(opts, runner.WithHistory(store))
		}
	}

	r := runner.NewRunner(runnerConfig(cfg, vars), opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if waitForFlag != "" {
		if err := r.WaitFor(ctx, runner.WaitForConfig{URL: waitForFlag, Timeout: waitTimeout}); err != nil {
			return &exitError{code: ExitNetworkError, err: err}
		}
	}

	runAll := func() error {
		var errs *multierror.Error
		for _, file := range files {
			result, err := r.RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(err)
				errs = multierror.Append(errs, err)
				if bailFlag {
					break
				}
				continue
			}

			formatter.FormatResult(result)
			if err := result.Err(); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", file, err))
				if bailFlag {
					break
				}
			}
		}

		if err := formatter.Flush(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("writing output: %w", err))
		}
		return errs.ErrorOrNil()
	}

	err = runAll()
	if !watchFlag {
		if err != nil {
			return &exitError{err: err, reported: true}
		}
		return nil
	}

	return watchFiles(ctx, cmd, files, logger, func() {
		_ = runAll()
	})
}

func runnerConfig(cfg *config.Config, vars map[string]any) *runner.Config {
	saveDir := cfg.OutputDir
	if cwd, err := os.Getwd(); err == nil {
		saveDir = save.ResolveDir(cwd, cfg.OutputDir)
	}

	return &runner.Config{
		Environment: cfg.DefaultEnvironment,
		EnvFile:     envFileFlag,
		NameFilter:  nameFlag,
		Bail:        bailFlag,
		Save:        saveFlag || cfg.GetSaveResponses(),
		SaveDir:     saveDir,
		OutputFile:  outputFileFlag,
		ConfigEnvs:  cfg.Environments,
		Variables:   vars,
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isRequestFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isRequestFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".http" || ext == ".rest"
}
