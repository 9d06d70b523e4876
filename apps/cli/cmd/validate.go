package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/core/parser"
	"github.com/httper/httper/packages/core/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate request files for syntax errors",
	Long: `Validate request files without sending anything. Variables are resolved
first, from the same sources run uses, and file references in multipart
bodies must exist.

Examples:
  httper validate api.http
  httper validate ./requests/ --env staging`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
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
	r := runner.NewRunner(runnerConfig(cfg, vars), runner.WithLogger(newLogger(cmd, cfg)))

	var errs *multierror.Error
	for _, file := range files {
		f, err := parseResolved(r, file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			errs = multierror.Append(errs, err)
			continue
		}
		_ = f.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests)\n", file, len(f.Requests))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return &exitError{code: ExitParseError, err: err, reported: true}
	}
	return nil
}

// parseResolved parses a request file after substituting variables, the way
// run sees it. The caller closes the returned file.
func parseResolved(r *runner.Runner, path string) (*parser.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	resolver, err := r.LoadResolver(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return parser.Parse(resolver.Resolve(string(data)), path)
}
