package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/core/runner"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the requests in request files",
	Long: `List the requests defined in .http or .rest files, with variables
resolved.

Examples:
  httper list api.http
  httper list ./requests/ --env staging`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
}

func listCommand(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	for _, file := range files {
		f, err := parseResolved(r, file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", file)
		for _, req := range f.Requests {
			if req.Name != "" {
				fmt.Fprintf(out, "  - %s: %s %s\n", req.Name, req.Method, req.URL)
			} else {
				fmt.Fprintf(out, "  - %s %s\n", req.Method, req.URL)
			}
			if req.Body != nil {
				fmt.Fprintf(out, "    body: %s\n", req.Body.Type)
			}
		}
		_ = f.Close()
	}

	return nil
}
