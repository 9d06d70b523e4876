package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/core/runner"
	"github.com/httper/httper/packages/curl"
)

var importCmd = &cobra.Command{
	Use:   "import <curl-file|->",
	Short: "Convert curl commands into a .http file",
	Long: `Convert curl commands into .http requests. Each command is one line;
a trailing backslash continues it on the next line. Use "-" to read from stdin.

Examples:
  httper import commands.sh
  httper import commands.sh -o api.http
  pbpaste | httper import -`,
	Args: cobra.ExactArgs(1),
	RunE: importCommand,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Print the requests in a .http file as curl commands",
	Long: `Print the requests in a .http file as curl commands. Variables are
resolved first, using the same environment and variable sources as run.

Examples:
  httper export api.http
  httper export api.http --name login --env staging`,
	Args: cobra.ExactArgs(1),
	RunE: exportCommand,
}

var importOutputFlag string

func init() {
	importCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Output file path (default: stdout)")

	exportCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Export only requests matching name pattern")
	exportCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func importCommand(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return usageError(fmt.Errorf("cannot access %s: %w", args[0], err))
		}
		defer f.Close()
		in = f
	}

	commands, err := curl.ParseScript(in)
	if err != nil {
		return fmt.Errorf("failed to convert curl commands: %w", err)
	}
	if len(commands) == 0 {
		return usageError(fmt.Errorf("no curl commands found in %s", args[0]))
	}

	if importOutputFlag == "" {
		return curl.WriteHTTP(cmd.OutOrStdout(), commands)
	}

	if dir := filepath.Dir(importOutputFlag); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	var sb strings.Builder
	if err := curl.WriteHTTP(&sb, commands); err != nil {
		return err
	}
	if err := os.WriteFile(importOutputFlag, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d requests to %s\n", len(commands), importOutputFlag)
	return nil
}

func exportCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return usageError(fmt.Errorf("cannot access %s: %w", path, err))
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
	file, err := parseResolved(r, path)
	if err != nil {
		return err
	}
	defer file.Close()

	out := cmd.OutOrStdout()
	for _, req := range file.Requests {
		if !runner.MatchesName(req.Name, nameFlag) {
			continue
		}
		if req.Name != "" {
			fmt.Fprintf(out, "# %s\n", req.Name)
		}
		fmt.Fprintln(out, curl.FromRequest(req))
	}
	return nil
}
