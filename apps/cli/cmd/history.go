package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/httper/httper/packages/history"
	"github.com/httper/httper/packages/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently sent requests",
	Long: `Show the requests recorded in the history database, newest first.

Examples:
  httper history
  httper history -n 50
  httper history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyLimitFlag int
	historyClearFlag bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete all recorded entries")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := historyPath(cfg)
	if path == "" {
		return usageError(errors.New("history is disabled by --no-history"))
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if historyClearFlag {
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	entries, err := store.Latest(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No requests recorded yet.")
		return nil
	}

	noColor := cfg.GetNoColor() || !output.ColorEnabled(os.Stdout, false)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	for _, c := range []*color.Color{green, yellow, red} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSENT\tSTATUS\tTIME\tREQUEST\tFILE")
	for _, e := range entries {
		status := "-"
		switch {
		case e.Error != "":
			status = red.Sprint("ERR")
		case e.Status >= 400:
			status = red.Sprint(e.Status)
		case e.Status >= 300:
			status = yellow.Sprint(e.Status)
		case e.Status > 0:
			status = green.Sprint(e.Status)
		}

		request := e.Method + " " + e.URL
		if e.Name != "" {
			request = e.Name + ": " + request
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%dms\t%s\t%s\n",
			e.ID, e.SentAt.Local().Format("2006-01-02 15:04:05"), status,
			e.Duration.Milliseconds(), request, e.File)
	}
	return w.Flush()
}
