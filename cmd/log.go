package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/storage"
	"github.com/faffage/faff/internal/timeutil"
	"github.com/faffage/faff/internal/workspace"
)

var logList bool

var logCmd = &cobra.Command{
	Use:   "log [date]",
	Short: "Show a day's log",
	Long: `Show the log for a date (default today) in the Faff log file format.
With --list, list the dates of all stored logs instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLog,
}

func init() {
	logCmd.Flags().BoolVar(&logList, "list", false, "List all log dates")
}

func runLog(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	if logList {
		dates, err := storage.ListLogDates(ws.Base())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		if len(dates) == 0 {
			fmt.Println("No logs.")
			return nil
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	}

	date := dateArg(ws, args, 0)
	log, err := ws.Log(date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	trackers, err := ws.Plans().Trackers(date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Stdout.Write(storage.EncodeLogFile(log, trackers))
	return nil
}

// dateArg parses args[idx] as a date, defaulting to today.
func dateArg(ws *workspace.Workspace, args []string, idx int) timeutil.Date {
	if len(args) <= idx {
		return ws.Today()
	}
	date, err := timeutil.ParseDate(args[idx])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return date
}
