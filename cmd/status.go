package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/timeutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session and today's recorded time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	log, err := ws.Log(ws.Today())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if active, ok := log.ActiveSession(); ok {
		fmt.Println("Running:")
		fmt.Printf("  Intent: %s\n", active.Intent.String())
		if len(active.Intent.Trackers) > 0 {
			fmt.Printf("  Trackers: %v\n", active.Intent.Trackers)
		}
		fmt.Printf("  Since: %s\n", active.Start.Format("15:04"))
		fmt.Printf("  Elapsed: %s\n", timeutil.FormatDuration(ws.Now().Sub(active.Start)))
	} else {
		fmt.Println("No active session.")
	}

	// Recorded time counts closed sessions only.
	fmt.Printf("Today: %s recorded in %d session(s).\n",
		timeutil.FormatDuration(log.TotalRecordedTime()), log.Len())
	return nil
}
