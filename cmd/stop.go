package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
)

var stopNote string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopNote, "note", "", "Note to append to the stopped session")
}

func runStop(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	session, err := ws.Stop(optionalFlag(stopNote))
	if err != nil {
		if errors.Is(err, model.ErrNoActiveSession) {
			fmt.Fprintln(os.Stderr, "No active session to stop.")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Stopped %q. Elapsed: %s\n",
		session.Intent.String(), timeutil.FormatDuration(session.End.Sub(session.Start)))
	return nil
}
