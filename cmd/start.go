package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/timeutil"
	"github.com/faffage/faff/internal/workspace"
)

var (
	startRole      string
	startObjective string
	startAction    string
	startSubject   string
	startTrackers  []string
	startNote      string
)

var startCmd = &cobra.Command{
	Use:   "start [alias]",
	Short: "Start a new work session",
	Long: `Start a session for an intent. Name a plan intent by its alias, or
describe the intent with --role/--objective/--action/--subject. A session
must be stopped before another can start.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&startRole, "role", "", "Role the work is done in")
	startCmd.Flags().StringVar(&startObjective, "objective", "", "Objective the work serves")
	startCmd.Flags().StringVar(&startAction, "action", "", "Action being taken")
	startCmd.Flags().StringVar(&startSubject, "subject", "", "Subject being worked on")
	startCmd.Flags().StringArrayVar(&startTrackers, "tracker", nil, "Tracker id from a plan (repeatable)")
	startCmd.Flags().StringVar(&startNote, "note", "", "Optional note")
}

func runStart(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	var intent model.Intent
	if len(args) == 1 {
		found, err := intentByAlias(ws, ws.Today(), args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		intent = found
	} else {
		if startRole == "" && startObjective == "" && startAction == "" && startSubject == "" {
			fmt.Fprintln(os.Stderr, "Nothing to start: give an alias or describe the intent with flags.")
			os.Exit(1)
		}
		intent = model.NewIntent(nil,
			optionalFlag(startRole), optionalFlag(startObjective),
			optionalFlag(startAction), optionalFlag(startSubject), startTrackers)
	}

	session, err := ws.StartIntent(intent, optionalFlag(startNote))
	if err != nil {
		if errors.Is(err, model.ErrSessionAlreadyActive) {
			fmt.Fprintln(os.Stderr, "A session is already active. Stop it first with: faff stop")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Started %q at %s\n", intent.String(), session.Start.Format("15:04"))
	return nil
}

// intentByAlias finds a plan intent for date by alias.
func intentByAlias(ws *workspace.Workspace, date timeutil.Date, alias string) (model.Intent, error) {
	intents, err := ws.Plans().Intents(date)
	if err != nil {
		return model.Intent{}, err
	}
	for _, intent := range intents {
		if intent.Alias != nil && *intent.Alias == alias {
			return intent, nil
		}
	}
	return model.Intent{}, fmt.Errorf("no intent with alias %q in plans valid on %s", alias, date)
}

func optionalFlag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
