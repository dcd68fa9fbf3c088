package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/workspace"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "faff",
	Short: "faff – intent-tagged work tracking with signable timesheets",
	Long: `faff tracks work as intent-tagged sessions in daily logs and compiles
them into timesheets you can sign with Ed25519 identities and hand to an
audience. All data is stored as human-readable files in ~/.faff/.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(timesheetCmd)
}

// openWorkspace builds the Workspace every command operates on.
func openWorkspace() *workspace.Workspace {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ws, err := workspace.Open(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return ws
}
