package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect work plans",
}

var planListCmd = &cobra.Command{
	Use:   "list [date]",
	Short: "List plans valid on a date (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlanList,
}

func init() {
	planCmd.AddCommand(planListCmd)
}

func runPlanList(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 0)

	plans, err := ws.Plans().PlansFor(date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(plans) == 0 {
		fmt.Printf("No plans valid on %s.\n", date)
		return nil
	}

	sources := make([]string, 0, len(plans))
	for s := range plans {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	for _, source := range sources {
		p := plans[source]
		fmt.Printf("%s (valid from %s", source, p.ValidFrom)
		if p.ValidUntil != "" {
			fmt.Printf(" until %s", p.ValidUntil)
		}
		fmt.Println(")")
		for _, e := range p.Intents {
			fmt.Printf("  intent: %s\n", e.Intent().String())
		}
		trackerIDs := make([]string, 0, len(p.Trackers))
		for id := range p.Trackers {
			trackerIDs = append(trackerIDs, id)
		}
		sort.Strings(trackerIDs)
		for _, id := range trackerIDs {
			fmt.Printf("  tracker: %s  %s\n", id, p.Trackers[id])
		}
	}
	return nil
}
