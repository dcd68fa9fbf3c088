package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/faffage/faff/internal/codec"
	"github.com/faffage/faff/internal/model"
	"github.com/faffage/faff/internal/storage"
	"github.com/faffage/faff/internal/submit"
	"github.com/faffage/faff/internal/timeutil"
)

var (
	timesheetIdentity    string
	timesheetCompileSign bool
)

var timesheetCmd = &cobra.Command{
	Use:   "timesheet",
	Short: "Compile, sign, verify and submit timesheets",
}

var timesheetCompileCmd = &cobra.Command{
	Use:   "compile <audience> [date]",
	Short: "Compile a day's log into a timesheet",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTimesheetCompile,
}

var timesheetSignCmd = &cobra.Command{
	Use:   "sign <audience> [date]",
	Short: "Sign a compiled timesheet",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTimesheetSign,
}

var timesheetVerifyCmd = &cobra.Command{
	Use:   "verify <audience> [date]",
	Short: "Verify a timesheet signature",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTimesheetVerify,
}

var timesheetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored timesheets",
	Args:  cobra.NoArgs,
	RunE:  runTimesheetList,
}

var timesheetShowCmd = &cobra.Command{
	Use:   "show <audience> [date]",
	Short: "Show a stored timesheet",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTimesheetShow,
}

var timesheetSubmitCmd = &cobra.Command{
	Use:   "submit <audience> [date]",
	Short: "Submit a signed timesheet to the audience's endpoint",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTimesheetSubmit,
}

func init() {
	timesheetCompileCmd.Flags().BoolVar(&timesheetCompileSign, "sign", false, "Sign with the default identity after compiling")
	timesheetSignCmd.Flags().StringVar(&timesheetIdentity, "identity", "", "Signing identity (default from config)")
	timesheetVerifyCmd.Flags().StringVar(&timesheetIdentity, "identity", "", "Signer to verify (default from config)")

	timesheetCmd.AddCommand(timesheetCompileCmd)
	timesheetCmd.AddCommand(timesheetSignCmd)
	timesheetCmd.AddCommand(timesheetVerifyCmd)
	timesheetCmd.AddCommand(timesheetListCmd)
	timesheetCmd.AddCommand(timesheetShowCmd)
	timesheetCmd.AddCommand(timesheetSubmitCmd)
}

func runTimesheetCompile(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 1)

	ts, err := ws.Compile(args[0], date)
	if err != nil {
		if errors.Is(err, model.ErrIncompleteSession) {
			fmt.Fprintln(os.Stderr, "The log has an open session. Stop it before compiling: faff stop")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Compiled timesheet for %q on %s: %d session(s), %s\n",
		args[0], date, len(ts.Timeline()), timeutil.FormatDuration(recordedTime(ts)))

	if timesheetCompileSign {
		signed, err := ws.SignTimesheet(args[0], date, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Printf("Signed timesheet for %q on %s (%d signature(s))\n", args[0], date, len(signed.Signatures()))
	}
	return nil
}

func runTimesheetSign(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 1)

	ts, err := ws.SignTimesheet(args[0], date, timesheetIdentity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Signed timesheet for %q on %s (%d signature(s))\n", args[0], date, len(ts.Signatures()))
	return nil
}

func runTimesheetVerify(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 1)

	signer := timesheetIdentity
	if signer == "" {
		signer = ws.Config().DefaultIdentity
	}
	if err := ws.VerifyTimesheet(args[0], date, signer); err != nil {
		if errors.Is(err, model.ErrSignatureInvalid) || errors.Is(err, model.ErrUnknownSigner) {
			fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("OK: signature by %q verifies for %q on %s\n", signer, args[0], date)
	return nil
}

func runTimesheetList(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	refs, err := storage.ListTimesheets(ws.Base())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(refs) == 0 {
		fmt.Println("No timesheets.")
		return nil
	}
	for _, ref := range refs {
		ts, _, err := storage.LoadTimesheet(ws.Base(), ref.AudienceID, ref.Date)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		status := "unsigned"
		if n := len(ts.Signatures()); n > 0 {
			status = fmt.Sprintf("%d signature(s)", n)
		}
		if ts.Meta().SubmittedAt != nil {
			status += ", submitted"
		}
		fmt.Printf("%s  %s  %s\n", ref.Date, ref.AudienceID, status)
	}
	return nil
}

func runTimesheetShow(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 1)

	ts, err := ws.Timesheet(args[0], date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	data, err := codec.Marshal(ts.Record())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	diag, err := codec.Diagnose(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(diag)
	return nil
}

func runTimesheetSubmit(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()
	date := dateArg(ws, args, 1)

	audience, ok := ws.Config().Audience(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "audience %q not found in config\n", args[0])
		os.Exit(2)
	}

	ts, err := ws.Timesheet(args[0], date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// The audience's expected signatures must all be present and valid
	// before anything leaves the machine.
	signers := audience.SigningIDs
	if len(signers) == 0 {
		signers = []string{ws.Config().DefaultIdentity}
	}
	for _, signer := range signers {
		if err := ws.VerifyTimesheet(args[0], date, signer); err != nil {
			fmt.Fprintf(os.Stderr, "not submitting: %v\n", err)
			os.Exit(1)
		}
	}

	if err := submit.Submit(cmd.Context(), ws.Base(), audience, ts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if _, err := ws.MarkSubmitted(args[0], date, ws.Config().DefaultIdentity); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Submitted timesheet for %q on %s\n", args[0], date)
	return nil
}

// recordedTime sums the sessions of a timesheet. Timesheet sessions are
// always closed, so this is the whole timeline.
func recordedTime(ts model.Timesheet) (total time.Duration) {
	for _, s := range ts.Timeline() {
		total += s.End.Sub(s.Start)
	}
	return total
}
