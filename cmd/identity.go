package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var identityOverwrite bool

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage signing identities",
}

var identityNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new Ed25519 signing identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentityNew,
}

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signing identities",
	Args:  cobra.NoArgs,
	RunE:  runIdentityList,
}

func init() {
	identityNewCmd.Flags().BoolVar(&identityOverwrite, "overwrite", false, "Replace an existing identity")
	identityCmd.AddCommand(identityNewCmd)
	identityCmd.AddCommand(identityListCmd)
}

func runIdentityNew(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	id, err := ws.Identities().Create(args[0], identityOverwrite)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Created identity %q\n", id.Name)
	fmt.Printf("Public key: %s\n", base64.StdEncoding.EncodeToString(id.Public()))
	return nil
}

func runIdentityList(cmd *cobra.Command, args []string) error {
	ws := openWorkspace()

	names, err := ws.Identities().List()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(names) == 0 {
		fmt.Println("No identities. Create one with: faff identity new <name>")
		return nil
	}
	for _, name := range names {
		pub, err := ws.Identities().LoadPublic(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Printf("%s  %s\n", name, base64.StdEncoding.EncodeToString(pub))
	}
	return nil
}
