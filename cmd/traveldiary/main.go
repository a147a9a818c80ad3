// Command traveldiary is the main entry point for the CLI binary.
// It dispatches to subcommands like setup, server, and reset-password.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"traveldiary/internal/cmd/cli"
	"traveldiary/internal/cmd/resetpassword"
	"traveldiary/internal/cmd/sendtestmail"
	"traveldiary/internal/cmd/server"
	"traveldiary/internal/cmd/setup"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var g cli.Globals
	root := &cobra.Command{
		Use:           "traveldiary",
		Short:         "Smart Travel Diary web application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.Bind(root)
	root.AddCommand(
		setup.NewCommand(&g),
		server.NewCommand(&g),
		resetpassword.NewCommand(&g),
		sendtestmail.NewCommand(&g),
	)
	return root
}
