// Package resetpassword implements the "traveldiary reset-password"
// subcommand. It resets a user's password directly in the SQLite database.
package resetpassword

import (
	"fmt"

	"github.com/spf13/cobra"

	"traveldiary/internal/cmd/cli"
	isetup "traveldiary/internal/setup"
)

// Options captures CLI flags for a password reset.
// Password and PasswordEnv are mutually exclusive by usage.
type Options struct {
	Password    string
	PasswordEnv bool
}

func NewCommand(g *cli.Globals) *cobra.Command {
	var opt Options
	cmd := &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Reset a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.Load(cmd)
			if err != nil {
				return err
			}
			if err := isetup.ResetPassword(cmd.Context(), isetup.ResetPasswordOptions{
				DBPath:      c.DB.Path,
				Username:    args[0],
				Password:    opt.Password,
				PasswordEnv: opt.PasswordEnv,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&opt.Password, "password", "", "set password non-interactively")
	cmd.Flags().BoolVar(&opt.PasswordEnv, "password-env", false, "read password from "+isetup.EnvPassword)
	return cmd
}
