// Package setup implements the "traveldiary setup" subcommand.
package setup

import (
	"fmt"

	"github.com/spf13/cobra"

	"traveldiary/internal/cmd/cli"
	isetup "traveldiary/internal/setup"
)

type Options struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	PasswordEnv   bool
	TLSDir        string
}

func NewCommand(g *cli.Globals) *cobra.Command {
	var opt Options
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the database and the first admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.Load(cmd)
			if err != nil {
				return err
			}
			res, err := isetup.Run(cmd.Context(), isetup.Options{
				DBPath:        c.DB.Path,
				UploadsDir:    c.Uploads.Dir,
				AdminUsername: opt.AdminUsername,
				AdminEmail:    opt.AdminEmail,
				AdminPassword: opt.AdminPassword,
				PasswordEnv:   opt.PasswordEnv,
				TLSDir:        opt.TLSDir,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "created admin %q in %s\n", res.Admin.Username, c.DB.Path)
			if res.CertPath != "" {
				fmt.Fprintf(out, "tls certificate: %s\ntls key: %s\n", res.CertPath, res.KeyPath)
				fmt.Fprintln(out, "set http.tls.cert_path and http.tls.key_path to serve HTTPS")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opt.AdminUsername, "admin-username", "admin", "admin account username")
	f.StringVar(&opt.AdminEmail, "admin-email", "", "admin account email (required)")
	f.StringVar(&opt.AdminPassword, "password", "", "set admin password non-interactively")
	f.BoolVar(&opt.PasswordEnv, "password-env", false, "read admin password from "+isetup.EnvPassword)
	f.StringVar(&opt.TLSDir, "tls-dir", "", "generate a self-signed TLS pair in this directory")
	_ = cmd.MarkFlagRequired("admin-email")
	return cmd
}
