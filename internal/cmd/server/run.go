// Package server implements the "traveldiary server" subcommand.
package server

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"traveldiary/internal/cmd/cli"
	"traveldiary/internal/daemon"
)

type Options struct {
	Bind string
	Port int
}

func NewCommand(g *cli.Globals) *cobra.Command {
	var opt Options
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web server",
		Long: `Run the travel diary web server until interrupted.

Flags override the matching values from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.Load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bind") {
				c.HTTP.Bind = opt.Bind
			}
			if cmd.Flags().Changed("port") {
				c.HTTP.Port = opt.Port
			}
			lg, err := g.Logger(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return daemon.Run(ctx, daemon.Options{Config: c, Logger: lg})
		},
	}
	cmd.Flags().StringVar(&opt.Bind, "bind", "127.0.0.1", "bind address")
	cmd.Flags().IntVar(&opt.Port, "port", 5000, "HTTP port")
	return cmd
}
