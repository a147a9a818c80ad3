// Package sendtestmail implements the "traveldiary send-test-mail"
// subcommand, which checks the SMTP settings end to end.
package sendtestmail

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"traveldiary/internal/cmd/cli"
	"traveldiary/internal/mail"
)

func NewCommand(g *cli.Globals) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send-test-mail <recipient>",
		Short: "Send a test message with the configured SMTP settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.Load(cmd)
			if err != nil {
				return err
			}
			lg, err := g.Logger(c)
			if err != nil {
				return err
			}
			s := mail.NewSender(mail.Config{
				Host:     c.Mail.Host,
				Port:     c.Mail.Port,
				UseTLS:   c.Mail.TLSEnabled(),
				Username: c.Mail.Username,
				Password: c.Mail.Password,
				From:     c.Mail.From,
			})
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			err = s.Send(ctx, mail.Message{
				To:      args[0],
				Subject: "Smart Travel Diary test message",
				Body:    "Your mail settings work. Incident alerts will be delivered from this address.",
			})
			if err != nil {
				lg.Error("send test mail", "to", args[0], "host", c.Mail.Host, "err", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent test message to %s via %s:%d\n", args[0], c.Mail.Host, c.Mail.Port)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall send timeout")
	return cmd
}
