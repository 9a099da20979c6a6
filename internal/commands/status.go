package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session and configuration in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, c)
		},
	}
}

func runStatus(cmd *cobra.Command, c *cli) error {
	rt, err := c.open(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.wait(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config:   %s\n", c.configPath)
	fmt.Fprintf(out, "API:      %s\n", c.cfg.API.BaseURL)
	fmt.Fprintf(out, "Auth:     %s\n", c.cfg.Auth.URL)
	fmt.Fprintf(out, "Storage:  %s\n", c.cfg.StorageDriver())
	fmt.Fprintf(out, "Session:  %s\n", snap.State)
	if snap.Session != nil {
		fmt.Fprintf(out, "User:     %s\n", snap.Session.User.Email)
		if exp := snap.Session.Expiry(); !exp.IsZero() {
			fmt.Fprintf(out, "Expires:  %s\n", exp.Local().Format(time.RFC1123))
		}
	}
	return nil
}
