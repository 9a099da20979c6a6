package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/app"
	"github.com/tcash-app/tcash/internal/dashboard"
	"github.com/tcash-app/tcash/internal/session"
)

func newHomeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show the balance and recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.protected(cmd.Context())
			if err != nil {
				return err
			}
			return showHome(cmd, rt, snap)
		},
	}
}

func showHome(cmd *cobra.Command, rt *runtime, snap session.Snapshot) error {
	loader := dashboard.NewLoader(rt.api, rt.logger)
	defer loader.Close()

	v := loader.Focus(cmd.Context(), snap.User().ID)
	app.RenderHome(cmd.OutOrStdout(), snap.User(), v, time.Now(), time.Local)
	return nil
}
