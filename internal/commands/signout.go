package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignOutCommand(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignOut(cmd, c, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runSignOut(cmd *cobra.Command, c *cli, yes bool) error {
	rt, err := c.open(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.protected(cmd.Context()); err != nil {
		return err
	}

	rt.prompt.AssumeYes = yes
	ok, err := rt.flow.SignOut(cmd.Context())
	if err != nil {
		return shown(cmd, err)
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}
