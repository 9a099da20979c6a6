package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/gate"
	"github.com/tcash-app/tcash/internal/session"
)

func newSignInCommand(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, c, email, password, signIn)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")

	return cmd
}

func newSignUpCommand(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, c, email, password, signUp)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (prompted when empty)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")

	return cmd
}

// credentialAction runs a credential flow and reports whether a session
// was obtained.
type credentialAction func(ctx context.Context, rt *runtime, email, password string) (bool, error)

func signIn(ctx context.Context, rt *runtime, email, password string) (bool, error) {
	return true, rt.flow.SignIn(ctx, email, password)
}

func signUp(ctx context.Context, rt *runtime, email, password string) (bool, error) {
	res, err := rt.flow.SignUp(ctx, email, password)
	return !res.NeedsVerification, err
}

// runCredentials guards the action with the public gate: a signed-in user is
// sent on to the home view without being asked anything.
func runCredentials(cmd *cobra.Command, c *cli, email, password string, action credentialAction) error {
	ctx := cmd.Context()
	rt, err := c.open(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, d, err := rt.requireGroup(ctx, gate.Public)
	if err != nil {
		return err
	}
	if d.Redirect == gate.Protected {
		fmt.Fprintf(cmd.OutOrStdout(), "Already signed in as %s.\n", snap.User().Email)
		return showHome(cmd, rt, snap)
	}

	if email == "" {
		if email, err = rt.prompt.ReadLine("Email"); err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
	}
	if password == "" {
		if password, err = rt.prompt.ReadPassword("Password"); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}

	gotSession, err := action(ctx, rt, email, password)
	if err != nil {
		return shown(cmd, err)
	}
	if !gotSession {
		return nil
	}

	snap = rt.store.Snapshot()
	if snap.State != session.Authenticated {
		return errNotSignedIn
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", snap.User().Email)
	return showHome(cmd, rt, snap)
}
