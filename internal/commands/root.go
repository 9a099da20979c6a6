package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/app"
	"github.com/tcash-app/tcash/internal/buildinfo"
	"github.com/tcash-app/tcash/internal/config"
	"github.com/tcash-app/tcash/internal/logging"
)

// skipValidation marks commands that run without a complete config.
const skipValidation = "tcash/skip-validation"

// errNotSignedIn is returned by commands that need a session.
var errNotSignedIn = errors.New("not signed in")

// cli holds what the persistent pre-run resolved for the subcommands.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	c := &cli{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:     "tcash",
		Short:   "Cash in / cash out wallet in the terminal",
		Long:    "tcash signs you in to your wallet and shows your balance and transactions.\nRun it without a command for the interactive shell.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:      true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShell(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tcash/tcash.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newInitCommand(c),
		newStatusCommand(c),
		newSignInCommand(c),
		newSignUpCommand(c),
		newSignOutCommand(c),
		newHomeCommand(c),
		newTransactionsCommand(c),
	)

	return rootCmd
}

// setup loads the config, applies the environment and builds the logger.
// A config missing required settings stops every command but init.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if c.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		c.configPath = path
	}

	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.New(cmd.ErrOrStderr(), level)

	if cmd.Annotations[skipValidation] == "true" {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		c.logger.Error().Err(err).Str("config", c.configPath).Msg("invalid configuration")
		return fmt.Errorf("invalid configuration (run tcash init): %w", err)
	}
	return nil
}

func (c *cli) runShell(cmd *cobra.Command) error {
	rt, err := c.open(cmd, c.cfg.Auth.AutoRefresh)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	rt.store.Start(ctx)
	watchForeground(ctx, rt.store)
	sh := app.NewShell(app.Deps{
		Store:  rt.store,
		Flow:   rt.flow,
		API:    rt.api,
		Prompt: rt.prompt,
		Logger: c.logger,
	})
	defer sh.Close()
	return sh.Run(ctx)
}

// shown marks err as already reported to the user so cobra does not print it again.
func shown(cmd *cobra.Command, err error) error {
	if err != nil {
		cmd.SilenceErrors = true
	}
	return err
}
