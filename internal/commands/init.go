package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/config"
	"github.com/tcash-app/tcash/internal/storage"
)

func newInitCommand(c *cli) *cobra.Command {
	var apiURL, authURL, anonKey, driver string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a tcash config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			if authURL != "" {
				cfg.Auth.URL = authURL
			}
			if anonKey != "" {
				cfg.Auth.AnonKey = anonKey
			}
			if driver != "" {
				cfg.Storage.Driver = driver
			}
			return runInit(cmd, c.configPath, cfg, force)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "wallet API base URL")
	cmd.Flags().StringVar(&authURL, "auth-url", "", "auth service URL, e.g. https://<ref>.supabase.co")
	cmd.Flags().StringVar(&anonKey, "anon-key", "", "auth service anon key")
	cmd.Flags().StringVar(&driver, "storage", "", "session storage: file, sqlite or memory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, path string, cfg *config.Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	switch cfg.Storage.Driver {
	case storage.DriverFile, storage.DriverSQLite, storage.DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote config to %s\n", path)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Still missing:\n%v\n", err)
	}
	return nil
}
