package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcash-app/tcash/internal/app"
	"github.com/tcash-app/tcash/internal/export"
	"github.com/tcash-app/tcash/internal/transactions"
)

func newTransactionsCommand(c *cli) *cobra.Command {
	var search, output string

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List transactions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(output)
			if err != nil {
				return err
			}
			return runTransactions(cmd, c, search, format)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only show reference numbers containing this text")
	cmd.Flags().StringVarP(&output, "output", "o", string(export.FormatTable), "output format: table, csv or json")
	cmd.AddCommand(newTransactionsDeleteCommand(c))

	return cmd
}

func runTransactions(cmd *cobra.Command, c *cli, search string, format export.Format) error {
	rt, err := c.open(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.protected(cmd.Context())
	if err != nil {
		return err
	}

	screen := transactions.NewScreen(rt.api, rt.prompt, rt.logger)
	defer screen.Close()
	if err := screen.Mount(cmd.Context(), snap.User().ID); err != nil {
		return shown(cmd, err)
	}
	screen.SetFilter(search)

	if format == export.FormatTable {
		app.RenderTransactions(cmd.OutOrStdout(), screen, time.Local)
		return nil
	}
	return export.Write(cmd.OutOrStdout(), format, screen.Shown(), time.Local)
}

func newTransactionsDeleteCommand(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parsing transaction id %q: %w", args[0], err)
			}
			return runTransactionsDelete(cmd, c, id, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runTransactionsDelete(cmd *cobra.Command, c *cli, id int64, yes bool) error {
	rt, err := c.open(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.protected(cmd.Context())
	if err != nil {
		return err
	}

	screen := transactions.NewScreen(rt.api, rt.prompt, rt.logger)
	defer screen.Close()
	if err := screen.Mount(cmd.Context(), snap.User().ID); err != nil {
		return shown(cmd, err)
	}

	rt.prompt.AssumeYes = yes
	deleted, err := screen.Delete(cmd.Context(), id)
	if err != nil {
		return shown(cmd, err)
	}
	if deleted {
		app.RenderTransactions(cmd.OutOrStdout(), screen, time.Local)
	}
	return nil
}
