package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/dmitrijs2005/eternalvault/internal/client/config"
	"github.com/spf13/cobra"
)

type appFactory func(ctx context.Context, cfg *config.Config) (*App, error)

// Execute runs ev with args, reading from in and writing to out.
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	var app *App
	root := newRootCmd(NewApp, &app, in, out)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if app != nil {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return explain(err)
}

// explain turns transport level failures into something a user can act on.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrUnauthorized):
		if e, ok := api.AsError(err); ok && e.Message != "" && e.Message != api.ErrUnauthorized.Error() {
			return fmt.Errorf("%s (run `ev login`)", e.Message)
		}
		return errors.New("not signed in (run `ev login`)")
	case errors.Is(err, api.ErrUnavailable):
		return fmt.Errorf("%w; check --server or run `ev status`", err)
	}
	return err
}

func newRootCmd(build appFactory, app **App, in io.Reader, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "ev",
		Short: "EternalVault - create time-locked vaults of memories from the terminal",
		Long: `ev talks to an EternalVault server: sign in, walk the vault wizard,
attach files and read your vaults back once they unlock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	flags := config.BindFlags(root.PersistentFlags())

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := flags.Load()
		if err != nil {
			return err
		}
		a, err := build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		a.in = bufio.NewReader(cmd.InOrStdin())
		a.out = cmd.OutOrStdout()
		*app = a
		return nil
	}

	get := func() *App { return *app }
	root.AddCommand(
		registerCmd(get),
		loginCmd(get),
		logoutCmd(get),
		dashboardCmd(get),
		vaultCmd(get),
		createCmd(get),
		attachCmd(get),
		downloadCmd(get),
		statusCmd(get),
	)
	return root
}
