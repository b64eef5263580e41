package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func statusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server and show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Status(cmd.Context())
		},
	}
}

func (a *App) Status(ctx context.Context) error {
	if m, _ := a.probe(ctx); m == ModeOnline {
		success(a.out, "Server %s is online", a.config.ServerURL)
	} else {
		failure(a.out, "Server health endpoint %s is unreachable", a.config.HealthAddr)
	}

	who, err := a.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if who == "" {
		hint(a.out, "Not signed in")
	} else {
		hint(a.out, "Signed in as %s", who)
	}
	return nil
}
