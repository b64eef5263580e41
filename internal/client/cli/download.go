package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/spf13/cobra"
)

func downloadCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "download <vault-id>",
		Short: "Save a vault's files to the download directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Download(cmd.Context(), args[0])
		},
	}
}

func (a *App) Download(ctx context.Context, id string) error {
	var (
		v     *api.VaultView
		paths []string
	)
	err := withSpinner(a.out, "Downloading...", func() error {
		var err error
		v, paths, err = a.vaults.Download(ctx, id)
		return err
	})
	for _, p := range paths {
		fmt.Fprintf(a.out, "  %s\n", p)
	}
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		warning(a.out, "Vault %q has no files", v.Title)
		return nil
	}
	success(a.out, "Saved %d file(s) from %q", len(paths), v.Title)
	return nil
}
