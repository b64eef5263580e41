package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eternalvault/internal/client/api"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func dashboardCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ls"},
		Short:   "Show your vaults",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Dashboard(cmd.Context())
		},
	}
}

func vaultCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "vault <id>",
		Short: "Show one vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().ShowVault(cmd.Context(), args[0])
		},
	}
}

func unlockLabel(v api.VaultView) string {
	if v.ReadyToOpen {
		return color.GreenString(v.UnlockLabel)
	}
	return color.YellowString(v.UnlockLabel)
}

func (a *App) Dashboard(ctx context.Context) error {
	var d *api.Dashboard
	err := withSpinner(a.out, "Loading dashboard...", func() error {
		var err error
		d, err = a.vaults.Dashboard(ctx)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, color.CyanString("Welcome back, %s", d.WelcomeName))
	fmt.Fprintf(a.out, "  Active Vaults: %d   Guardians: %d   Memories Saved: %d\n\n",
		d.Stats.ActiveVaults, d.Stats.Guardians, d.Stats.MemoriesSaved)

	if len(d.Vaults) == 0 {
		fmt.Fprintln(a.out, "You have no vaults yet.")
	}
	for _, v := range d.Vaults {
		fmt.Fprintf(a.out, "%s  %s  unlocks %s (%s)\n", color.YellowString(v.ID), v.Title, v.UnlockDate, unlockLabel(v))
		if v.Description != "" {
			fmt.Fprintf(a.out, "    %s\n", v.Description)
		}
		fmt.Fprintf(a.out, "    %d guardian(s), %d file(s)\n", len(v.Guardians), len(v.Files))
	}

	if len(d.QuickActions) > 0 {
		fmt.Fprintln(a.out)
	}
	for _, q := range d.QuickActions {
		hint(a.out, "%s: ev create (%s)", q.Label, q.Href)
	}
	return nil
}

func (a *App) ShowVault(ctx context.Context, id string) error {
	v, err := a.vaults.Vault(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, color.CyanString(v.Title))
	fmt.Fprintf(a.out, "  id:        %s\n", v.ID)
	fmt.Fprintf(a.out, "  status:    %s\n", v.Status)
	fmt.Fprintf(a.out, "  unlocks:   %s (%s)\n", v.UnlockDate, unlockLabel(*v))
	fmt.Fprintf(a.out, "  created:   %s\n", v.CreatedAt.Format("2006-01-02 15:04"))
	if v.Description != "" {
		fmt.Fprintf(a.out, "  about:     %s\n", v.Description)
	}
	if len(v.Guardians) > 0 {
		fmt.Fprintf(a.out, "  guardians: %s\n", strings.Join(v.Guardians, ", "))
	}
	for _, f := range v.Files {
		fmt.Fprintf(a.out, "  file:      %s\n", f.Name)
	}
	if v.ReadyToOpen && v.Message != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, v.Message)
	}
	if len(v.Files) > 0 {
		fmt.Fprintln(a.out)
		hint(a.out, "Run `ev download %s` to save the files", v.ID)
	}
	return nil
}
