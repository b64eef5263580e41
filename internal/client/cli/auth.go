package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// getSimpleText and getPassword are indirections used by tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func registerCmd(app func() *App) *cobra.Command {
	var email, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Register(cmd.Context(), email, name)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "full name shown on the dashboard")
	return cmd
}

func loginCmd(app func() *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func logoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Logout(cmd.Context())
		},
	}
}

func (a *App) askEmail(email string) (string, error) {
	if email != "" {
		return email, nil
	}
	return getSimpleText(a.in, "Enter email", a.out)
}

// Register prompts for whatever flags did not provide and creates the account.
func (a *App) Register(ctx context.Context, email, fullName string) error {
	email, err := a.askEmail(email)
	if err != nil {
		return err
	}
	password, err := getPassword(a.in, a.out)
	if err != nil {
		return err
	}

	msg, err := a.auth.Register(ctx, email, password, fullName)
	if err != nil {
		return err
	}
	success(a.out, "%s", msg)
	hint(a.out, "Run `ev login -e %s`", email)
	return nil
}

func (a *App) Login(ctx context.Context, email string) error {
	email, err := a.askEmail(email)
	if err != nil {
		return err
	}
	password, err := getPassword(a.in, a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, email, password); err != nil {
		return err
	}
	success(a.out, "Signed in as %s", email)
	hint(a.out, "Run `ev dashboard` or `ev create`")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	success(a.out, "Signed out")
	return nil
}
