package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonuar/Donacrypto/internal/app"
	"github.com/jonuar/Donacrypto/internal/core/domain"
	"github.com/jonuar/Donacrypto/internal/core/ports"
)

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var (
		email    string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}
			password, err := readSecret(cmd, "Password: ")
			if err != nil {
				return err
			}

			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			in := ports.LoginInput{Email: email, Password: password, RememberMe: remember}
			if err := a.Session.Login(cmd.Context(), in); err != nil {
				return err
			}

			s := a.Session.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", s.User.Username, s.User.Role)
			if s.Policy != domain.PersistenceDurable {
				fmt.Fprintln(cmd.ErrOrStderr(), "session is not remembered; it ends when this process exits")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&remember, "remember", false, "keep the session in the durable store")
	return cmd
}

// restore opens the app and restores the stored session, failing when none
// is authenticated.
func restore(cmd *cobra.Command, flags *globalFlags) (*app.App, error) {
	a, err := bootstrap(cmd, flags)
	if err != nil {
		return nil, err
	}
	if err := a.Session.Initialize(cmd.Context()); err != nil {
		_ = a.Close(cmd.Context())
		return nil, err
	}
	if !a.Session.IsAuthenticated() {
		_ = a.Close(cmd.Context())
		return nil, errors.New("not logged in")
	}
	return a, nil
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			// Logout never calls the backend; both scopes are cleared even
			// when no session was restored.
			a.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := restore(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			s := a.Session.Snapshot()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"user":               s.User,
				"role":               s.Role(),
				"persistence_policy": s.Policy,
				"is_creator":         s.User.IsCreator(),
				"is_follower":        s.User.IsFollower(),
			})
		},
	}
}

func newDeleteAccountCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Permanently delete the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete the account without --yes")
			}
			password, err := readSecret(cmd, "Confirm password: ")
			if err != nil {
				return err
			}

			a, err := restore(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			if err := a.Session.DeleteAccount(cmd.Context(), password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	return cmd
}
