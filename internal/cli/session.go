package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/validation"
)

var (
	errLoginFailed  = errors.New("login failed")
	errVerifyFailed = errors.New("token verification failed, session cleared")
)

func (r *runner) registerCmd() *cobra.Command {
	var reg model.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backend",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if err := validation.Struct(reg); err != nil {
				return errors.New(validation.Message(err))
			}
			resp, err := r.app.Session.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}

	cmd.Flags().StringVar(&reg.Name, "name", "", "display name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password, at least 6 characters")

	return cmd
}

func (r *runner) loginCmd() *cobra.Command {
	var creds model.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the token in durable storage",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if !r.app.Session.Login(cmd.Context(), creds) {
				return errLoginFailed
			}
			// профиль появляется только после проверки токена
			if !r.app.Session.VerifyToken(cmd.Context()) {
				return errVerifyFailed
			}
			return r.printSession(cmd)
		}),
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password")

	return cmd
}

func (r *runner) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Renew the stored token and load the user profile",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if !r.app.Session.VerifyToken(cmd.Context()) {
				return errVerifyFailed
			}
			return r.printSession(cmd)
		}),
	}
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if err := r.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session state",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			return r.printSession(cmd)
		}),
	}
}

func (r *runner) printSession(cmd *cobra.Command) error {
	s := r.app.Session
	out := struct {
		State string             `json:"state"`
		User  *model.UserProfile `json:"user,omitempty"`
	}{State: s.State().String(), User: s.Session().User}

	return printJSON(cmd.OutOrStdout(), out)
}
