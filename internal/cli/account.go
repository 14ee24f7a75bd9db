package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/model"
	"go-wanandroid/internal/service"
)

type sessionView struct {
	LoggedIn bool        `json:"logged_in"`
	User     *model.User `json:"user,omitempty"`
}

func newLoginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and keep the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd, bufio.NewReader(cmd.InOrStdin()), "Password"); err != nil {
					return err
				}
			}

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				user, err := stack.Services.Auth.Login(ctx, args[0], password)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), sessionView{LoggedIn: true, User: user}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "logged in as %s\n", user.Username)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(opts *options) *cobra.Command {
	var password, repassword string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			var err error
			if password == "" {
				if password, err = readSecret(cmd, reader, "Password"); err != nil {
					return err
				}
			}
			if repassword == "" {
				if repassword, err = readSecret(cmd, reader, "Confirm password"); err != nil {
					return err
				}
			}

			if err := service.ValidateRegistration(args[0], password, repassword); err != nil {
				return err
			}

			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				user, err := stack.Services.Auth.Register(ctx, args[0], password, repassword)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), sessionView{LoggedIn: true, User: user}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "registered and logged in as %s\n", user.Username)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&repassword, "repassword", "", "password confirmation (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				if err := stack.Services.Auth.Logout(ctx); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), sessionView{}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, "logged out")
					return err
				})
			})
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(ctx context.Context, stack *app.Stack) error {
				user, err := stack.Services.Auth.CurrentUser(ctx)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), sessionView{LoggedIn: user != nil, User: user}, func(w io.Writer) error {
					return printUser(w, user)
				})
			})
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the gateway",
		Long: `token signs a gateway bearer token with GATEWAY_SECRET. The gateway only
checks tokens when the same secret is configured there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withStack(cmd, func(_ context.Context, stack *app.Stack) error {
				if stack.Config.GatewaySecret == "" {
					return errors.New("GATEWAY_SECRET is not set")
				}
				if ttl <= 0 {
					ttl = stack.Config.GatewayTokenTTL
				}

				tokens, err := service.NewTokenService(stack.Config.GatewaySecret, ttl)
				if err != nil {
					return err
				}
				token, err := tokens.Issue(subject)
				if err != nil {
					return err
				}

				return opts.emit(cmd.OutOrStdout(), token, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, token.AccessToken)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "wanctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to GATEWAY_TOKEN_TTL)")
	return cmd
}
