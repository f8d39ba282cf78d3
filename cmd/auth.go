package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/tokenmgmt/models"
)

var (
	authUsername  string
	authPassword  string
	authFirstName string
	authRoleID    int64
)

// authCmd groups the authentication commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign up, sign in and refresh access tokens",
	Long: `Authenticate against the API. On success the access token is printed;
pass it back with --token or TOKENMGMT_API_ACCESS_TOKEN.`,
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with username and password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Auth().SignIn(cmd.Context(), authUsername, authPassword)
		if err != nil {
			return fmt.Errorf("sign in failed: %w", err)
		}
		return printAuth(cmd, resp)
	},
}

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Auth().SignUp(cmd.Context(), authFirstName, authUsername, authPassword)
		if err != nil {
			return fmt.Errorf("sign up failed: %w", err)
		}
		return printAuth(cmd, resp)
	},
}

var googleCmd = &cobra.Command{
	Use:   "google <code>",
	Short: "Sign in with a Google authorization code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var roleID *int64
		if cmd.Flags().Changed("role-id") {
			roleID = &authRoleID
		}
		resp, err := client.Auth().SignInWithGoogle(cmd.Context(), args[0], roleID)
		if err != nil {
			return fmt.Errorf("google sign in failed: %w", err)
		}
		return printAuth(cmd, resp)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <refresh-token>",
	Short: "Exchange a refresh token for a new access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Auth().RefreshToken(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("token refresh failed: %w", err)
		}
		return printAuth(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(signInCmd, signUpCmd, googleCmd, refreshCmd)

	for _, c := range []*cobra.Command{signInCmd, signUpCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "username")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "password")
		_ = c.MarkFlagRequired("username")
		_ = c.MarkFlagRequired("password")
	}
	signUpCmd.Flags().StringVar(&authFirstName, "first-name", "", "first name")
	_ = signUpCmd.MarkFlagRequired("first-name")

	googleCmd.Flags().Int64Var(&authRoleID, "role-id", 0, "role to assign on first sign in")
}

func printAuth(cmd *cobra.Command, resp *models.AuthResponse) error {
	p := newPrinter(cmd)

	rec := models.Record{
		"user":          map[string]any(resp.User()),
		"permissions":   resp.Permissions(),
		"access_token":  resp.AccessToken(),
		"refresh_token": resp.RefreshToken(),
	}

	expiry, err := resp.AccessTokenExpiry()
	switch {
	case err == nil:
		rec["expires_at"] = expiry.Format(time.RFC3339)
	case errors.Is(err, models.ErrNoAccessToken), errors.Is(err, models.ErrNoExpiry):
	default:
		logger.Debug().Err(err).Msg("Access token is not a readable JWT")
	}

	if name, ok := resp.Username(); ok {
		p.Success("Authenticated as %s", name)
	}
	return p.Payload(models.NewPayload(map[string]any(rec)))
}
