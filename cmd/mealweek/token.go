package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/mealweek/internal/auth"
)

const defaultTokenTTL = 24 * time.Hour

var (
	tokenUser  string
	tokenEmail string
	tokenName  string
	tokenTTL   time.Duration
)

// tokenCmd prints a bearer token signed with the configured secret, for local
// development against the API and the terminal client.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user",
	Example: `  mealweek token --user alice --name Alice
  MEALWEEK_TOKEN=$(mealweek token --user alice) mealweek-tui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
		token, err := v.Issue(auth.AuthContext{UserID: tokenUser, Email: tokenEmail, Name: tokenName}, tokenTTL)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
