package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrisnap/backend/config"
	httpDelivery "github.com/nutrisnap/backend/internal/delivery/http"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token [username]",
	Short: "Issue a bearer token for a user",
	Long: `Signs an HS256 token with the configured JWT secret. The token identifies
the diary owner on every /api/v1 request.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT secret is not configured (set NUTRISNAP_AUTH_JWT_SECRET)")
	}

	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := httpDelivery.IssueToken([]byte(cfg.Auth.JWTSecret), args[0], ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
