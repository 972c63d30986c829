package main

import (
	"fmt"

	"github.com/dimitrije/credvault/internal/config"
	"github.com/dimitrije/credvault/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenEmail string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	Long: `Token signs an access token with JWT_SECRET. It is meant for local
development and smoke tests; production identities come from the auth service.`,
	Example: `  vaultctl token --user 6f1c... --email dev@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := uuid.New()
		if tokenUser != "" {
			id, err := uuid.Parse(tokenUser)
			if err != nil {
				return fmt.Errorf("invalid user id %q", tokenUser)
			}
			userID = id
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		tok, err := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry).IssueAccessToken(userID, tokenEmail)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "user_id:    %s\n", userID)
		fmt.Fprintf(out, "expires_at: %s\n", tok.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
		fmt.Fprintf(out, "token:      %s\n", tok.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User ID (random if omitted)")
	tokenCmd.Flags().StringVarP(&tokenEmail, "email", "e", "", "Email claim")
}
