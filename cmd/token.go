package cmd

import (
	"fmt"

	"github.com/frahmantamala/asset-lifecycle/internal/auth"
	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenEmail string
	tokenRoles []string
)

// tokenCmd signs a token with the configured private key. Production tokens
// come from the identity provider; this is for local development.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		tokens, err := auth.NewJWTTokenGenerator(cfg.Security)
		if err != nil {
			return err
		}
		token, err := tokens.GenerateAccessToken(tokenUser, tokenEmail, tokenRoles)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "dev-user", "subject claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "roles", []string{"admin"}, "comma separated roles: admin, hr, it, auditor")
}
