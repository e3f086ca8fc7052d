package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"detail-library/internal/config"
	"detail-library/internal/pkg/jwtutil"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the admin endpoints",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", jwtutil.RoleAdmin, "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (0 uses auth.jwt_expire_minute)")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute
	}
	token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, ttl, tokenSubject, tokenRole)
	if err != nil {
		return err
	}
	cmd.Println(token)
	return nil
}
