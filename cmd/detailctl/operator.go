package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"detail-library/internal/app"
	"detail-library/internal/bootstrap"
	"detail-library/internal/pkg/jwtutil"
)

var (
	operatorPassword string
	operatorRole     string
)

var operatorCmd = &cobra.Command{
	Use:   "operator",
	Short: "Manage operator accounts",
}

var operatorCreateCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create an operator who can sign in for admin tokens",
	Args:  cobra.ExactArgs(1),
	RunE:  runOperatorCreate,
}

func init() {
	operatorCreateCmd.Flags().StringVar(&operatorPassword, "password", "", "operator password (min 8 characters)")
	operatorCreateCmd.Flags().StringVar(&operatorRole, "role", jwtutil.RoleAdmin, "role granted at login")
	_ = operatorCreateCmd.MarkFlagRequired("password")
	operatorCmd.AddCommand(operatorCreateCmd)
	rootCmd.AddCommand(operatorCmd)
}

func runOperatorCreate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
		op, err := a.AuthService.CreateOperator(ctx, app.CreateOperatorInput{
			Username: args[0],
			Password: operatorPassword,
			Role:     operatorRole,
		})
		if err != nil {
			return fmt.Errorf("create operator failed: %w", err)
		}
		cmd.Printf("created operator %s (role %s)\n", op.Username, op.Role)
		return nil
	})
}
