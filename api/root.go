package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command of the accounts service.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account registration, email verification and login API",
		Long: `accounts registers users, confirms their email address through a
verification link and issues signed session tokens on login.

Configuration is read from the environment (JWT_SECRET, FRONTEND_URL,
STORE, MONGO_URI, DATABASE_URL, ...).`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
