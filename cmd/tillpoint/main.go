package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tillpoint/tillpoint/internal/interfaces/cli/events"
	"github.com/tillpoint/tillpoint/internal/interfaces/cli/migrate"
	"github.com/tillpoint/tillpoint/internal/interfaces/cli/server"
	"github.com/tillpoint/tillpoint/internal/interfaces/cli/sweep"
	"github.com/tillpoint/tillpoint/internal/interfaces/cli/token"
)

// @title Tillpoint Subscription API
// @version 1.0
// @description Subscription lifecycle and access enforcement for point-of-sale tenants.
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	rootCmd := &cobra.Command{
		Use:          "tillpoint",
		Short:        "Tillpoint - subscription lifecycle and access enforcement",
		Long:         `Tillpoint keeps tenant subscriptions and their status mirrors consistent, and answers what each tenant may do right now.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sweep.NewCommand(),
		token.NewCommand(),
		events.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
