package token

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tillpoint/tillpoint/internal/infrastructure/auth"
	"github.com/tillpoint/tillpoint/internal/interfaces/bootstrap"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

var (
	env        string
	configPath string
	tenantID   string
	admin      bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Long: `Sign an access token with the configured JWT secret. Member tokens are
bound to --tenant; --admin issues a token for the admin endpoints.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "Tenant the token is bound to")
	cmd.Flags().BoolVar(&admin, "admin", false, "Issue an admin token")

	return cmd
}

func role() string {
	if admin {
		return constants.RoleAdmin
	}
	return constants.RoleMember
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Init(bootstrap.ResolveEnv(env), configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	jwtSvc := auth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	signed, err := jwtSvc.Generate(tenantID, role())
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	log.Infow("access token issued",
		"tenant_id", tenantID,
		"role", role(),
		"expires_in_minutes", jwtSvc.AccessExpMinutes(),
	)
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
