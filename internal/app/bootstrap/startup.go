// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/linguashift/internal/app/features/accounts"
	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}
	if appCfg.BootstrapAdminEmail == "" {
		return nil
	}
	return ensureBootstrapAdmin(ctx, deps, appCfg, bcrypt.DefaultCost, logger)
}

// ensureBootstrapAdmin registers the configured admin and their organization
// unless an account with that email already exists. Existing accounts are
// left untouched; the password is never reset from config.
func ensureBootstrapAdmin(ctx context.Context, deps DBDeps, appCfg AppConfig, bcryptCost int, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	existing, err := users.GetByEmail(ctx, appCfg.BootstrapAdminEmail)
	if err == nil {
		logger.Info("bootstrap admin already exists",
			zap.String("user_id", existing.ID.Hex()),
			zap.String("role", existing.Role))
		return nil
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	user, org, err := accounts.Register(ctx, deps.MongoDatabase, logger, accounts.RegisterInput{
		Name:             appCfg.BootstrapAdminName,
		Email:            appCfg.BootstrapAdminEmail,
		Password:         appCfg.BootstrapAdminPassword,
		OrganizationName: appCfg.BootstrapOrgName,
	}, bcryptCost)
	if err != nil {
		logger.Error("bootstrap admin registration failed", zap.Error(err))
		return err
	}
	logger.Info("bootstrap admin created",
		zap.String("user_id", user.ID.Hex()),
		zap.String("organization_id", org.ID.Hex()))
	return nil
}
