// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/dalemusser/linguashift/internal/app/features/accounts"
	channelsfeature "github.com/dalemusser/linguashift/internal/app/features/channels"
	clarityfeature "github.com/dalemusser/linguashift/internal/app/features/clarity"
	healthfeature "github.com/dalemusser/linguashift/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/linguashift/internal/app/features/organizations"
	usersfeature "github.com/dalemusser/linguashift/internal/app/features/users"
	"github.com/dalemusser/linguashift/internal/app/store/audit"
	messagestore "github.com/dalemusser/linguashift/internal/app/store/messages"
	"github.com/dalemusser/linguashift/internal/app/system/auditlog"
	"github.com/dalemusser/linguashift/internal/app/system/auth"
	"github.com/dalemusser/linguashift/internal/app/system/jargon"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Linguashift serves a JSON API under /api plus /health. Session middleware
// loads the caller from the cookie or a bearer token on every request.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	if appCfg.TokenSecret != "" {
		tokens, err := auth.NewTokens(appCfg.TokenSecret, appCfg.TokenTTL)
		if err != nil {
			logger.Error("token signer init failed", zap.Error(err))
			return nil, err
		}
		sessionMgr.UseTokens(tokens)
	}

	db := deps.MongoDatabase
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Content: appCfg.AuditLogContent,
	})
	limiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.LoginIPLimit, appCfg.LoginIPWindow,
		appCfg.LoginEmailLimit, appCfg.LoginEmailWindow)

	annotator := jargon.NewAnnotator(buildDetector(appCfg, deps, logger), logger.Named("annotator"))
	rewriter, err := buildRewriter(appCfg, logger)
	if err != nil {
		logger.Error("rewrite service init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, appCfg.DetectorMode(), rewriter != nil, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		accountsHandler := accountsfeature.NewHandler(db, sessionMgr, limiter, auditLogger, logger)
		api.Mount("/auth", accountsfeature.Routes(accountsHandler, sessionMgr))

		usersHandler := usersfeature.NewHandler(db, logger)
		api.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

		orgHandler := organizationsfeature.NewHandler(db, auditLogger, logger)
		api.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

		clarityHandler := clarityfeature.NewHandler(db, annotator, rewriter, logger)
		api.Mount("/ml", clarityfeature.Routes(clarityHandler, sessionMgr))

		channelsHandler := channelsfeature.NewHandler(db, auditLogger, logger,
			messagestore.EnforceMembership(appCfg.EnforceChannelMembership))
		api.Mount("/channels", channelsfeature.Routes(channelsHandler, sessionMgr))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			jsonapi.WriteStatus(w, http.StatusNotFound, jsonapi.CodeNotFound, "no such endpoint")
		})
	})

	return r, nil
}
