// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/linguashift/internal/app/features/accounts"
	"github.com/dalemusser/linguashift/internal/app/system/auditlog"
	"github.com/dalemusser/linguashift/internal/app/system/rewrite"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// devSessionKey is the session_key default; production refuses to start
// with it.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for Linguashift.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, detector_url, etc.
//   - Environment variables: LINGUASHIFT_MONGO_URI, LINGUASHIFT_DETECTOR_URL, etc.
//   - Command-line flags: --mongo_uri, --detector_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "linguashift", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "linguashift-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// API tokens
	{Name: "token_secret", Default: "", Desc: "HMAC secret for bearer tokens (blank disables tokens)"},
	{Name: "token_ttl", Default: "24h", Desc: "Bearer token lifetime"},

	// Login throttling
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Per-IP login window"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts allowed per email per window"},
	{Name: "login_email_window", Default: "5m", Desc: "Per-email login window"},

	// Jargon detection
	{Name: "detector_url", Default: "", Desc: "Jargon detection service base URL (blank uses the built-in heuristic)"},
	{Name: "detector_timeout", Default: "10s", Desc: "Per-call timeout for the detection service"},
	{Name: "detector_rps", Default: "5", Desc: "Outgoing detection requests per second (0 disables throttling)"},
	{Name: "detector_burst", Default: 10, Desc: "Detection request burst size"},

	// Annotation cache
	{Name: "redis_url", Default: "", Desc: "Redis URL for the annotation cache (blank disables caching)"},
	{Name: "annotation_cache_ttl", Default: "10m", Desc: "How long cached annotations are kept"},

	// Rewrite
	{Name: "openai_api_key", Default: "", Desc: "API key for the generative rewrite service (blank disables rewriting)"},
	{Name: "openai_base_url", Default: "", Desc: "OpenAI-compatible base URL (blank uses api.openai.com)"},
	{Name: "openai_model", Default: rewrite.DefaultModel, Desc: "Chat completion model used for rewrites"},
	{Name: "openai_temperature", Default: "0.4", Desc: "Sampling temperature for rewrites"},
	{Name: "rewrite_timeout", Default: "20s", Desc: "Per-call timeout for the rewrite service"},

	// Ledger
	{Name: "enforce_channel_membership", Default: true, Desc: "Reject messages from senders who are not channel members"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_content", Default: "all", Desc: "Content event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Bootstrap admin
	{Name: "bootstrap_admin_email", Default: "", Desc: "Email of an admin account to create on startup"},
	{Name: "bootstrap_admin_password", Default: "", Desc: "Password for the bootstrap admin"},
	{Name: "bootstrap_admin_name", Default: "Administrator", Desc: "Display name for the bootstrap admin"},
	{Name: "bootstrap_org_name", Default: "Default Organization", Desc: "Organization created for the bootstrap admin"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, LINGUASHIFT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LINGUASHIFT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	rps, err := strconv.ParseFloat(appValues.String("detector_rps"), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("detector_rps: %w", err)
	}
	temperature, err := strconv.ParseFloat(appValues.String("openai_temperature"), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("openai_temperature: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		TokenSecret: appValues.String("token_secret"),
		TokenTTL:    appValues.Duration("token_ttl", 24*time.Hour),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 5*time.Minute),

		DetectorURL:     appValues.String("detector_url"),
		DetectorTimeout: appValues.Duration("detector_timeout", 10*time.Second),
		DetectorRPS:     rps,
		DetectorBurst:   appValues.Int("detector_burst"),

		RedisURL:           appValues.String("redis_url"),
		AnnotationCacheTTL: appValues.Duration("annotation_cache_ttl", 10*time.Minute),

		OpenAIAPIKey:      appValues.String("openai_api_key"),
		OpenAIBaseURL:     appValues.String("openai_base_url"),
		OpenAIModel:       appValues.String("openai_model"),
		OpenAITemperature: temperature,
		RewriteTimeout:    appValues.Duration("rewrite_timeout", 20*time.Second),

		EnforceChannelMembership: appValues.Bool("enforce_channel_membership"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogContent: appValues.String("audit_log_content"),

		BootstrapAdminEmail:    appValues.String("bootstrap_admin_email"),
		BootstrapAdminPassword: appValues.String("bootstrap_admin_password"),
		BootstrapAdminName:     appValues.String("bootstrap_admin_name"),
		BootstrapOrgName:       appValues.String("bootstrap_org_name"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Linguashift validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateAppConfig(coreCfg.Env, appCfg)
}

// validateAppConfig holds the checks that do not need WAFFLE types.
func validateAppConfig(env string, appCfg AppConfig) error {
	if env == "prod" && appCfg.SessionKey == devSessionKey {
		return fmt.Errorf("session_key must be changed in production")
	}
	if appCfg.TokenSecret != "" && len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 characters")
	}
	if appCfg.DetectorRPS < 0 {
		return fmt.Errorf("detector_rps must not be negative")
	}
	if appCfg.OpenAITemperature < 0 || appCfg.OpenAITemperature > 2 {
		return fmt.Errorf("openai_temperature must be between 0 and 2")
	}
	for name, mode := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_content": appCfg.AuditLogContent,
	} {
		switch mode {
		case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s: unknown mode %q", name, mode)
		}
	}
	if (appCfg.BootstrapAdminEmail == "") != (appCfg.BootstrapAdminPassword == "") {
		return fmt.Errorf("bootstrap_admin_email and bootstrap_admin_password must be set together")
	}
	if appCfg.BootstrapAdminPassword != "" && len([]rune(appCfg.BootstrapAdminPassword)) < accounts.MinPasswordLen {
		return fmt.Errorf("bootstrap_admin_password must be at least %d characters", accounts.MinPasswordLen)
	}
	return nil
}
