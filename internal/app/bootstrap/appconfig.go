// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration (ports, TLS, logging level,
// CORS and body limits live in CoreConfig).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: linguashift-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bearer tokens for lsctl and other API clients. An empty secret
	// disables token issuing; cookie sessions still work.
	TokenSecret string
	TokenTTL    time.Duration

	// Login throttling
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Jargon detection service. Blank URL selects the built-in heuristic
	// detector.
	DetectorURL     string
	DetectorTimeout time.Duration
	DetectorRPS     float64
	DetectorBurst   int

	// Annotation cache. Blank URL disables caching.
	RedisURL           string
	AnnotationCacheTTL time.Duration

	// Generative rewrite service (OpenAI-compatible). Blank key disables
	// rewriting.
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAITemperature float64
	RewriteTimeout    time.Duration

	// Reject messages from senders who are not channel members.
	EnforceChannelMembership bool

	// Audit logging modes: all, db, log, off
	AuditLogAuth    string
	AuditLogContent string

	// Bootstrap admin: when email and password are set, Startup registers
	// this account and its organization if the email is unknown.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string
	BootstrapOrgName       string
}

// DetectorMode names the jargon detector the config selects.
func (c AppConfig) DetectorMode() string {
	if c.DetectorURL == "" {
		return "heuristic"
	}
	return "remote"
}
