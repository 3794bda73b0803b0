// Package config defines the configuration for the Teltrip reporting service.
// Configuration is loaded once at process start and is immutable thereafter,
// following 12-Factor principles.
//
// Values are resolved via a priority chain: OS environment (highest), then a
// dotenv file. Server-level settings are validated eagerly at load time.
// The OCS credentials (base URL, token, default account ID) are deliberately
// NOT validated at load: they are checked lazily on first use so a missing
// value surfaces as a descriptive per-call configuration error.
package config

import (
	"time"

	"teltrip/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the service. Sub-components
// receive only the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server ServerConfig
	OCS    OCSConfig
	Auth   AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// CORSAllowedOrigins is consulted by the CORS middleware; "*" allows all.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// OCSConfig holds the upstream Online Charging System endpoint settings.
// BaseURL, Token, and DefaultAccountID are validated lazily on first use.
type OCSConfig struct {
	BaseURL string       `envconfig:"OCS_BASE_URL"`
	Token   SecretString `envconfig:"OCS_TOKEN"`
	// DefaultAccountID is used when a request does not name an account.
	// Zero means "no default"; the aggregation call then fails validation.
	DefaultAccountID int64 `envconfig:"OCS_ACCOUNT_ID"`
	// Timeout is the per-call upstream timeout, enforced via context
	// cancellation on each in-flight request.
	Timeout time.Duration `envconfig:"OCS_TIMEOUT" default:"25s"`
}

// AuthConfig holds dashboard login credentials and session settings.
// Username/PasswordHash empty disables the login requirement (local dev).
type AuthConfig struct {
	Username     string       `envconfig:"DASHBOARD_USERNAME"`
	PasswordHash SecretString `envconfig:"DASHBOARD_PASSWORD_HASH"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h"`
}

// LoginEnabled reports whether the dashboard login flow is configured.
func (a AuthConfig) LoginEnabled() bool {
	return a.Username != "" && a.PasswordHash.Unmask() != ""
}
