package authclient

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds client options. Zero values fall back to defaults in New,
// except BaseURL which is required.
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/api.
	BaseURL string `env:"AUTHCLIENT_BASE_URL"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `env:"AUTHCLIENT_TIMEOUT" envDefault:"30s"`
	// UserAgent is sent on every request.
	UserAgent string `env:"AUTHCLIENT_USER_AGENT" envDefault:"go-authclient"`
	// CredentialsPath is the SQLite file backing the durable credential
	// store. Empty means an in-memory store (session does not survive
	// restarts).
	CredentialsPath string `env:"AUTHCLIENT_CREDENTIALS_PATH"`
	// PhoneRegion is the default region for normalizing phone-number logins.
	PhoneRegion string `env:"AUTHCLIENT_PHONE_REGION" envDefault:"US"`
	// Debug enables request payload logging.
	Debug bool `env:"AUTHCLIENT_DEBUG" envDefault:"false"`
}

// ConfigFromEnv loads configuration from AUTHCLIENT_* environment variables.
func ConfigFromEnv() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse config from environment")
	}

	return &cfg, nil
}

// Validate checks the configuration before a client is built.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.BaseURL,
			validation.Required,
			is.URL,
		),
	)
}
