package requestor

import (
	"github.com/kbukum/objfetch/resilience"
	"github.com/kbukum/objfetch/security"
	"github.com/kbukum/objfetch/validation"
)

// Config configures a Requestor.
type Config struct {
	// Product names the embedding application; combined with the build
	// version it forms the User-Agent header, resolved once at
	// construction.
	Product string `yaml:"product" mapstructure:"product" validate:"required"`

	// Retry is the retry policy the caller's retry loop uses. The
	// requestor itself only derives its per-attempt transport timeout
	// from it.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`

	// TLS configures server trust for the transport. Nil uses the
	// defaults (verification on, TLS 1.2 minimum).
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Cert identifies the client certificate to present, if any.
	Cert security.ClientCertConfig `yaml:"cert" mapstructure:"cert"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Retry == nil {
		cfg := resilience.DefaultRetryConfig()
		c.Retry = &cfg
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DefaultRetryConfig returns a retry config suitable for request
// attempts: it retries only outcomes the classifier marked retryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
