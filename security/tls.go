package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds transport trust settings.
type TLSConfig struct {
	// SkipVerify disables server certificate verification entirely
	// (trust-all). Controlled by the embedding application's SSL
	// verification setting.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the path to an additional CA certificate file for
	// verifying the server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// ServerName overrides the server name used for certificate
	// verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the minimum TLS version. Values below TLS 1.2 are
	// raised to TLS 1.2.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`
}

// Build creates a *tls.Config from the configuration. The result is
// never nil and always enforces TLS 1.2 or higher.
func (c *TLSConfig) Build() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if c == nil {
		return cfg, nil
	}

	if c.MinVersion > tls.VersionTLS12 {
		cfg.MinVersion = c.MinVersion
	}
	cfg.InsecureSkipVerify = c.SkipVerify
	cfg.ServerName = c.ServerName

	if c.CAFile != "" {
		ca, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("security/tls: failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ca) {
			return nil, fmt.Errorf("security/tls: failed to parse CA certificate")
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.CAFile != "" {
		if _, err := os.Stat(c.CAFile); err != nil {
			return fmt.Errorf("security/tls: ca_file %s: %w", c.CAFile, err)
		}
	}
	return nil
}
