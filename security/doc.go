// Package security provides TLS trust and client-certificate handling
// for the objfetch request layer.
//
// A client certificate is configured by identifier: either a path to a
// certificate file (PEM or PKCS#12) or a subject name looked up in a
// read-only certificate store directory. Password-protected
// certificates obtain their password through an external askpass
// helper program.
//
// # TLS Configuration
//
//	cfg := security.TLSConfig{SkipVerify: false}
//	tlsConfig, err := cfg.Build()
//
// TLS 1.2 is the enforced minimum protocol version.
package security
