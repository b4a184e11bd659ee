// Package certtest generates client-certificate fixtures for testing.
// All certificates are created with Go's crypto stdlib — no external
// tools needed. Generated files auto-clean via t.TempDir().
//
// Usage:
//
//	cert := certtest.GenerateClientCert(t, certtest.WithPassword("s3cret"))
//	// cert.BundleFile is a PEM bundle loadable by security.CertResolver
package certtest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ClientCert holds paths to generated certificate files and the parsed
// leaf certificate.
type ClientCert struct {
	// BundleFile is a PEM file holding the certificate and its key.
	BundleFile string
	// CertFile is the certificate-only PEM file.
	CertFile string
	// CommonName is the certificate subject common name.
	CommonName string
	// Leaf is the parsed certificate.
	Leaf *x509.Certificate
}

type options struct {
	commonName string
	password   string
	expired    bool
	dir        string
}

// Option customizes certificate generation.
type Option func(*options)

// WithCommonName sets the subject common name.
func WithCommonName(cn string) Option {
	return func(o *options) { o.commonName = cn }
}

// WithPassword encrypts the private key PEM block with the password.
func WithPassword(pw string) Option {
	return func(o *options) { o.password = pw }
}

// WithExpired generates a certificate whose validity window is in the past.
func WithExpired() Option {
	return func(o *options) { o.expired = true }
}

// WithDir writes the files into dir instead of t.TempDir().
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// GenerateClientCert creates a self-signed client certificate and
// writes it as a PEM bundle.
func GenerateClientCert(t testing.TB, opts ...Option) *ClientCert {
	t.Helper()

	o := options{commonName: "objfetch-test-client"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dir == "" {
		o.dir = t.TempDir()
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("certtest: generate key: %v", err)
	}

	notBefore := time.Now().Add(-time.Hour)
	notAfter := time.Now().Add(24 * time.Hour)
	if o.expired {
		notBefore = time.Now().Add(-48 * time.Hour)
		notAfter = time.Now().Add(-24 * time.Hour)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			Organization: []string{"objfetch test"},
			CommonName:   o.commonName,
		},
		NotBefore:   notBefore,
		NotAfter:    notAfter,
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("certtest: create certificate: %v", err)
	}
	leaf, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("certtest: parse certificate: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("certtest: marshal key: %v", err)
	}

	certBlock := &pem.Block{Type: "CERTIFICATE", Bytes: certDER}
	keyBlock := &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}
	if o.password != "" {
		keyBlock, err = x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", keyDER, []byte(o.password), x509.PEMCipherAES256) //nolint:staticcheck // the loader supports legacy encrypted PEM on purpose
		if err != nil {
			t.Fatalf("certtest: encrypt key: %v", err)
		}
	}

	bundleFile := filepath.Join(o.dir, o.commonName+".pem")
	bundle := append(pem.EncodeToMemory(certBlock), pem.EncodeToMemory(keyBlock)...)
	if err := os.WriteFile(bundleFile, bundle, 0o600); err != nil {
		t.Fatalf("certtest: write bundle: %v", err)
	}

	certFile := filepath.Join(o.dir, o.commonName+".crt.only")
	if err := os.WriteFile(certFile, pem.EncodeToMemory(certBlock), 0o600); err != nil {
		t.Fatalf("certtest: write cert: %v", err)
	}

	return &ClientCert{
		BundleFile: bundleFile,
		CertFile:   certFile,
		CommonName: o.commonName,
		Leaf:       leaf,
	}
}
