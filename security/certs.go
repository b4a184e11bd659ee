package security

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/kbukum/objfetch/logger"
)

// PasswordFunc supplies the password for a protected certificate. It
// is only invoked when the certificate actually needs one, so the
// askpass helper process is not spawned unnecessarily.
type PasswordFunc func(ctx context.Context) (string, error)

// ClientCertConfig identifies the client certificate a requestor
// should present.
type ClientCertConfig struct {
	// ID is a certificate file path or a store subject name.
	ID string `yaml:"id" mapstructure:"id"`
	// PasswordProtected marks the certificate as needing a password.
	PasswordProtected bool `yaml:"password_protected" mapstructure:"password_protected"`
	// RequireValid rejects certificates outside their validity window.
	RequireValid bool `yaml:"require_valid" mapstructure:"require_valid"`
	// StoreDir overrides the certificate store directory.
	StoreDir string `yaml:"store_dir" mapstructure:"store_dir"`
	// AskpassProgram is the helper binary invoked to obtain the
	// certificate password.
	AskpassProgram string `yaml:"askpass_program" mapstructure:"askpass_program"`
}

// CertResolver resolves certificate identifiers into usable client
// certificates, trying disk first and then the certificate store.
// The store is opened lazily, at most once, and retained until Close.
type CertResolver struct {
	storeDir string
	log      *logger.Logger

	storeOnce sync.Once
	store     *CertStore
	storeErr  error
}

// NewCertResolver creates a resolver backed by the given store
// directory. An empty dir uses DefaultStoreDir.
func NewCertResolver(storeDir string, log *logger.Logger) *CertResolver {
	if storeDir == "" {
		storeDir = DefaultStoreDir()
	}
	if log == nil {
		log = logger.Get("security")
	}
	return &CertResolver{storeDir: storeDir, log: log}
}

// Resolve maps an identifier (file path or store subject name) to a
// client certificate. Failures are absorbed: they are logged and nil
// is returned, so the caller degrades to no client certificate.
func (r *CertResolver) Resolve(ctx context.Context, id string, password PasswordFunc, requireValid bool) *tls.Certificate {
	if id == "" {
		return nil
	}

	if fi, err := os.Stat(id); err == nil && !fi.IsDir() {
		cert, err := r.loadFile(ctx, id, password, requireValid)
		if err != nil {
			r.log.Error("failed to load client certificate file",
				logger.MergeWithError(logger.Fields(logger.FieldCertificateID, id), err))
			return nil
		}
		if cert == nil {
			r.notFound(id)
		}
		return cert
	}

	cert, err := r.fromStore(id, requireValid)
	if err != nil {
		r.log.Error("certificate store lookup failed",
			logger.MergeWithError(logger.Fields(logger.FieldCertificateID, id), err))
		return nil
	}
	if cert == nil {
		r.notFound(id)
	}
	return cert
}

// Close releases the store handle if it was opened.
func (r *CertResolver) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

func (r *CertResolver) notFound(id string) {
	r.log.Error("certificate not found", logger.Fields(logger.FieldCertificateID, id))
}

func (r *CertResolver) fromStore(subject string, requireValid bool) (*tls.Certificate, error) {
	r.storeOnce.Do(func() {
		r.store, r.storeErr = OpenCertStore(r.storeDir)
	})
	if r.storeErr != nil {
		return nil, r.storeErr
	}
	return r.store.FindBySubject(subject, requireValid)
}

func (r *CertResolver) loadFile(ctx context.Context, path string, password PasswordFunc, requireValid bool) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	pw := ""
	if password != nil {
		pw, err = password(ctx)
		if err != nil {
			return nil, fmt.Errorf("obtaining certificate password: %w", err)
		}
	}

	var cert *tls.Certificate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pfx", ".p12":
		cert, err = decodePKCS12(data, pw)
	default:
		cert, err = decodePEM(data, pw)
	}
	if err != nil {
		return nil, err
	}

	if requireValid && !certCurrentlyValid(cert.Leaf) {
		return nil, nil
	}
	return cert, nil
}

// decodePKCS12 decodes a PKCS#12 archive into a client certificate.
func decodePKCS12(data []byte, password string) (*tls.Certificate, error) {
	key, leaf, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decoding pkcs12 archive: %w", err)
	}
	return &tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// decodePEM decodes a PEM bundle holding a certificate chain and a
// private key. The key block may be an encrypted PEM block.
func decodePEM(data []byte, password string) (*tls.Certificate, error) {
	var certDER [][]byte
	var keyDER []byte

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch {
		case block.Type == "CERTIFICATE":
			certDER = append(certDER, block.Bytes)
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			der := block.Bytes
			if x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy encrypted PEM is the supported on-disk format
				var err error
				der, err = x509.DecryptPEMBlock(block, []byte(password)) //nolint:staticcheck
				if err != nil {
					return nil, fmt.Errorf("decrypting private key: %w", err)
				}
			}
			keyDER = der
		}
	}

	if len(certDER) == 0 {
		return nil, fmt.Errorf("no certificate block found")
	}
	if keyDER == nil {
		return nil, fmt.Errorf("no private key block found")
	}

	leaf, err := x509.ParseCertificate(certDER[0])
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	key, err := parsePrivateKey(keyDER)
	if err != nil {
		return nil, err
	}

	return &tls.Certificate{
		Certificate: certDER,
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// parsePrivateKey tries the common key encodings in turn.
func parsePrivateKey(der []byte) (crypto.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		switch key.(type) {
		case *rsa.PrivateKey, *ecdsa.PrivateKey:
			return key, nil
		}
		return nil, fmt.Errorf("unsupported private key type")
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unable to parse private key")
}

// certCurrentlyValid reports whether now falls inside the
// certificate's validity window.
func certCurrentlyValid(leaf *x509.Certificate) bool {
	if leaf == nil {
		return false
	}
	now := time.Now()
	return !now.Before(leaf.NotBefore) && !now.After(leaf.NotAfter)
}
