package security

import (
	"crypto/tls"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// storeExtensions are the file extensions scanned during a store lookup.
var storeExtensions = map[string]bool{
	".pem": true,
	".crt": true,
	".cer": true,
}

// CertStore is a read-only, directory-backed certificate store.
// Certificates are PEM bundles (certificate chain plus unencrypted
// private key) searched by subject common name. The directory handle
// is held open for the lifetime of the store.
type CertStore struct {
	dir    string
	handle *os.File
}

// DefaultStoreDir returns the platform default store location:
// $OBJFETCH_CERT_STORE if set, otherwise ~/.objfetch/certs.
func DefaultStoreDir() string {
	if dir := os.Getenv("OBJFETCH_CERT_STORE"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "objfetch-certs")
	}
	return filepath.Join(home, ".objfetch", "certs")
}

// OpenCertStore opens the store directory read-only.
func OpenCertStore(dir string) (*CertStore, error) {
	handle, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening certificate store %s: %w", dir, err)
	}
	fi, err := handle.Stat()
	if err != nil {
		handle.Close()
		return nil, err
	}
	if !fi.IsDir() {
		handle.Close()
		return nil, fmt.Errorf("certificate store %s is not a directory", dir)
	}
	return &CertStore{dir: dir, handle: handle}, nil
}

// FindBySubject returns the first certificate whose subject common
// name matches, or nil when none matches. Files that fail to parse are
// skipped. With requireValid set, certificates outside their validity
// window are skipped as well.
func (s *CertStore) FindBySubject(subject string, requireValid bool) (*tls.Certificate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading certificate store %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !storeExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		cert, err := decodePEM(data, "")
		if err != nil {
			continue
		}
		if cert.Leaf.Subject.CommonName != subject {
			continue
		}
		if requireValid && !certCurrentlyValid(cert.Leaf) {
			continue
		}
		return cert, nil
	}
	return nil, nil
}

// Close releases the store directory handle.
func (s *CertStore) Close() error {
	if s.handle == nil {
		return nil
	}
	err := s.handle.Close()
	s.handle = nil
	return err
}
