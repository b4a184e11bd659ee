package security

import (
	"context"
	"crypto/tls"
	"errors"
	"testing"

	"github.com/kbukum/objfetch/logger"
	"github.com/kbukum/objfetch/security/certtest"
)

func testResolver(t *testing.T, storeDir string) *CertResolver {
	t.Helper()
	if storeDir == "" {
		storeDir = t.TempDir()
	}
	r := NewCertResolver(storeDir, logger.NewDefault("test"))
	t.Cleanup(func() { r.Close() })
	return r
}

func staticPassword(pw string) PasswordFunc {
	return func(context.Context) (string, error) { return pw, nil }
}

func TestCertResolver_ResolveFromFile(t *testing.T) {
	cert := certtest.GenerateClientCert(t)
	r := testResolver(t, "")

	got := r.Resolve(context.Background(), cert.BundleFile, nil, false)
	if got == nil {
		t.Fatal("expected certificate")
	}
	if got.Leaf.Subject.CommonName != cert.CommonName {
		t.Errorf("expected CN %q, got %q", cert.CommonName, got.Leaf.Subject.CommonName)
	}
}

func TestCertResolver_ResolveProtectedFile(t *testing.T) {
	cert := certtest.GenerateClientCert(t, certtest.WithPassword("s3cret"))
	r := testResolver(t, "")

	got := r.Resolve(context.Background(), cert.BundleFile, staticPassword("s3cret"), false)
	if got == nil {
		t.Fatal("expected certificate with correct password")
	}
}

func TestCertResolver_WrongPassword(t *testing.T) {
	cert := certtest.GenerateClientCert(t, certtest.WithPassword("s3cret"))
	r := testResolver(t, "")

	got := r.Resolve(context.Background(), cert.BundleFile, staticPassword("wrong"), false)
	if got != nil {
		t.Fatal("expected nil for wrong password")
	}
}

func TestCertResolver_PasswordFuncError(t *testing.T) {
	cert := certtest.GenerateClientCert(t, certtest.WithPassword("s3cret"))
	r := testResolver(t, "")

	failing := func(context.Context) (string, error) { return "", errors.New("helper unavailable") }
	if got := r.Resolve(context.Background(), cert.BundleFile, failing, false); got != nil {
		t.Fatal("expected nil when the password helper fails")
	}
}

func TestCertResolver_RequireValidRejectsExpired(t *testing.T) {
	cert := certtest.GenerateClientCert(t, certtest.WithExpired())
	r := testResolver(t, "")

	if got := r.Resolve(context.Background(), cert.BundleFile, nil, true); got != nil {
		t.Fatal("expected expired certificate to resolve as not found")
	}
	// Without requireValid the expired certificate still loads.
	if got := r.Resolve(context.Background(), cert.BundleFile, nil, false); got == nil {
		t.Fatal("expected expired certificate without requireValid")
	}
}

func TestCertResolver_NotFound(t *testing.T) {
	r := testResolver(t, "")

	if got := r.Resolve(context.Background(), "no-such-subject", nil, false); got != nil {
		t.Fatal("expected nil for unknown identifier")
	}
}

func TestCertResolver_EmptyID(t *testing.T) {
	r := testResolver(t, "")
	if got := r.Resolve(context.Background(), "", nil, false); got != nil {
		t.Fatal("expected nil for empty identifier")
	}
}

func TestCertResolver_ResolveFromStore(t *testing.T) {
	storeDir := t.TempDir()
	cert := certtest.GenerateClientCert(t,
		certtest.WithCommonName("store-client"),
		certtest.WithDir(storeDir))
	r := testResolver(t, storeDir)

	got := r.Resolve(context.Background(), "store-client", nil, false)
	if got == nil {
		t.Fatal("expected certificate from store")
	}
	if got.Leaf.Subject.CommonName != cert.CommonName {
		t.Errorf("expected CN %q, got %q", cert.CommonName, got.Leaf.Subject.CommonName)
	}
}

func TestCertResolver_StoreRespectsRequireValid(t *testing.T) {
	storeDir := t.TempDir()
	certtest.GenerateClientCert(t,
		certtest.WithCommonName("expired-client"),
		certtest.WithExpired(),
		certtest.WithDir(storeDir))
	r := testResolver(t, storeDir)

	if got := r.Resolve(context.Background(), "expired-client", nil, true); got != nil {
		t.Fatal("expected expired store certificate to be skipped")
	}
}

func TestCertResolver_StoreMissingDirectory(t *testing.T) {
	r := NewCertResolver("/nonexistent/store", logger.NewDefault("test"))
	defer r.Close()

	if got := r.Resolve(context.Background(), "any-subject", nil, false); got != nil {
		t.Fatal("expected nil when the store cannot be opened")
	}
}

func TestCertStore_FindBySubject(t *testing.T) {
	storeDir := t.TempDir()
	certtest.GenerateClientCert(t, certtest.WithCommonName("alpha"), certtest.WithDir(storeDir))
	certtest.GenerateClientCert(t, certtest.WithCommonName("beta"), certtest.WithDir(storeDir))

	store, err := OpenCertStore(storeDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	var cert *tls.Certificate
	cert, err = store.FindBySubject("beta", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert == nil || cert.Leaf.Subject.CommonName != "beta" {
		t.Fatal("expected certificate with CN beta")
	}

	cert, err = store.FindBySubject("missing", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert != nil {
		t.Fatal("expected nil for unknown subject")
	}
}
