package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/objfetch/process"
)

const defaultAskpassTimeout = 30 * time.Second

// Askpass obtains certificate passwords by invoking an external helper
// program with the certificate identifier as its single argument. The
// password is read from the helper's standard output.
type Askpass struct {
	// Program is the helper binary path or name.
	Program string
	// Timeout bounds a single helper invocation.
	Timeout time.Duration
}

// NewAskpass creates an askpass helper wrapper.
func NewAskpass(program string) *Askpass {
	return &Askpass{Program: program, Timeout: defaultAskpassTimeout}
}

// Password invokes the helper for the given certificate identifier.
func (a *Askpass) Password(ctx context.Context, certID string) (string, error) {
	if a.Program == "" {
		return "", fmt.Errorf("security: no askpass program configured")
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = defaultAskpassTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary: a.Program,
		Args:   []string{certID},
	})
	if err != nil {
		return "", fmt.Errorf("security: askpass helper failed: %w", err)
	}
	return strings.TrimRight(string(result.Stdout), "\r\n"), nil
}

// Func binds the helper to a certificate identifier, yielding a
// PasswordFunc for CertResolver.Resolve.
func (a *Askpass) Func(certID string) PasswordFunc {
	return func(ctx context.Context) (string, error) {
		return a.Password(ctx, certID)
	}
}
