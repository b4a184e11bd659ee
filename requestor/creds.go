package requestor

// CredentialSource is the credential backend consumed by the
// requestor. It supplies an opaque token string and tracks its own
// anonymous/backing-off state; the requestor reads that state at
// classification time and reports outcomes back through ConfirmWorked
// and Revoke. Implementations must be safe for concurrent attempts.
type CredentialSource interface {
	// IsAnonymous reports whether requests proceed without a token.
	IsAnonymous() bool

	// IsBackingOff reports whether the backend has recently attempted
	// token renewal and will not retry renewal again soon.
	IsBackingOff() bool

	// TryGetCredentials returns the current token. An error means no
	// token could be supplied; the attempt short-circuits without a
	// network call.
	TryGetCredentials() (string, error)

	// ConfirmWorked tells the backend the token was accepted.
	ConfirmWorked(token string)

	// Revoke tells the backend the token was rejected and a new one
	// should be obtained.
	Revoke(token string)
}

// AnonymousCredentials is a CredentialSource that never supplies a
// token. Useful for public endpoints and tests.
type AnonymousCredentials struct{}

func (AnonymousCredentials) IsAnonymous() bool                  { return true }
func (AnonymousCredentials) IsBackingOff() bool                 { return false }
func (AnonymousCredentials) TryGetCredentials() (string, error) { return "", nil }
func (AnonymousCredentials) ConfirmWorked(string)               {}
func (AnonymousCredentials) Revoke(string)                      {}
