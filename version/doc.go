// Package version provides build version information embedding for
// objfetch.
//
// Version, git commit, and build time are set at compile time via
// -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/objfetch/version.Version=1.0.0"
//
// The requestor derives its User-Agent header from this package.
package version
