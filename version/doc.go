// Package version provides build version information for restverb.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/restverb/version.Version=1.0.0"
//
// The executor advertises the version in its User-Agent header.
package version
