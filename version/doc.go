// Package version reports the build of the watershed binary.
//
// The version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/watershed/version.Version=1.2.0" ./cmd/watershed
package version
