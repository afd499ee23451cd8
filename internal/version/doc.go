// Package version exposes build metadata of the build TV binaries.
//
// Version, Commit and BuildTime are injected with -ldflags "-X" by release
// builds and keep development defaults otherwise.
package version
