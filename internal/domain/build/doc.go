// Package build holds the domain types of the build-server status poller:
// the configured hosts, the jobs they report and the per-host result.
package build
