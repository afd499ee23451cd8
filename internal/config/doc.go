// Package config defines the settings of the build TV daemon and provides
// helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for optional fields. Missing required fields, such
// as the Jenkins poll rate or host list, are reported as errors so the daemon
// refuses to start on a partial configuration.
package config
