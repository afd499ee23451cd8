// Package ctl implements the build-tv-ctl commands on top of the control client.
package ctl
