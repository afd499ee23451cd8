// Package notification defines the timed, prioritised message shown on the
// notification display.
package notification
