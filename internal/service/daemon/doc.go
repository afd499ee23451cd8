// Package daemon wires the build TV daemon together: the LED service and its
// producers, the notification registry with its display, and the control API.
package daemon
