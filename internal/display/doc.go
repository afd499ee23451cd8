// Package display implements notification displays: a log display for
// headless runs and an MQTT publisher feeding the remote notification client.
package display
