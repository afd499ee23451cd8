// Package instance keeps a second daemon from driving the same LED strip.
package instance
