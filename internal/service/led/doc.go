// Package led drives the LED strip.
//
// Producers own a Source each and register it into the Registry, which merges
// every source's vote into one winning pattern. The Service is the render
// lifecycle manager: it owns the single render loop and swaps it whenever the
// winner changes, always joining the old loop before the new one starts so
// only one pattern ever writes to the strip.
package led
