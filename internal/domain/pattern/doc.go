// Package pattern contains the LED patterns the strip can render.
//
// A Pattern is a pure function of elapsed time producing a Frame, tagged with
// the priority the build reducer uses to rank host results. Patterns are
// registered once into a read-only Table and looked up by name.
package pattern
