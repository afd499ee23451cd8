// Package strip provides the LED strip outputs that do not need hardware:
// a terminal simulator drawing coloured blocks and a debug log writer.
package strip
