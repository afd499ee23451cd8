// Package notify selects which notification the display shows.
//
// Each producer owns a source key and stores its latest notification under
// it. The Registry keeps the highest priority non-expired entry on screen and
// re-evaluates expiry on a periodic tick, so a notification disappears on
// schedule even when no producer writes anything.
package notify
