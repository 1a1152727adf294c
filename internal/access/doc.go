// Package access implements the PIN-protected elevated edit mode. A session
// unlocks for a fixed window after the correct PIN is entered and relocks
// automatically when the window expires; the editor applies manual checkpoint
// overrides only while the session is unlocked.
package access
