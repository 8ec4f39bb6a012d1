// Package identity provides display helpers for ledger account addresses.
package identity

import "github.com/taskmirror/taskmirror/internal/domain"

// Shorten renders an address in the compact form used by the UI layer,
// e.g. "0x5290…9EE7". Lossy — callers keep the canonical identity for
// anything that goes back to the ledger. Total: strings too short to
// abbreviate are returned unchanged.
func Shorten(id domain.Identity) string {
	s := string(id)
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}
