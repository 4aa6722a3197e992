package relay

import "errors"

// Sentinel errors for the connection state machine's error taxonomy
// (spec.md §7). Callers use errors.Is against these to decide log
// level; none of them ever propagate past the owning connection's
// goroutine.
var (
	ErrBannedIP        = errors.New("relay: ip banned")
	ErrBannedID        = errors.New("relay: player banned")
	ErrNotConnect      = errors.New("relay: first packet was not Connect")
	ErrCapacity        = errors.New("relay: server full")
	ErrIdentityMissing = errors.New("relay: first-join Connect missing client name")
	ErrIDMismatch      = errors.New("relay: packet id does not match handshake identity")
)
