// Package pairing implements the bind handshake between a fresh virtual
// remote and an Itho ventilation unit.
//
// The unit must be in its pairing window (typically the first minutes after
// power-up). Start broadcasts a bind offer from a newly drawn class 29
// address; Handle consumes the unit's replies and returns any frame that
// must be sent back. Each step has its own deadline which the caller
// enforces with Expire.
//
// The identity is only handed to Config.Commit once the unit has confirmed
// the bind, either by repeating its device info request or by sending its
// first status report. A failed, cancelled or timed out handshake never touches the
// previously persisted identity.
package pairing
