// Package identity persists the virtual remote's address and the unit it is
// bound to.
//
// The file form is a small versioned YAML document:
//
//	version: 1
//	status: paired
//	remote: "29:074565"
//	unit: "18:004660"
//	previous_remotes:
//	    - "29:001234"
//
// previous_remotes keeps every address this installation has used so a new
// pairing never reuses one. Only unpaired and paired identities are stored;
// the pairing state lives in memory for the duration of the handshake.
package identity
