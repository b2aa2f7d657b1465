// Package protocol implements the Itho RFT remote radio protocol.
//
// This package handles parsing, validation, and construction of the frames
// exchanged between a virtual RFT remote and an Itho heat-recovery
// ventilation unit (HRU), as relayed by a serial radio gateway.
//
// # Line Format
//
// The gateway surfaces each radio frame as one ASCII line:
//
//	:<hex bytes><checksum>\r\n
//
// The decoded bytes are:
//   - Destination address: 3 bytes
//   - Source address: 3 bytes
//   - Message type: 1 byte (RQ 0x00, I 0x10, W 0x20, RP 0x30)
//   - Parameter code: 2 bytes (big-endian, e.g. 22F1)
//   - Payload length: 1 byte
//   - Payload: variable length
//   - Checksum: 1 byte (all bytes including it sum to 0 mod 256)
//
// # Addresses
//
// Addresses are 24 bits: a 6-bit device class and an 18-bit id, printed as
// "29:012345". Remotes use class 29, ventilation units class 18. The
// address 63:262142 marks a broadcast.
//
// # Message Types
//
//   - 1FC9 bind: pairing offer from the remote
//   - 10E0 device info: the unit's pairing acknowledgement
//   - 22F1 fan mode: auto / low / high buttons
//   - 22F3 fan timer: 10 / 20 / 30 minute boost buttons
//   - 31DA ventilation status: temperatures, fan speeds, filter and fault flags
//
// # Usage Example - Decoding
//
//	frame, err := protocol.DecodeLine(line)
//	if err != nil {
//	    // ErrMalformedLine or ErrChecksumMismatch: discard and keep reading
//	    return
//	}
//
//	rec, matched, err := protocol.Interpret(frame, identity)
//	switch {
//	case !matched:
//	    // cross-talk from another installation
//	case err != nil:
//	    // ErrUnknownStatusFrame
//	default:
//	    fmt.Println(rec)
//	}
//
// # Usage Example - Construction
//
//	frame, err := protocol.BuildCommand(protocol.CommandHigh, identity)
//	if err != nil {
//	    return err // ErrNotPaired
//	}
//	line := protocol.EncodeLine(frame)
//
// # Error Handling
//
// Errors are *protocol.Error values classified by ErrorKind and comparable
// with errors.Is against the exported sentinels:
//   - Frame errors: ErrMalformedLine, ErrChecksumMismatch (recoverable)
//   - Decoder errors: ErrUnknownStatusFrame (recoverable)
//   - Caller errors: ErrNotPaired, ErrPairingInProgress
//   - Pairing outcomes: ErrPairingTimeout, ErrPairingCancelled, ErrHandshakeMismatch
//
// EncodeLine panics when handed a frame that violates the payload schema,
// since that can only be produced by a bug in a constructor.
//
// # Thread Safety
//
// All parsing and construction functions are stateless and safe for concurrent use.
package protocol
