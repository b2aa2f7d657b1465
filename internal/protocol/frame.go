package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Line framing constants
const (
	LineStart      = ':'    // Every frame line starts with this marker
	LineTerminator = "\r\n" // Appended by EncodeLine, stripped by DecodeLine

	headerSize   = 10 // dest(3) + src(3) + type(1) + code(2) + length(1)
	MinFrameSize = headerSize + 1
	MaxPayload   = 0xFF
)

// MessageType is the RAMSES verb carried in the header (bits 4-5 of the header byte)
type MessageType byte

const (
	TypeRequest  MessageType = 0x00 // RQ
	TypeInform   MessageType = 0x10 // " I" (broadcast / command)
	TypeWrite    MessageType = 0x20 // " W"
	TypeResponse MessageType = 0x30 // RP
)

// Valid reports whether t is one of the four known verbs.
func (t MessageType) Valid() bool {
	switch t {
	case TypeRequest, TypeInform, TypeWrite, TypeResponse:
		return true
	default:
		return false
	}
}

// String returns the verb as printed by evofw3-style gateways
func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "RQ"
	case TypeInform:
		return "I"
	case TypeWrite:
		return "W"
	case TypeResponse:
		return "RP"
	default:
		return fmt.Sprintf("type(0x%02x)", byte(t))
	}
}

// Code is the 2-byte command/parameter code (e.g. 0x22F1)
type Code uint16

// Known parameter codes
const (
	CodeDeviceInfo Code = 0x10E0 // Device info (pairing acknowledgement)
	CodeBind       Code = 0x1FC9 // RF bind offer / accept
	CodeFanMode    Code = 0x22F1 // Fan speed mode
	CodeFanTimer   Code = 0x22F3 // Fan boost timer
	CodeFanNight   Code = 0x22F8 // Fan mode (night), advertised in the bind offer
	CodeVentStatus Code = 0x31DA // HVAC ventilation status
)

// String renders the code as four uppercase hex digits
func (c Code) String() string {
	return fmt.Sprintf("%04X", uint16(c))
}

// Name returns a descriptive name for known codes
func (c Code) Name() string {
	switch c {
	case CodeDeviceInfo:
		return "device_info"
	case CodeBind:
		return "bind"
	case CodeFanMode:
		return "fan_mode"
	case CodeFanTimer:
		return "fan_timer"
	case CodeFanNight:
		return "fan_night"
	case CodeVentStatus:
		return "vent_status"
	default:
		return "unknown"
	}
}

// Frame is one protocol message exchanged over the gateway.
//
// Wire layout (before hex encoding):
//
//	[0-2]   destination address
//	[3-5]   source address
//	[6]     message type
//	[7-8]   parameter code (big-endian)
//	[9]     payload length N
//	[10..]  payload (N bytes)
//	[10+N]  checksum
type Frame struct {
	Dest    Address
	Src     Address
	Type    MessageType
	Code    Code
	Payload []byte
}

// content returns the logical bytes without the checksum.
func (f *Frame) content() []byte {
	buf := make([]byte, 0, headerSize+len(f.Payload)+1)
	dest := f.Dest.Bytes()
	src := f.Src.Bytes()
	buf = append(buf, dest[:]...)
	buf = append(buf, src[:]...)
	buf = append(buf, byte(f.Type), byte(f.Code>>8), byte(f.Code), byte(len(f.Payload)))
	return append(buf, f.Payload...)
}

// Checksum returns the byte that makes the sum of all frame bytes 0 mod 256.
func (f *Frame) Checksum() byte {
	return checksum(f.content())
}

func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return -sum
}

// Equal reports whether two frames carry the same content.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Dest == o.Dest &&
		f.Src == o.Src &&
		f.Type == o.Type &&
		f.Code == o.Code &&
		bytes.Equal(f.Payload, o.Payload)
}

// String returns a debug representation in evofw3 log order
func (f *Frame) String() string {
	return fmt.Sprintf("%-2s %s %s %s %03d %X",
		f.Type, f.Src, f.Dest, f.Code, len(f.Payload), f.Payload)
}

// EncodeLine serializes a frame to its transport line, including the terminator.
//
// The payload must fit the schema for the frame's type and code. A violation
// means the caller built a bad frame, so EncodeLine panics instead of
// returning an error.
func EncodeLine(f *Frame) string {
	if err := checkSchema(f.Type, f.Code, len(f.Payload)); err != nil {
		panic(fmt.Sprintf("protocol: cannot encode %s: %v", f, err))
	}

	raw := f.content()
	raw = append(raw, checksum(raw))

	var sb strings.Builder
	sb.Grow(1 + 2*len(raw) + len(LineTerminator))
	sb.WriteByte(LineStart)
	sb.WriteString(strings.ToUpper(hex.EncodeToString(raw)))
	sb.WriteString(LineTerminator)
	return sb.String()
}

// DecodeLine parses and validates a transport line.
//
// Any garbage input produces an *Error of kind KindMalformedLine or
// KindChecksumMismatch; DecodeLine never panics.
func DecodeLine(line string) (*Frame, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, malformed(line, "empty line")
	}
	if trimmed[0] != LineStart {
		return nil, malformed(line, "missing start marker %q", LineStart)
	}

	body := trimmed[1:]
	if len(body)%2 != 0 {
		return nil, malformed(line, "odd number of hex digits (%d)", len(body))
	}

	raw, err := hex.DecodeString(body)
	if err != nil {
		return nil, &Error{Kind: KindMalformedLine, Message: "invalid hex", Line: line, Err: err}
	}

	if len(raw) < MinFrameSize {
		return nil, malformed(line, "frame too short: %d bytes (minimum %d)", len(raw), MinFrameSize)
	}

	if got, want := raw[len(raw)-1], checksum(raw[:len(raw)-1]); got != want {
		return nil, &Error{
			Kind:    KindChecksumMismatch,
			Message: fmt.Sprintf("checksum 0x%02X, computed 0x%02X", got, want),
			Line:    line,
		}
	}

	declared := int(raw[9])
	if actual := len(raw) - MinFrameSize; actual != declared {
		return nil, malformed(line, "payload length %d does not match declared %d", actual, declared)
	}

	typ := MessageType(raw[6])
	if !typ.Valid() {
		return nil, malformed(line, "unknown message type 0x%02x", raw[6])
	}

	f := &Frame{
		Dest: addressFromBytes(raw[0:3]),
		Src:  addressFromBytes(raw[3:6]),
		Type: typ,
		Code: Code(uint16(raw[7])<<8 | uint16(raw[8])),
	}
	if declared > 0 {
		f.Payload = append([]byte(nil), raw[headerSize:headerSize+declared]...)
	}

	return f, nil
}

// checkSchema verifies the payload length a frame type/code pair requires.
func checkSchema(t MessageType, c Code, n int) error {
	if !t.Valid() {
		return fmt.Errorf("unknown message type 0x%02x", byte(t))
	}
	if n > MaxPayload {
		return fmt.Errorf("payload too large: %d bytes (max %d)", n, MaxPayload)
	}

	want := -1
	switch c {
	case CodeFanMode, CodeFanTimer, CodeFanNight:
		if t == TypeInform {
			want = 3
		}
	case CodeBind:
		if t == TypeInform || t == TypeWrite {
			if n == 0 || n%6 != 0 {
				return fmt.Errorf("%s payload must be a non-empty multiple of 6, got %d", c, n)
			}
		}
	case CodeDeviceInfo:
		switch t {
		case TypeRequest:
			want = 1
		case TypeResponse:
			want = 6
		}
	case CodeVentStatus:
		switch t {
		case TypeRequest:
			want = 1
		case TypeInform, TypeResponse:
			want = VentStatusPayloadSize
		}
	}

	if want >= 0 && n != want {
		return fmt.Errorf("%s %s payload must be %d bytes, got %d", t, c, want, n)
	}
	return nil
}
