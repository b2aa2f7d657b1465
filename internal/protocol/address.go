package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a 24-bit RAMSES device address.
//
// Layout (as seen on the wire, big-endian):
//
//	bits 23-18  device class (6 bits)
//	bits 17-0   device id    (18 bits)
//
// Example: 0x743039 -> class 29, id 012345 -> "29:012345"
type Address uint32

// Device classes seen on Itho RFT installations
const (
	ClassVentilationUnit = 18 // HRU / CVE main unit
	ClassRemote          = 29 // RFT remote (536-0150)
	ClassNull            = 63 // Reserved, used for the broadcast marker
)

const (
	// MaxDeviceID is the largest id representable in 18 bits
	MaxDeviceID = 0x3FFFF

	// addressMask keeps the 24 significant bits
	addressMask = 0xFFFFFF
)

// BroadcastAddress marks a frame with no specific destination (63:262142).
const BroadcastAddress Address = ClassNull<<18 | 0x3FFFE

// NewAddress builds an address from a class and id.
// Out-of-range values are masked to their field width.
func NewAddress(class uint8, id uint32) Address {
	return Address((uint32(class)&0x3F)<<18 | id&MaxDeviceID)
}

// Class returns the 6-bit device class.
func (a Address) Class() uint8 {
	return uint8((uint32(a) & addressMask) >> 18)
}

// ID returns the 18-bit device id.
func (a Address) ID() uint32 {
	return uint32(a) & MaxDeviceID
}

// IsBroadcast reports whether a is the broadcast marker.
func (a Address) IsBroadcast() bool {
	return a == BroadcastAddress
}

// Bytes returns the 3-byte big-endian wire form.
func (a Address) Bytes() [3]byte {
	v := uint32(a) & addressMask
	return [3]byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

// String renders the address in "CC:IIIIII" form, or "--:------" for broadcast.
func (a Address) String() string {
	if a.IsBroadcast() {
		return "--:------"
	}
	return fmt.Sprintf("%02d:%06d", a.Class(), a.ID())
}

func addressFromBytes(b []byte) Address {
	return Address(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
}

// ParseAddress parses the "CC:IIIIII" form. "--:------" yields BroadcastAddress.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "--:------" {
		return BroadcastAddress, nil
	}

	classPart, idPart, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid address %q: expected CC:IIIIII", s)
	}

	class, err := strconv.ParseUint(classPart, 10, 8)
	if err != nil || class > 0x3F {
		return 0, fmt.Errorf("invalid address %q: bad class", s)
	}

	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil || id > MaxDeviceID {
		return 0, fmt.Errorf("invalid address %q: bad id", s)
	}

	return NewAddress(uint8(class), uint32(id)), nil
}
