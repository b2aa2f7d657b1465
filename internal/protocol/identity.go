package protocol

import "fmt"

// PairingStatus describes how far an identity is bound to a unit
type PairingStatus int

const (
	StatusUnpaired PairingStatus = iota
	StatusPairing
	StatusPaired
)

// String returns the lower-case status name used in identity files
func (s PairingStatus) String() string {
	switch s {
	case StatusUnpaired:
		return "unpaired"
	case StatusPairing:
		return "pairing"
	case StatusPaired:
		return "paired"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParsePairingStatus is the inverse of PairingStatus.String.
func ParsePairingStatus(s string) (PairingStatus, error) {
	switch s {
	case "", "unpaired":
		return StatusUnpaired, nil
	case "pairing":
		return StatusPairing, nil
	case "paired":
		return StatusPaired, nil
	default:
		return StatusUnpaired, fmt.Errorf("unknown pairing status %q", s)
	}
}

// Identity binds this virtual remote to one ventilation unit.
type Identity struct {
	Remote Address
	Unit   Address
	Status PairingStatus

	// PreviousRemotes lists remote addresses this installation used before,
	// so a fresh pairing does not reuse one.
	PreviousRemotes []Address
}

// IsPaired reports whether commands may be sent with this identity.
func (id Identity) IsPaired() bool {
	return id.Status == StatusPaired
}

// UsedRemotes returns every remote address known to this installation.
func (id Identity) UsedRemotes() []Address {
	used := make([]Address, 0, len(id.PreviousRemotes)+1)
	used = append(used, id.PreviousRemotes...)
	if id.Remote != 0 {
		used = append(used, id.Remote)
	}
	return used
}

// String returns a one-line summary for logs
func (id Identity) String() string {
	if !id.IsPaired() {
		return fmt.Sprintf("Identity{status=%s}", id.Status)
	}
	return fmt.Sprintf("Identity{remote=%s, unit=%s, status=%s}", id.Remote, id.Unit, id.Status)
}
