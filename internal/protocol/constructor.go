package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Frame constructors for everything the virtual remote transmits.
// Payloads are taken from captures of a physical 536-0150 remote:
//
//	pair:     I --:------ 29:012345 1FC9 012 6322F87430390110E0743039
//	auto:     I --:------ 29:012345 22F1 003 630304
//	low:      I --:------ 29:012345 22F1 003 630204
//	high:     I --:------ 29:012345 22F1 003 630404
//	timer10:  I --:------ 29:012345 22F3 003 63000A
//	timer20:  I --:------ 29:012345 22F3 003 630014
//	timer30:  I --:------ 29:012345 22F3 003 63001E

// Command is one of the fixed remote buttons
type Command int

const (
	CommandAuto Command = iota
	CommandLow
	CommandHigh
	CommandTimer10
	CommandTimer20
	CommandTimer30
)

// remotePrefix is the domain byte every RFT remote payload starts with
const remotePrefix = 0x63

type commandSpec struct {
	name    string
	code    Code
	payload [3]byte
}

var commandTable = map[Command]commandSpec{
	CommandAuto:    {"auto", CodeFanMode, [3]byte{remotePrefix, 0x03, 0x04}},
	CommandLow:     {"low", CodeFanMode, [3]byte{remotePrefix, 0x02, 0x04}},
	CommandHigh:    {"high", CodeFanMode, [3]byte{remotePrefix, 0x04, 0x04}},
	CommandTimer10: {"timer10", CodeFanTimer, [3]byte{remotePrefix, 0x00, 10}},
	CommandTimer20: {"timer20", CodeFanTimer, [3]byte{remotePrefix, 0x00, 20}},
	CommandTimer30: {"timer30", CodeFanTimer, [3]byte{remotePrefix, 0x00, 30}},
}

// String returns the command name as typed on the command line
func (c Command) String() string {
	if spec, ok := commandTable[c]; ok {
		return spec.name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

// Code returns the parameter code the command is sent with
func (c Command) Code() Code {
	return commandTable[c].code
}

// Payload returns a copy of the static command payload
func (c Command) Payload() []byte {
	p := commandTable[c].payload
	return p[:]
}

// ParseCommand looks up a command by name (case-insensitive)
func ParseCommand(name string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for cmd, spec := range commandTable {
		if spec.name == name {
			return cmd, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q (supported: %s)", name, strings.Join(CommandNames(), ", "))
}

// CommandNames returns all supported command names in table order
func CommandNames() []string {
	cmds := make([]Command, 0, len(commandTable))
	for cmd := range commandTable {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })

	names := make([]string, len(cmds))
	for i, cmd := range cmds {
		names[i] = cmd.String()
	}
	return names
}

// BuildCommand constructs the frame for a remote button press.
//
// The identity must be paired; otherwise ErrNotPaired is returned and
// nothing is built.
func BuildCommand(cmd Command, id Identity) (*Frame, error) {
	spec, ok := commandTable[cmd]
	if !ok {
		return nil, fmt.Errorf("unknown command %d", int(cmd))
	}
	if !id.IsPaired() {
		return nil, NewError(KindNotPaired, "cannot send %s: remote is %s", spec.name, id.Status)
	}

	return &Frame{
		Dest:    id.Unit,
		Src:     id.Remote,
		Type:    TypeInform,
		Code:    spec.code,
		Payload: append([]byte(nil), spec.payload[:]...),
	}, nil
}

// BuildPairingRequest constructs the bind offer a remote broadcasts when
// its pairing button is pressed.
//
// Payload Structure (two 6-byte bind elements):
//
//	[0]     0x63     Remote domain
//	[1-2]   22F8     Offered code
//	[3-5]   remote   Remote address
//	[6]     0x01     Domain
//	[7-8]   10E0     Offered code (device info)
//	[9-11]  remote   Remote address
func BuildPairingRequest(remote Address) *Frame {
	a := remote.Bytes()
	payload := []byte{
		remotePrefix, byte(CodeFanNight >> 8), byte(CodeFanNight & 0xFF), a[0], a[1], a[2],
		0x01, byte(CodeDeviceInfo >> 8), byte(CodeDeviceInfo & 0xFF), a[0], a[1], a[2],
	}

	return &Frame{
		Dest:    BroadcastAddress,
		Src:     remote,
		Type:    TypeInform,
		Code:    CodeBind,
		Payload: payload,
	}
}

// BuildPairingConfirm answers the unit's device info request during pairing.
//
// Payload Structure:
//
//	[0]     0x63     Remote domain
//	[1-2]   10E0     Answered code
//	[3-5]   remote   Remote address
func BuildPairingConfirm(remote, unit Address) *Frame {
	a := remote.Bytes()
	return &Frame{
		Dest:    unit,
		Src:     remote,
		Type:    TypeResponse,
		Code:    CodeDeviceInfo,
		Payload: []byte{remotePrefix, byte(CodeDeviceInfo >> 8), byte(CodeDeviceInfo & 0xFF), a[0], a[1], a[2]},
	}
}

// BuildStatusRequest asks the paired unit for a 31DA status report.
// Physical remotes never send this, but units answer it with an RP 31DA.
func BuildStatusRequest(id Identity) (*Frame, error) {
	if !id.IsPaired() {
		return nil, NewError(KindNotPaired, "cannot request status: remote is %s", id.Status)
	}
	return &Frame{
		Dest:    id.Unit,
		Src:     id.Remote,
		Type:    TypeRequest,
		Code:    CodeVentStatus,
		Payload: []byte{0x00},
	}, nil
}
