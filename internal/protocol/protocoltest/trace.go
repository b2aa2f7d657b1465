// Package protocoltest replays recorded radio traffic in tests.
//
// Traces use the text form evofw3 prints in its monitor mode:
//
//	rssi verb seq addr1 addr2 addr3 code len payload
//
// addr1 is the sender and addr2 the addressee. A frame without a sender
// carries its source in addr3 (the remote's broadcast bind offer), and a
// frame with both sender and addr3 set is the unit announcing itself.
package protocoltest

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/muurk/ithorft/internal/protocol"
)

// Addresses of the remote and unit in the recorded traces
var (
	TraceRemote = protocol.NewAddress(protocol.ClassRemote, 12345)
	TraceUnit   = protocol.NewAddress(protocol.ClassVentilationUnit, 12345)
)

// PairingTrace is a remote binding to a CVE unit. The unit asks for the
// remote's device info three times and then broadcasts its status.
var PairingTrace = []string{
	"074  I 022 --:------ --:------ 29:012345 1FC9 012 6322F87430390110E0743039",
	"070 RQ --- 18:012345 29:012345 --:------ 10E0 001 63",
	"071 RQ --- 18:012345 29:012345 --:------ 10E0 001 63",
	"071 RQ --- 18:012345 29:012345 --:------ 10E0 001 63",
	"068  I --- 18:012345 --:------ 18:012345 31DA 029 00F0007FFFEFEF07CB07C5086E07994000C85850FF0000EFEF402E402E",
}

// StatusTrace is a status request from the remote and the unit's reply
var StatusTrace = []string{
	"068 RQ --- 29:012345 18:012345 --:------ 31DA 001 00",
	"086 RP --- 18:012345 29:012345 --:------ 31DA 029 00C84002A5EFEF07F5087F082C082E4808C81800FF0000EFEF13F613F6",
}

// ParseTrace converts a trace line into a frame. Addresses equal to
// TraceRemote are replaced with remote when remote is non-zero, so a
// recorded exchange can be replayed against a freshly drawn address.
// Payload bytes are kept as recorded.
func ParseTrace(tb testing.TB, line string, remote protocol.Address) *protocol.Frame {
	tb.Helper()

	fields := strings.Fields(line)
	if len(fields) != 9 {
		tb.Fatalf("trace %q: %d fields, want 9", line, len(fields))
	}

	var typ protocol.MessageType
	switch fields[1] {
	case "RQ":
		typ = protocol.TypeRequest
	case "I":
		typ = protocol.TypeInform
	case "W":
		typ = protocol.TypeWrite
	case "RP":
		typ = protocol.TypeResponse
	default:
		tb.Fatalf("trace %q: unknown verb %q", line, fields[1])
	}

	addrs := make([]protocol.Address, 3)
	present := make([]bool, 3)
	for i, s := range fields[3:6] {
		if s == "--:------" {
			continue
		}
		a, err := protocol.ParseAddress(s)
		if err != nil {
			tb.Fatalf("trace %q: %v", line, err)
		}
		if a == TraceRemote && remote != 0 {
			a = remote
		}
		addrs[i], present[i] = a, true
	}

	f := &protocol.Frame{Type: typ, Dest: protocol.BroadcastAddress}
	switch {
	case present[0] && present[1]:
		f.Src, f.Dest = addrs[0], addrs[1]
	case present[0] && present[2]:
		f.Src, f.Dest = addrs[0], addrs[2]
	case present[0]:
		f.Src = addrs[0]
	case present[2]:
		f.Src = addrs[2]
	default:
		tb.Fatalf("trace %q: no source address", line)
	}

	code, err := strconv.ParseUint(fields[6], 16, 16)
	if err != nil {
		tb.Fatalf("trace %q: bad code: %v", line, err)
	}
	f.Code = protocol.Code(code)

	f.Payload, err = hex.DecodeString(fields[8])
	if err != nil {
		tb.Fatalf("trace %q: bad payload: %v", line, err)
	}
	if n, err := strconv.Atoi(fields[7]); err != nil || n != len(f.Payload) {
		tb.Fatalf("trace %q: length field %s does not match %d payload bytes", line, fields[7], len(f.Payload))
	}

	return f
}

// TraceLine converts a trace line into the wire form the gateway emits,
// without the line terminator.
func TraceLine(tb testing.TB, line string, remote protocol.Address) string {
	tb.Helper()
	return strings.TrimSuffix(protocol.EncodeLine(ParseTrace(tb, line, remote)), protocol.LineTerminator)
}
