package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
)

var (
	testRemote = NewAddress(ClassRemote, 0x12345)
	testUnit   = NewAddress(ClassVentilationUnit, 0x1234)
)

func TestEncodeLine(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  string
	}{
		{
			name: "auto command",
			frame: &Frame{
				Dest:    testUnit,
				Src:     testRemote,
				Type:    TypeInform,
				Code:    CodeFanMode,
				Payload: []byte{0x63, 0x03, 0x04},
			},
			want: ":4812347523451022F10363030405\r\n",
		},
		{
			name:  "pairing request",
			frame: BuildPairingRequest(testRemote),
			want:  ":FFFFFE752345101FC90C6322F87523450110E0752345FB\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeLine(tt.frame)
			if got != tt.want {
				t.Errorf("EncodeLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeLine_RoundTrip(t *testing.T) {
	frames := []*Frame{
		BuildPairingRequest(testRemote),
		BuildPairingConfirm(testRemote, testUnit),
		{Dest: testRemote, Src: testUnit, Type: TypeRequest, Code: CodeDeviceInfo, Payload: []byte{0x63}},
		{Dest: testRemote, Src: testUnit, Type: TypeWrite, Code: CodeBind, Payload: make([]byte, 6)},
		{Dest: testUnit, Src: testRemote, Type: TypeInform, Code: 0x1234},
	}

	for _, f := range frames {
		t.Run(f.String(), func(t *testing.T) {
			line := EncodeLine(f)
			if !strings.HasPrefix(line, ":") || !strings.HasSuffix(line, "\r\n") {
				t.Fatalf("line %q not framed", line)
			}

			got, err := DecodeLine(line)
			if err != nil {
				t.Fatalf("DecodeLine() error = %v", err)
			}
			if !got.Equal(f) {
				t.Errorf("DecodeLine() = %v, want %v", got, f)
			}
		})
	}
}

func TestDecodeLine_EmptyPayload(t *testing.T) {
	f := &Frame{Dest: testUnit, Src: testRemote, Type: TypeInform, Code: 0x0001}
	got, err := DecodeLine(EncodeLine(f))
	if err != nil {
		t.Fatalf("DecodeLine() error = %v", err)
	}
	if got.Payload != nil {
		t.Errorf("payload = %v, want nil", got.Payload)
	}
}

func TestDecodeLine_TamperedByte(t *testing.T) {
	line := strings.TrimSpace(EncodeLine(BuildPairingConfirm(testRemote, testUnit)))
	raw := []byte(line)

	// Flip one hex digit at every position, header, length and checksum included
	for i := 1; i < len(raw); i++ {
		tampered := bytes.Clone(raw)
		if tampered[i] == '0' {
			tampered[i] = '1'
		} else {
			tampered[i] = '0'
		}

		_, err := DecodeLine(string(tampered))
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("position %d: error = %v, want ErrChecksumMismatch", i, err)
		}
	}
}

func TestDecodeLine_Malformed(t *testing.T) {
	valid := strings.TrimSpace(EncodeLine(BuildPairingConfirm(testRemote, testUnit)))

	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "  \r\n"},
		{"missing marker", valid[1:]},
		{"gateway banner", "# evofw3 0.7.1"},
		{"odd hex length", valid + "0"},
		{"non hex", ":4812347523451022F1036303ZZ05"},
		{"too short", ":4812347523451022F1"},
		{"declared length too long", withChecksum("4812347523451022F10563030400")},
		{"declared length too short", withChecksum("4812347523451022F102630304")},
		{"unknown verb", withChecksum("4812347523454022F103630304")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeLine(tt.line)
			if f != nil {
				t.Errorf("DecodeLine() frame = %v, want nil", f)
			}
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("DecodeLine() error = %v, want ErrMalformedLine", err)
			}

			var perr *Error
			if errors.As(err, &perr) && !perr.Recoverable() {
				t.Error("malformed line should be recoverable")
			}
		})
	}
}

func TestDecodeLine_TrimsWhitespace(t *testing.T) {
	line := "  " + EncodeLine(BuildPairingRequest(testRemote)) + "\n"
	if _, err := DecodeLine(line); err != nil {
		t.Errorf("DecodeLine() error = %v", err)
	}
}

func TestEncodeLine_SchemaViolationPanics(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"fan mode short", &Frame{Type: TypeInform, Code: CodeFanMode, Payload: []byte{0x63}}},
		{"bind empty", &Frame{Type: TypeInform, Code: CodeBind}},
		{"bind not multiple of 6", &Frame{Type: TypeWrite, Code: CodeBind, Payload: make([]byte, 7)}},
		{"device info response", &Frame{Type: TypeResponse, Code: CodeDeviceInfo, Payload: make([]byte, 3)}},
		{"status request", &Frame{Type: TypeRequest, Code: CodeVentStatus, Payload: make([]byte, 2)}},
		{"status inform", &Frame{Type: TypeInform, Code: CodeVentStatus, Payload: make([]byte, 28)}},
		{"oversized", &Frame{Type: TypeInform, Code: 0x0001, Payload: make([]byte, 256)}},
		{"bad verb", &Frame{Type: 0x40, Code: 0x0001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("EncodeLine() did not panic")
				}
			}()
			EncodeLine(tt.frame)
		})
	}
}

func TestMessageType_String(t *testing.T) {
	tests := []struct {
		typ  MessageType
		want string
	}{
		{TypeRequest, "RQ"},
		{TypeInform, "I"},
		{TypeWrite, "W"},
		{TypeResponse, "RP"},
		{0x40, "type(0x40)"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("MessageType(0x%02x).String() = %q, want %q", byte(tt.typ), got, tt.want)
		}
	}
}

func TestFrame_String(t *testing.T) {
	f, err := BuildCommand(CommandAuto, pairedIdentity())
	if err != nil {
		t.Fatal(err)
	}
	want := "I  29:074565 18:004660 22F1 003 630304"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// withChecksum frames a hex body with a valid checksum so later checks are reached
func withChecksum(body string) string {
	raw, err := hex.DecodeString(body)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf(":%s%02X", body, checksum(raw))
}
