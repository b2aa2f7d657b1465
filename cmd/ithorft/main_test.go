package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/muurk/ithorft/internal/protocol"
	"github.com/muurk/ithorft/internal/transport"
)

func TestFormatStatusLine(t *testing.T) {
	temp := protocol.Tenths(214)
	fan := 40.0

	tests := []struct {
		name string
		rec  *protocol.StatusRecord
		want string
	}{
		{
			name: "minimal",
			rec:  &protocol.StatusRecord{SpeedMode: protocol.SpeedLow},
			want: "mode=low",
		},
		{
			name: "full",
			rec: &protocol.StatusRecord{
				SpeedMode:       protocol.SpeedTimer,
				Temperature:     &temp,
				ExhaustFanSpeed: &fan,
				RemainingTime:   17,
				FilterDirty:     true,
				FaultActive:     true,
			},
			want: "mode=timer temp=21.4 exhaust_fan=40.0% timer=17m filter=dirty FAULT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatStatusLine(tt.rec); got != tt.want {
				t.Errorf("formatStatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPairingTips(t *testing.T) {
	timeout := protocol.NewError(protocol.KindPairingTimeout, "no response")
	if tips := pairingTips(timeout); len(tips) != 3 {
		t.Errorf("timeout tips = %v", tips)
	}

	wrapped := fmt.Errorf("pairing: %w", protocol.NewError(protocol.KindHandshakeMismatch, "other unit"))
	if tips := pairingTips(wrapped); len(tips) != 1 || !strings.Contains(tips[0], "Another unit") {
		t.Errorf("mismatch tips = %v", tips)
	}
}

func TestCommandTree(t *testing.T) {
	want := []string{"pair", "send", "monitor", "status", "identity", "discover", "selftest", "version"}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing command %q", name)
		}
	}

	for _, name := range protocol.CommandNames() {
		if !strings.Contains(sendCmd.Use, name) {
			t.Errorf("send usage %q does not list %q", sendCmd.Use, name)
		}
	}
}

func TestReplay(t *testing.T) {
	remote := protocol.NewAddress(protocol.ClassRemote, 0x12345)
	unit := protocol.NewAddress(protocol.ClassVentilationUnit, 0x1234)
	id := protocol.Identity{Remote: remote, Unit: unit, Status: protocol.StatusPaired}

	statusLine := protocol.EncodeLine(&protocol.Frame{
		Dest:    remote,
		Src:     unit,
		Type:    protocol.TypeInform,
		Code:    protocol.CodeVentStatus,
		Payload: mustHex(t, "00F0007FFFEFEF0884079E085A07714000125850FF0000EFEF41E641E6"),
	})

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []transport.CaptureRecord{
		{Timestamp: at, Direction: "tx", Line: ":4812347523451022F10363030405"},
		{Timestamp: at, Direction: "rx", Line: strings.TrimRight(statusLine, "\r\n")},
		{Timestamp: at, Direction: "rx", Line: "# evofw3 0.7.1"},
	}

	var out bytes.Buffer
	s := replay(&out, records, id)
	if s.lines != 3 || s.frames != 2 || s.status != 1 || s.discarded != 1 {
		t.Errorf("summary = %+v", s)
	}
	if !strings.Contains(out.String(), "mode=auto temp=21.4") {
		t.Errorf("replay output missing status line:\n%s", out.String())
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
