package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/muurk/ithorft/internal/protocol"
)

func ptrTenths(v int) *protocol.Tenths {
	t := protocol.Tenths(v)
	return &t
}

func ptrFloat(v float64) *float64 {
	return &v
}

func TestStatusFields(t *testing.T) {
	rec := &protocol.StatusRecord{
		SpeedMode:          protocol.SpeedAuto,
		RawSpeedMode:       24,
		Temperature:        ptrTenths(214),
		IndoorTemperature:  ptrTenths(214),
		OutdoorTemperature: ptrTenths(-52),
		ExhaustFanSpeed:    ptrFloat(40),
		FilterDirty:        true,
		Capabilities:       []string{"away"},
	}

	fields := StatusFields(rec)
	got := make(map[string]string, len(fields))
	for _, f := range fields {
		got[f.Key] = f.Value
	}

	want := map[string]string{
		"Mode":         "auto (24)",
		"Temperature":  "21.4 °C",
		"Outdoor":      "-5.2 °C",
		"Exhaust fan":  "40.0 %",
		"Filter":       "dirty",
		"Fault":        "none",
		"Capabilities": "away",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}

	for _, absent := range []string{"Supply", "CO2", "Timer", "Fault code", "Bypass"} {
		if _, ok := got[absent]; ok {
			t.Errorf("unavailable field %q should be omitted", absent)
		}
	}

	if fields[0].Key != "Mode" {
		t.Errorf("first field = %q, want Mode", fields[0].Key)
	}
}

func TestIdentityFields(t *testing.T) {
	remote := protocol.NewAddress(protocol.ClassRemote, 0x12345)
	unit := protocol.NewAddress(protocol.ClassVentilationUnit, 0x1234)
	old := protocol.NewAddress(protocol.ClassRemote, 1)

	fields := IdentityFields(protocol.Identity{
		Remote:          remote,
		Unit:            unit,
		Status:          protocol.StatusPaired,
		PreviousRemotes: []protocol.Address{old},
	})

	want := []Field{
		{"Status", "paired"},
		{"Remote", "29:074565"},
		{"Unit", "18:004660"},
		{"Previous remotes", "29:000001"},
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %v", len(fields), len(want), fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %v, want %v", i, fields[i], want[i])
		}
	}

	unpaired := IdentityFields(protocol.Identity{})
	if len(unpaired) != 1 || unpaired[0].Value != "unpaired" {
		t.Errorf("unpaired identity fields = %v", unpaired)
	}
}

func TestRenderPlain(t *testing.T) {
	r := NewFailureResult("Pairing failed", errors.New("no response"), "Check the gateway antenna")
	r.Plain = true
	out := r.Render()
	for _, want := range []string{"FAILED: Pairing failed", "Error: no response", "• Check the gateway antenna"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q in:\n%s", want, out)
		}
	}

	h := &Header{Title: "pairing", Params: []Field{{"Gateway", "/dev/ttyUSB0"}}, Plain: true}
	if got, want := h.Render(), "PAIRING\nGateway: /dev/ttyUSB0"; got != want {
		t.Errorf("Header.Render() = %q, want %q", got, want)
	}

	status := renderStatus(&protocol.StatusRecord{SpeedMode: protocol.SpeedHigh, RawSpeedMode: 3}, true, 80)
	if !strings.HasPrefix(status, "Mode: high (3)\n") {
		t.Errorf("renderStatus() = %q", status)
	}
}

func TestRenderBoxed(t *testing.T) {
	out := renderStatus(&protocol.StatusRecord{SpeedMode: protocol.SpeedLow, RawSpeedMode: 1, FaultActive: true}, false, 80)
	if !strings.Contains(out, "VENTILATION STATUS") || !strings.Contains(out, "active") {
		t.Errorf("renderStatus() boxed output missing content:\n%s", out)
	}

	r := NewSuccessResult("Paired").AddDetail("Unit", "18:004660")
	r.Plain = false
	r.Width = 70
	if out := r.Render(); !strings.Contains(out, "SUCCESS") || !strings.Contains(out, "18:004660") {
		t.Errorf("Result.Render() missing content:\n%s", out)
	}
}
