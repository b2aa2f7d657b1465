package protocol_test

import (
	"slices"
	"testing"

	"github.com/muurk/ithorft/internal/protocol"
	"github.com/muurk/ithorft/internal/protocol/protocoltest"
)

func traceIdentity() protocol.Identity {
	return protocol.Identity{
		Remote: protocoltest.TraceRemote,
		Unit:   protocoltest.TraceUnit,
		Status: protocol.StatusPaired,
	}
}

func TestTrace_WireRoundTrip(t *testing.T) {
	lines := append(slices.Clone(protocoltest.PairingTrace), protocoltest.StatusTrace...)
	for _, trace := range lines {
		want := protocoltest.ParseTrace(t, trace, 0)
		got, err := protocol.DecodeLine(protocoltest.TraceLine(t, trace, 0))
		if err != nil {
			t.Errorf("DecodeLine(%q) error = %v", trace, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("DecodeLine(%q) = %v, want %v", trace, got, want)
		}
	}
}

func TestTrace_BuildersMatchRecordedFrames(t *testing.T) {
	status, err := protocol.BuildStatusRequest(traceIdentity())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		built *protocol.Frame
		trace string
	}{
		{"bind offer", protocol.BuildPairingRequest(protocoltest.TraceRemote), protocoltest.PairingTrace[0]},
		{"status request", status, protocoltest.StatusTrace[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := protocoltest.ParseTrace(t, tt.trace, 0)
			if !tt.built.Equal(want) {
				t.Errorf("built %v, recorded %v", tt.built, want)
			}
			if got, want := protocol.EncodeLine(tt.built), protocol.EncodeLine(want); got != want {
				t.Errorf("EncodeLine() = %q, want %q", got, want)
			}
		})
	}
}

func TestTrace_RecordedStatus(t *testing.T) {
	tests := []struct {
		name        string
		trace       string
		temperature protocol.Tenths
		exhaust     protocol.Tenths
		supply      protocol.Tenths
		outdoor     protocol.Tenths
		filterDirty bool
		co2         int // 0 when not reported
		exhaustFan  float64
		flow        float64
		caps        []string
	}{
		{
			name:        "broadcast after pairing",
			trace:       protocoltest.PairingTrace[4],
			temperature: 216,
			exhaust:     200,
			supply:      199,
			outdoor:     195,
			filterDirty: true,
			exhaustFan:  40,
			flow:        164.3,
			caps:        []string{"away"},
		},
		{
			name:        "reply to status request",
			trace:       protocoltest.StatusTrace[1],
			temperature: 209,
			exhaust:     204,
			supply:      218,
			outdoor:     209,
			co2:         677,
			exhaustFan:  0,
			flow:        51.1,
			caps:        []string{"away", "auto", "night"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := protocoltest.ParseTrace(t, tt.trace, 0)
			rec, matched, err := protocol.Interpret(f, traceIdentity())
			if err != nil || !matched {
				t.Fatalf("Interpret() matched = %v, error = %v", matched, err)
			}

			if rec.SpeedMode != protocol.SpeedAuto {
				t.Errorf("speed mode = %s, want auto", rec.SpeedMode)
			}
			if rec.FilterDirty != tt.filterDirty || rec.FaultActive {
				t.Errorf("filter dirty = %v, fault = %v", rec.FilterDirty, rec.FaultActive)
			}

			temps := []struct {
				name string
				got  *protocol.Tenths
				want protocol.Tenths
			}{
				{"temperature", rec.Temperature, tt.temperature},
				{"exhaust", rec.ExhaustTemperature, tt.exhaust},
				{"supply", rec.SupplyTemperature, tt.supply},
				{"outdoor", rec.OutdoorTemperature, tt.outdoor},
			}
			for _, tc := range temps {
				if tc.got == nil || *tc.got != tc.want {
					t.Errorf("%s = %v, want %s", tc.name, tc.got, tc.want)
				}
			}

			switch {
			case tt.co2 == 0 && rec.CO2 != nil:
				t.Errorf("co2 = %d, want not reported", *rec.CO2)
			case tt.co2 != 0 && (rec.CO2 == nil || *rec.CO2 != tt.co2):
				t.Errorf("co2 = %v, want %d", rec.CO2, tt.co2)
			}
			if rec.IndoorHumidity != nil || rec.OutdoorHumidity != nil {
				t.Error("humidity reported, unit has no RH sensors")
			}
			if rec.ExhaustFanSpeed == nil || *rec.ExhaustFanSpeed != tt.exhaustFan {
				t.Errorf("exhaust fan = %v, want %v", rec.ExhaustFanSpeed, tt.exhaustFan)
			}
			if rec.InletFanSpeed != nil {
				t.Errorf("inlet fan = %v, want not reported", *rec.InletFanSpeed)
			}
			if rec.InletFlow == nil || *rec.InletFlow != tt.flow || rec.ExhaustFlow == nil || *rec.ExhaustFlow != tt.flow {
				t.Errorf("flows = %v / %v, want %v", rec.InletFlow, rec.ExhaustFlow, tt.flow)
			}
			if !slices.Equal(rec.Capabilities, tt.caps) {
				t.Errorf("capabilities = %v, want %v", rec.Capabilities, tt.caps)
			}
		})
	}
}
