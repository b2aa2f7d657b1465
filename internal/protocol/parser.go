package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// VentStatusPayloadSize is the fixed length of a 31DA status payload
const VentStatusPayloadSize = 29

// 31DA payload layout (byte offsets)
const (
	offAirQuality     = 1  // %, raw/2
	offQualityBase    = 2  // bitmask
	offCO2            = 3  // ppm, uint16
	offOutdoorRH      = 5  // %
	offIndoorRH       = 6  // %
	offExhaustTemp    = 7  // int16, 1/100 °C
	offSupplyTemp     = 9  // int16, 1/100 °C
	offIndoorTemp     = 11 // int16, 1/100 °C
	offOutdoorTemp    = 13 // int16, 1/100 °C
	offCapabilities   = 15 // uint16 bitmask
	offBypassPosition = 17 // %, raw/2
	offFlags          = 18 // fault | filter | defrost | speed mode (5 bits)
	offExhaustFan     = 19 // %, raw/2
	offInletFan       = 20 // %, raw/2
	offRemainingTime  = 21 // minutes, uint16
	offPostHeater     = 23 // %, raw/2
	offPreHeater      = 24 // %, raw/2
	offInletFlow      = 25 // 1/100 m3/h, uint16
	offExhaustFlow    = 27 // 1/100 m3/h, uint16
)

// Flag bits at offFlags
const (
	flagFaultActive   = 0x80
	flagFilterDirty   = 0x40
	flagDefrostActive = 0x20
	flagSpeedModeMask = 0x1F
)

// Tenths is a temperature in tenths of a degree Celsius
type Tenths int

// Celsius converts to degrees
func (t Tenths) Celsius() float64 {
	return float64(t) / 10
}

// String renders the value with one decimal, e.g. "-5.0"
func (t Tenths) String() string {
	sign := ""
	v := int(t)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d", sign, v/10, v%10)
}

// SpeedMode is the simplified fan mode reported by the unit
type SpeedMode int

const (
	SpeedUnknown SpeedMode = iota
	SpeedAuto
	SpeedLow
	SpeedMedium
	SpeedHigh
	SpeedTimer
	SpeedOff
	SpeedAway
	SpeedNight
	SpeedOther
)

// String returns the lower-case mode name
func (m SpeedMode) String() string {
	switch m {
	case SpeedAuto:
		return "auto"
	case SpeedLow:
		return "low"
	case SpeedMedium:
		return "medium"
	case SpeedHigh:
		return "high"
	case SpeedTimer:
		return "timer"
	case SpeedOff:
		return "off"
	case SpeedAway:
		return "away"
	case SpeedNight:
		return "night"
	case SpeedOther:
		return "other"
	default:
		return "unknown"
	}
}

// speedModeFromRaw maps the 5-bit active speed mode onto SpeedMode.
//
//	0       off
//	1..3    speed 1..3 (low, medium, high)
//	4..10   speed 4..10
//	11..20  speed 1..10 temporary override (timer)
//	21      away
//	22, 23  absolute minimum / maximum
//	24      auto
//	25      night
func speedModeFromRaw(raw byte) SpeedMode {
	switch {
	case raw == 0:
		return SpeedOff
	case raw == 1:
		return SpeedLow
	case raw == 2:
		return SpeedMedium
	case raw == 3:
		return SpeedHigh
	case raw >= 11 && raw <= 20:
		return SpeedTimer
	case raw == 21:
		return SpeedAway
	case raw == 24:
		return SpeedAuto
	case raw == 25:
		return SpeedNight
	case raw <= 23:
		return SpeedOther
	default:
		return SpeedUnknown
	}
}

// capabilityNames are listed from the most significant bit down
var capabilityNames = [16]string{
	"off", "away", "timer", "boost", "auto",
	"speed_4", "speed_5", "speed_6", "speed_7", "speed_8", "speed_9", "speed_10",
	"night", "reserved", "post_heater", "pre_heater",
}

// StatusRecord is one decoded 31DA snapshot of the unit.
// Optional fields are nil when the unit reports them as not available.
type StatusRecord struct {
	SpeedMode    SpeedMode
	RawSpeedMode byte

	// Temperature is the indoor temperature, or the exhaust (extract)
	// air temperature when the unit has no indoor sensor.
	Temperature *Tenths

	FaultActive bool
	FaultCode   *uint8 // 31DA carries no fault code; set only by sources that do
	FilterDirty bool

	DefrostActive bool

	ExhaustTemperature *Tenths
	SupplyTemperature  *Tenths
	IndoorTemperature  *Tenths
	OutdoorTemperature *Tenths

	AirQuality      *float64 // %
	AirQualityBase  []string // sensors contributing to AirQuality: "rh", "co2", "voc"
	OutdoorImproved bool
	CO2             *int     // ppm
	IndoorHumidity  *int     // %
	OutdoorHumidity *int     // %
	Capabilities    []string // see capabilityNames
	BypassPosition  *float64 // %
	ExhaustFanSpeed *float64 // %
	InletFanSpeed   *float64 // %
	RemainingTime   int      // minutes left on a timer override
	PostHeater      *float64 // %
	PreHeater       *float64 // %
	InletFlow       *float64 // m3/h
	ExhaustFlow     *float64 // m3/h
}

// String returns a one-line summary for logs
func (r *StatusRecord) String() string {
	temp := "n/a"
	if r.Temperature != nil {
		temp = r.Temperature.String()
	}
	return fmt.Sprintf("Status{mode=%s, temp=%s, fault=%v, filter_dirty=%v}",
		r.SpeedMode, temp, r.FaultActive, r.FilterDirty)
}

// Interpret decodes a frame from the paired unit into a StatusRecord.
//
// matched is false when the frame is not addressed between the bound
// unit and this remote. That is the normal case on a shared radio
// medium and is not an error. A matched frame that carries no known
// status layout returns ErrUnknownStatusFrame.
func Interpret(f *Frame, id Identity) (rec *StatusRecord, matched bool, err error) {
	if !addressedToUs(f, id) {
		return nil, false, nil
	}

	if f.Code != CodeVentStatus || (f.Type != TypeInform && f.Type != TypeResponse) {
		return nil, true, NewError(KindUnknownStatusFrame, "%s %s from %s", f.Type, f.Code, f.Src)
	}
	if len(f.Payload) != VentStatusPayloadSize {
		return nil, true, NewError(KindUnknownStatusFrame, "%s payload is %d bytes, want %d",
			f.Code, len(f.Payload), VentStatusPayloadSize)
	}

	return parseVentStatus(f.Payload), true, nil
}

func addressedToUs(f *Frame, id Identity) bool {
	if !id.IsPaired() || f.Src != id.Unit {
		return false
	}
	return f.Dest == id.Remote || f.Dest == id.Unit || f.Dest.IsBroadcast()
}

// parseVentStatus decodes a 29-byte 31DA payload
func parseVentStatus(p []byte) *StatusRecord {
	flags := p[offFlags]
	rec := &StatusRecord{
		RawSpeedMode:  flags & flagSpeedModeMask,
		FaultActive:   flags&flagFaultActive != 0,
		FilterDirty:   flags&flagFilterDirty != 0,
		DefrostActive: flags&flagDefrostActive != 0,
	}
	rec.SpeedMode = speedModeFromRaw(rec.RawSpeedMode)

	rec.ExhaustTemperature = parseTemperature(p[offExhaustTemp:])
	rec.SupplyTemperature = parseTemperature(p[offSupplyTemp:])
	rec.IndoorTemperature = parseTemperature(p[offIndoorTemp:])
	rec.OutdoorTemperature = parseTemperature(p[offOutdoorTemp:])
	rec.Temperature = rec.IndoorTemperature
	if rec.Temperature == nil {
		rec.Temperature = rec.ExhaustTemperature
	}

	rec.AirQuality = parsePercent(p[offAirQuality])
	base := p[offQualityBase]
	if base&0x80 != 0 {
		rec.AirQualityBase = append(rec.AirQualityBase, "rh")
	}
	if base&0x40 != 0 {
		rec.AirQualityBase = append(rec.AirQualityBase, "co2")
	}
	if base&0x20 != 0 {
		rec.AirQualityBase = append(rec.AirQualityBase, "voc")
	}
	rec.OutdoorImproved = base&0x10 == 0

	if co2 := int(binary.BigEndian.Uint16(p[offCO2:])); co2 <= 0x3FFF {
		rec.CO2 = &co2
	}
	rec.OutdoorHumidity = parseHumidity(p[offOutdoorRH])
	rec.IndoorHumidity = parseHumidity(p[offIndoorRH])

	caps := binary.BigEndian.Uint16(p[offCapabilities:])
	for i, name := range capabilityNames {
		if caps&(1<<(15-i)) != 0 {
			rec.Capabilities = append(rec.Capabilities, name)
		}
	}

	rec.BypassPosition = parsePercent(p[offBypassPosition])
	rec.ExhaustFanSpeed = parsePercent(p[offExhaustFan])
	rec.InletFanSpeed = parsePercent(p[offInletFan])
	rec.RemainingTime = int(binary.BigEndian.Uint16(p[offRemainingTime:]))
	rec.PostHeater = parsePercent(p[offPostHeater])
	rec.PreHeater = parsePercent(p[offPreHeater])
	rec.InletFlow = parseFlow(p[offInletFlow:])
	rec.ExhaustFlow = parseFlow(p[offExhaustFlow:])

	return rec
}

// parseTemperature decodes a signed 16-bit value in hundredths of a degree
// and rounds it to tenths, half away from zero. Values outside the
// representable physical range (including 0x7FFF and 0x8000) mean "no sensor".
func parseTemperature(b []byte) *Tenths {
	hundredths := int(int16(binary.BigEndian.Uint16(b)))
	if hundredths < -27315 || hundredths > 32766 {
		return nil
	}

	var t Tenths
	if hundredths < 0 {
		t = Tenths((hundredths - 5) / 10)
	} else {
		t = Tenths((hundredths + 5) / 10)
	}
	return &t
}

// parsePercent decodes a half-percent byte; anything above 100% is "not available".
func parsePercent(b byte) *float64 {
	v := float64(b) / 2
	if v > 100 {
		return nil
	}
	return &v
}

func parseHumidity(b byte) *int {
	if b > 100 {
		return nil
	}
	v := int(b)
	return &v
}

func parseFlow(b []byte) *float64 {
	raw := binary.BigEndian.Uint16(b)
	if raw > 0x7FFF {
		return nil
	}
	v := float64(raw) / 100
	return &v
}

// CapabilityString joins capability names for display
func (r *StatusRecord) CapabilityString() string {
	return strings.Join(r.Capabilities, ", ")
}
