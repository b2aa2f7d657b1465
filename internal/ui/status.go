package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/ithorft/internal/protocol"
)

// StatusFields lists the populated fields of a status record in display order.
// Values the unit reported as not available are left out.
func StatusFields(rec *protocol.StatusRecord) []Field {
	fields := []Field{
		{"Mode", fmt.Sprintf("%s (%d)", rec.SpeedMode, rec.RawSpeedMode)},
	}
	if rec.RemainingTime > 0 {
		fields = append(fields, Field{"Timer", fmt.Sprintf("%d min", rec.RemainingTime)})
	}

	temps := []struct {
		key string
		val *protocol.Tenths
	}{
		{"Temperature", rec.Temperature},
		{"Indoor", rec.IndoorTemperature},
		{"Outdoor", rec.OutdoorTemperature},
		{"Supply", rec.SupplyTemperature},
		{"Exhaust", rec.ExhaustTemperature},
	}
	for _, t := range temps {
		if t.val != nil {
			fields = append(fields, Field{t.key, t.val.String() + " °C"})
		}
	}

	fields = appendPercent(fields, "Exhaust fan", rec.ExhaustFanSpeed)
	fields = appendPercent(fields, "Inlet fan", rec.InletFanSpeed)
	fields = appendFloat(fields, "Exhaust flow", rec.ExhaustFlow, "m³/h")
	fields = appendFloat(fields, "Inlet flow", rec.InletFlow, "m³/h")
	fields = appendPercent(fields, "Bypass", rec.BypassPosition)
	fields = appendPercent(fields, "Air quality", rec.AirQuality)
	if rec.CO2 != nil {
		fields = append(fields, Field{"CO2", fmt.Sprintf("%d ppm", *rec.CO2)})
	}
	if rec.IndoorHumidity != nil {
		fields = append(fields, Field{"Indoor humidity", fmt.Sprintf("%d %%", *rec.IndoorHumidity)})
	}
	if rec.OutdoorHumidity != nil {
		fields = append(fields, Field{"Outdoor humidity", fmt.Sprintf("%d %%", *rec.OutdoorHumidity)})
	}
	fields = appendPercent(fields, "Post heater", rec.PostHeater)
	fields = appendPercent(fields, "Pre heater", rec.PreHeater)

	fields = append(fields,
		Field{"Filter", yesNo(rec.FilterDirty, "dirty", "clean")},
		Field{"Fault", yesNo(rec.FaultActive, "active", "none")},
		Field{"Defrost", yesNo(rec.DefrostActive, "active", "off")},
	)
	if rec.FaultCode != nil {
		fields = append(fields, Field{"Fault code", fmt.Sprintf("%d", *rec.FaultCode)})
	}
	if len(rec.Capabilities) > 0 {
		fields = append(fields, Field{"Capabilities", rec.CapabilityString()})
	}
	return fields
}

func appendPercent(fields []Field, key string, v *float64) []Field {
	return appendFloat(fields, key, v, "%")
}

func appendFloat(fields []Field, key string, v *float64, unit string) []Field {
	if v == nil {
		return fields
	}
	return append(fields, Field{key, fmt.Sprintf("%.1f %s", *v, unit)})
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// IdentityFields lists an identity for display
func IdentityFields(id protocol.Identity) []Field {
	fields := []Field{{"Status", id.Status.String()}}
	if id.Remote != 0 {
		fields = append(fields, Field{"Remote", id.Remote.String()})
	}
	if id.Unit != 0 {
		fields = append(fields, Field{"Unit", id.Unit.String()})
	}
	if len(id.PreviousRemotes) > 0 {
		prev := make([]string, len(id.PreviousRemotes))
		for i, a := range id.PreviousRemotes {
			prev[i] = a.String()
		}
		fields = append(fields, Field{"Previous remotes", strings.Join(prev, ", ")})
	}
	return fields
}

// RenderStatus renders a status record as a box, or as plain lines when
// stdout is not a terminal. Warnings are highlighted.
func RenderStatus(rec *protocol.StatusRecord) string {
	return renderStatus(rec, !IsTerminal(), GetTerminalWidth())
}

func renderStatus(rec *protocol.StatusRecord, plain bool, width int) string {
	fields := StatusFields(rec)
	if plain {
		return renderFields(fields, true)
	}

	lines := make([]string, 0, len(fields)+1)
	lines = append(lines, HeaderTitleStyle.UnsetPaddingLeft().Render("VENTILATION STATUS"))
	for _, f := range fields {
		value := ValueStyle
		switch {
		case f.Key == "Filter" && rec.FilterDirty, f.Key == "Defrost" && rec.DefrostActive:
			value = lipgloss.NewStyle().Foreground(WarningColor)
		case f.Key == "Fault" && rec.FaultActive:
			value = lipgloss.NewStyle().Foreground(ErrorColor)
		}
		lines = append(lines, KeyStyle.Render(f.Key+":")+" "+value.Render(f.Value))
	}

	border := PrimaryColor
	if rec.FaultActive {
		border = ErrorColor
	}
	return boxStyle(border, width).Render(strings.Join(lines, "\n"))
}

// RenderIdentity renders an identity the same way as RenderStatus
func RenderIdentity(id protocol.Identity) string {
	fields := IdentityFields(id)
	if !IsTerminal() {
		return renderFields(fields, true)
	}
	border := MutedColor
	if id.IsPaired() {
		border = SuccessColor
	}
	title := HeaderTitleStyle.UnsetPaddingLeft().Render("IDENTITY")
	return boxStyle(border, GetTerminalWidth()).Render(title + "\n" + renderFields(fields, false))
}
