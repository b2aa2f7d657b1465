package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one key/value line in a header or result
type Field struct {
	Key   string
	Value string
}

// Header is the banner printed when a long-running command starts
type Header struct {
	Title   string  // e.g., "PAIRING"
	Command string  // e.g., "ithorft pair"
	Params  []Field // e.g., {"Gateway", "/dev/ttyUSB0"}
	Width   int
	Plain   bool
}

// NewHeader creates a header sized for the current terminal
func NewHeader(title, command string, params ...Field) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
		Plain:   !IsTerminal(),
	}
}

// Render returns the header as a string
func (h *Header) Render() string {
	if h.Plain {
		var b strings.Builder
		b.WriteString(strings.ToUpper(h.Title))
		b.WriteString("\n")
		b.WriteString(renderFields(h.Params, true))
		return b.String()
	}

	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)

	content := top
	if len(h.Params) > 0 {
		divider := RenderHorizontalDivider(width-6, "─")
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, renderFields(h.Params, false))
	}
	return boxStyle(PrimaryColor, width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}

// renderFields renders aligned "Key: Value" lines in order
func renderFields(fields []Field, plain bool) string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if plain {
			lines = append(lines, f.Key+": "+f.Value)
			continue
		}
		lines = append(lines, KeyStyle.Render(f.Key+":")+" "+ValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}
