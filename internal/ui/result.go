package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is the outcome box printed when a command finishes
type Result struct {
	Type            ResultType
	Title           string
	Details         []Field
	Error           error
	Troubleshooting []string
	Width           int
	Plain           bool
}

func newResult(t ResultType, title string) *Result {
	return &Result{
		Type:  t,
		Title: title,
		Width: GetTerminalWidth(),
		Plain: !IsTerminal(),
	}
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Field) *Result {
	r := newResult(ResultSuccess, title)
	r.Details = details
	return r
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting ...string) *Result {
	r := newResult(ResultFailure, title)
	r.Error = err
	r.Troubleshooting = troubleshooting
	return r
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Field) *Result {
	r := newResult(ResultWarning, title)
	r.Details = details
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Field{Key: key, Value: value})
	return r
}

// Render returns the result as a string
func (r *Result) Render() string {
	var (
		label  string
		marker string
		color  lipgloss.Color
		title  lipgloss.Style
	)
	switch r.Type {
	case ResultFailure:
		label, marker, color, title = "FAILED", FailureMarker, ErrorColor, ErrorTitleStyle
	case ResultWarning:
		label, marker, color, title = "WARNING", WarningMarker, WarningColor, WarningTitleStyle
	default:
		label, marker, color, title = "SUCCESS", SuccessMarker, SuccessColor, SuccessTitleStyle
	}

	heading := fmt.Sprintf("%s  %s  ─  %s", marker, label, r.Title)
	if r.Plain {
		heading = fmt.Sprintf("%s: %s", label, r.Title)
	}

	lines := []string{heading}
	if !r.Plain {
		lines[0] = title.Render(heading)
	}

	if r.Error != nil {
		msg := "Error: " + r.Error.Error()
		if !r.Plain {
			msg = ErrorMessageStyle.Render(msg)
		}
		lines = append(lines, msg)
	}
	if len(r.Details) > 0 {
		lines = append(lines, renderFields(r.Details, r.Plain))
	}
	if len(r.Troubleshooting) > 0 {
		lines = append(lines, "Troubleshooting:")
		for _, tip := range r.Troubleshooting {
			item := "  • " + tip
			if !r.Plain {
				item = TroubleshootingItemStyle.Render(item)
			}
			lines = append(lines, item)
		}
	}

	content := strings.Join(lines, "\n")
	if r.Plain {
		return content
	}
	return boxStyle(color, r.Width).Render(content)
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}

// RenderSuccess renders a success box with the given title and details
func RenderSuccess(title string, details ...Field) string {
	return NewSuccessResult(title, details...).Render()
}

// RenderFailure renders a failure box with the given title, error, and troubleshooting tips
func RenderFailure(title string, err error, troubleshooting ...string) string {
	return NewFailureResult(title, err, troubleshooting...).Render()
}
