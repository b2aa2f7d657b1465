// Package ui renders command output for the ithorft CLI.
//
// Components follow a "print once" pattern using Lipgloss:
//
//   - Header: command banner with the gateway and other parameters
//   - Result: success, failure or warning box
//   - Status: ventilation status and identity views
//
// When stdout is not a terminal every component falls back to plain
// "Key: Value" lines so output can be piped or grepped.
//
// Example:
//
//	fmt.Println(ui.NewHeader("Pairing", "ithorft pair",
//	    ui.Field{Key: "Gateway", Value: gateway},
//	).Render())
//
//	fmt.Println(ui.RenderSuccess("Paired",
//	    ui.Field{Key: "Remote", Value: id.Remote.String()},
//	    ui.Field{Key: "Unit", Value: id.Unit.String()},
//	))
//
// # Logging Integration
//
// Zap logging is silent unless ITHORFT_LOG_LEVEL or --log-level is set,
// and it writes to stderr, so the rendered output on stdout stays clean.
package ui
