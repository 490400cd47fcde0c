// Package ui provides the terminal remote for Philips TVs.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds all state and every device
// call runs as a tea.Cmd so a sleeping TV, which can take seconds to wake,
// never blocks rendering. Results come back as messages and update the
// status line and the link badge in the header.
//
// # Package Structure
//
//   - app.go: Model, Options, Update/View and the Run entry point
//   - commands.go: messages and the device commands
//   - input_handlers.go: per-view key handling
//   - connect.go: device selection and the pairing flow
//   - views.go, header.go, help.go: rendering
//   - modal.go: the PIN entry dialog
//   - keys.go: key bindings and the terminal-to-TV key table
//   - theme.go, style_helpers.go: colour themes and lipgloss helpers
//
// # Views
//
//   - Remote: d-pad, volume, channels, digits and media keys
//   - Apps: installed applications, enter launches
//   - Ambilight: power, style, fixed colours, lightness and saturation
//   - Devices: TVs found by mDNS discovery, enter selects one
//   - Log: tail of the log file, e hides records below warn
//
// # Connecting
//
// Selecting a device retargets the client, restores a stored credential for
// that address and asks the TV for its network interfaces to learn the
// hardware address used for Wake-on-LAN. When the TV answers 401 the pair
// dialog opens: the TV shows a PIN, the user types it, and the resulting
// credential is saved. A wrong PIN starts a fresh pairing request because
// the TV consumes the session either way.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		TV:        client,
//		Store:     st,
//		Devices:   registry,
//		ThemeName: "Nightfox",
//	})
package ui
