package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/macdems/philipstv/internal/jointspace"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Pair       key.Binding

	// Lists
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Reload  key.Binding

	// Ambilight
	AmbilightPower key.Binding
	FollowVideo    key.Binding
	FollowAudio    key.Binding
	Lounge         key.Binding
	ColorRed       key.Binding
	ColorGreen     key.Binding
	ColorBlue      key.Binding
	ColorWhite     key.Binding
	LightnessDown  key.Binding
	LightnessUp    key.Binding
	SaturationDown key.Binding
	SaturationUp   key.Binding

	// Log
	WarnOnly key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to remote"),
		),
		Pair: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Pair with the TV"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Select"),
		),
		Reload: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload"),
		),

		AmbilightPower: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "Power"),
		),
		FollowVideo: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Follow video"),
		),
		FollowAudio: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Follow audio"),
		),
		Lounge: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Lounge light"),
		),
		ColorRed: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Red"),
		),
		ColorGreen: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Green"),
		),
		ColorBlue: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "Blue"),
		),
		ColorWhite: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "White"),
		),
		LightnessDown: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "Lightness down"),
		),
		LightnessUp: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "Lightness up"),
		),
		SaturationDown: key.NewBinding(
			key.WithKeys("{"),
			key.WithHelp("{", "Saturation down"),
		),
		SaturationUp: key.NewBinding(
			key.WithKeys("}"),
			key.WithHelp("}", "Saturation up"),
		),

		WarnOnly: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "Warnings only"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Escape},
		{k.Up, k.Down, k.Confirm, k.Reload},
		{k.AmbilightPower, k.FollowVideo, k.FollowAudio, k.Lounge},
		{k.ColorRed, k.ColorGreen, k.ColorBlue, k.ColorWhite},
		{k.LightnessDown, k.LightnessUp, k.SaturationDown, k.SaturationUp},
		{k.WarnOnly},
		{k.Pair, k.CycleTheme, k.Help, k.Quit},
	}
}

// remoteKeys maps terminal keys to TV keys on the remote view.
var remoteKeys = map[string]jointspace.Key{
	"up":        jointspace.KeyCursorUp,
	"down":      jointspace.KeyCursorDown,
	"left":      jointspace.KeyCursorLeft,
	"right":     jointspace.KeyCursorRight,
	"enter":     jointspace.KeyConfirm,
	"backspace": jointspace.KeyBack,
	"+":         jointspace.KeyVolumeUp,
	"=":         jointspace.KeyVolumeUp,
	"-":         jointspace.KeyVolumeDown,
	"m":         jointspace.KeyMute,
	"p":         jointspace.KeyStandby,
	"H":         jointspace.KeyHome,
	"[":         jointspace.KeyChannelStepDown,
	"]":         jointspace.KeyChannelStepUp,
	" ":         jointspace.KeyPlayPause,
	"s":         jointspace.KeySource,
	"i":         jointspace.KeyInfo,
	"o":         jointspace.KeyOptions,
	"t":         jointspace.KeyWatchTV,
	"0":         jointspace.KeyDigit0,
	"1":         jointspace.KeyDigit1,
	"2":         jointspace.KeyDigit2,
	"3":         jointspace.KeyDigit3,
	"4":         jointspace.KeyDigit4,
	"5":         jointspace.KeyDigit5,
	"6":         jointspace.KeyDigit6,
	"7":         jointspace.KeyDigit7,
	"8":         jointspace.KeyDigit8,
	"9":         jointspace.KeyDigit9,
}
