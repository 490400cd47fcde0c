package jointspace

// Key is a JointSpace remote-control key name as accepted by input/key.
type Key string

const (
	KeyStandby         Key = "Standby"
	KeyBack            Key = "Back"
	KeyFind            Key = "Find"
	KeyRedColour       Key = "RedColour"
	KeyGreenColour     Key = "GreenColour"
	KeyYellowColour    Key = "YellowColour"
	KeyBlueColour      Key = "BlueColour"
	KeyHome            Key = "Home"
	KeyVolumeUp        Key = "VolumeUp"
	KeyVolumeDown      Key = "VolumeDown"
	KeyMute            Key = "Mute"
	KeyOptions         Key = "Options"
	KeyDot             Key = "Dot"
	KeyDigit0          Key = "Digit0"
	KeyDigit1          Key = "Digit1"
	KeyDigit2          Key = "Digit2"
	KeyDigit3          Key = "Digit3"
	KeyDigit4          Key = "Digit4"
	KeyDigit5          Key = "Digit5"
	KeyDigit6          Key = "Digit6"
	KeyDigit7          Key = "Digit7"
	KeyDigit8          Key = "Digit8"
	KeyDigit9          Key = "Digit9"
	KeyInfo            Key = "Info"
	KeyCursorUp        Key = "CursorUp"
	KeyCursorDown      Key = "CursorDown"
	KeyCursorLeft      Key = "CursorLeft"
	KeyCursorRight     Key = "CursorRight"
	KeyConfirm         Key = "Confirm"
	KeyNext            Key = "Next"
	KeyPrevious        Key = "Previous"
	KeyAdjust          Key = "Adjust"
	KeyWatchTV         Key = "WatchTV"
	KeyViewmode        Key = "Viewmode"
	KeyTeletext        Key = "Teletext"
	KeySubtitle        Key = "Subtitle"
	KeyChannelStepUp   Key = "ChannelStepUp"
	KeyChannelStepDown Key = "ChannelStepDown"
	KeySource          Key = "Source"
	KeyAmbilightOnOff  Key = "AmbilightOnOff"
	KeyPlayPause       Key = "PlayPause"
	KeyPlay            Key = "Play"
	KeyPause           Key = "Pause"
	KeyFastForward     Key = "FastForward"
	KeyStop            Key = "Stop"
	KeyRewind          Key = "Rewind"
	KeyRecord          Key = "Record"
	KeyOnline          Key = "Online"
)

var knownKeys = map[Key]struct{}{}

func init() {
	for _, k := range []Key{
		KeyStandby, KeyBack, KeyFind, KeyRedColour, KeyGreenColour, KeyYellowColour,
		KeyBlueColour, KeyHome, KeyVolumeUp, KeyVolumeDown, KeyMute, KeyOptions, KeyDot,
		KeyDigit0, KeyDigit1, KeyDigit2, KeyDigit3, KeyDigit4, KeyDigit5, KeyDigit6,
		KeyDigit7, KeyDigit8, KeyDigit9, KeyInfo, KeyCursorUp, KeyCursorDown,
		KeyCursorLeft, KeyCursorRight, KeyConfirm, KeyNext, KeyPrevious, KeyAdjust,
		KeyWatchTV, KeyViewmode, KeyTeletext, KeySubtitle, KeyChannelStepUp,
		KeyChannelStepDown, KeySource, KeyAmbilightOnOff, KeyPlayPause, KeyPlay,
		KeyPause, KeyFastForward, KeyStop, KeyRewind, KeyRecord, KeyOnline,
	} {
		knownKeys[k] = struct{}{}
	}
}

// Known reports whether k is one of the documented key names. Firmware may
// accept others, so SendKey does not enforce it.
func (k Key) Known() bool {
	_, ok := knownKeys[k]
	return ok
}

// DigitKey returns the key for a decimal digit.
func DigitKey(d int) (Key, bool) {
	if d < 0 || d > 9 {
		return "", false
	}
	return Key("Digit" + string(rune('0'+d))), true
}
