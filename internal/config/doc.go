// Package config loads the philipstv settings file.
//
// # Overview
//
// The remote reads a single TOML file, by default
// ~/.config/philipstv/config.toml. A missing file is not an error: Load
// returns Default and the remote starts with no TV configured, ready for
// discovery or a host typed into the config.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/philipstv/config.toml
//  3. If the file doesn't exist, use Default
//  4. Fields that are missing or blank keep their default
//
// # TOML Format
//
//	state_path = "~/.local/share/philipstv/state.db"
//	log_file = "~/.local/state/philipstv/philipstv.log"
//	log_level = "info"
//
//	[tv]
//	host = "192.168.1.20"
//	mac = "AA:BB:CC:DD:EE:FF"
//	port = 1926
//	api_version = 6
//	insecure_skip_verify = true
//
//	[retry]
//	attempts = 3
//	timeout = "500ms"
//	wake_delay = "500ms"
//
//	[wol]
//	broadcast = "255.255.255.255"
//	port = 9
//
//	[pairing]
//	device_name = "den"
//	app_name = "PhilipsTV Remote"
//	signing_key = ""
//
//	[ambilight]
//	lightness_node = 2131230769
//	saturation_node = 2131230771
//
//	[discovery]
//	enabled = true
//	interval = "30s"
//
//	[mqtt]
//	broker = "tcp://mqtt.local:1883"
//	topic_prefix = "philipstv"
//
//	[ui]
//	theme = "Nightfox"
//
// Durations use time.ParseDuration syntax. Paths accept a leading tilde.
//
// # Live Reload
//
// Watch observes the file's directory with fsnotify and hands every
// successfully parsed revision to a callback. The app uses it to retarget a
// running client when tv.host or tv.mac change. A revision that fails to
// parse is logged and ignored.
package config
