// Package app wires configuration, persistence, the JointSpace client and the
// front ends into a running remote.
//
// # Overview
//
// Run is the composition root. It loads the TOML config, opens the bbolt
// state file, builds one jointspace.Client and hands it to whichever front
// end the options select. Every front end shares that client, so retargeting
// it (from the Devices view or a config reload) affects all of them.
//
// # Modes
//
//   - default: the Bubble Tea remote, with discovery, config watch and the
//     MQTT bridge when a broker is configured
//   - Discover: one mDNS browse, then a table of the TVs that answered
//   - Key: send a single key and exit
//   - Pair: request pairing and read the PIN from stdin
//   - Bridge: the MQTT bridge without a terminal UI
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()       Read config.toml
//	       ├─────> logging.New()       Log file or stderr
//	       ├─────> store.Open()        Endpoint, credentials, theme
//	       ├─────> newClient()         Config host, else last selected TV
//	       ├─────> watchConfig()       Retarget on tv.host / tv.mac edits
//	       ├─────> startDiscovery()    Browser goroutine feeding a Registry
//	       └─────> ui.Run()            Start TUI (blocks)
//
//	Background Discovery Loop:
//	┌─────────────────────────────────────────┐
//	│ Browser.Run() goroutine                 │
//	│  ├─> browse _androidtvremote*._tcp      │
//	│  ├─> probe GET system for the name      │
//	│  └─> registry.Apply(Added/Removed)      │
//	│      └─> UI reads registry.Snapshot()   │
//	└─────────────────────────────────────────┘
//
// # Endpoint Resolution
//
// tv.host in the config wins. Without it the endpoint saved by the last
// device selection is used. In both cases a stored credential for that host
// is restored, and a stored hardware address fills a missing tv.mac.
//
// # Error Handling
//
// Config, logging and state errors are fatal and returned from Run. Device
// errors in the TUI and the bridge are reported and the program keeps going.
// A failed config watch or MQTT connection only disables that feature.
package app
