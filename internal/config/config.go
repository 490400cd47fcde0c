package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/macdems/philipstv/internal/jointspace"
	"github.com/macdems/philipstv/internal/wol"
)

// Config is the remote's settings file.
type Config struct {
	TV        TV
	Retry     Retry
	WOL       WOL
	Pairing   Pairing
	Ambilight Ambilight
	Discovery Discovery
	MQTT      MQTT
	UI        UI

	StatePath string
	LogFile   string
	LogLevel  string
}

// TV addresses the television.
type TV struct {
	Host               string
	MAC                string
	Port               int
	APIVersion         int
	InsecureSkipVerify bool
}

// Retry mirrors jointspace.RetryPolicy.
type Retry struct {
	Attempts  int
	Timeout   time.Duration
	WakeDelay time.Duration
}

// WOL is where magic packets are sent.
type WOL struct {
	Broadcast string
	Port      int
}

// Pairing describes this remote to the TV.
type Pairing struct {
	DeviceName string
	AppName    string
	SigningKey string
}

// Ambilight holds firmware specific settings node IDs.
type Ambilight struct {
	LightnessNode  int
	SaturationNode int
}

// Discovery controls the mDNS browser.
type Discovery struct {
	Enabled  bool
	Interval time.Duration
}

// MQTT configures the home-automation bridge. An empty Broker disables it.
type MQTT struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
}

// UI holds terminal preferences.
type UI struct {
	Theme string
}

const (
	defaultConfigPath  = "~/.config/philipstv/config.toml"
	defaultStatePath   = "~/.local/share/philipstv/state.db"
	defaultLogFile     = "~/.local/state/philipstv/philipstv.log"
	defaultLogLevel    = "info"
	defaultAppName     = "PhilipsTV Remote"
	defaultTopicPrefix = "philipstv"
	defaultTheme       = "Nightfox"
	defaultInterval    = 30 * time.Second
)

type rawConfig struct {
	TV struct {
		Host               string `toml:"host"`
		MAC                string `toml:"mac"`
		Port               int    `toml:"port"`
		APIVersion         int    `toml:"api_version"`
		InsecureSkipVerify *bool  `toml:"insecure_skip_verify"`
	} `toml:"tv"`
	Retry struct {
		Attempts  int    `toml:"attempts"`
		Timeout   string `toml:"timeout"`
		WakeDelay string `toml:"wake_delay"`
	} `toml:"retry"`
	WOL struct {
		Broadcast string `toml:"broadcast"`
		Port      int    `toml:"port"`
	} `toml:"wol"`
	Pairing struct {
		DeviceName string `toml:"device_name"`
		AppName    string `toml:"app_name"`
		SigningKey string `toml:"signing_key"`
	} `toml:"pairing"`
	Ambilight struct {
		LightnessNode  int `toml:"lightness_node"`
		SaturationNode int `toml:"saturation_node"`
	} `toml:"ambilight"`
	Discovery struct {
		Enabled  *bool  `toml:"enabled"`
		Interval string `toml:"interval"`
	} `toml:"discovery"`
	MQTT struct {
		Broker      string `toml:"broker"`
		Username    string `toml:"username"`
		Password    string `toml:"password"`
		TopicPrefix string `toml:"topic_prefix"`
	} `toml:"mqtt"`
	UI struct {
		Theme string `toml:"theme"`
	} `toml:"ui"`

	StatePath string `toml:"state_path"`
	LogFile   string `toml:"log_file"`
	LogLevel  string `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	policy := jointspace.DefaultRetryPolicy()
	nodes := jointspace.DefaultAmbilightNodes()
	return Config{
		TV: TV{
			Port:               jointspace.DefaultPort,
			APIVersion:         jointspace.DefaultAPIVersion,
			InsecureSkipVerify: true,
		},
		Retry:     Retry{Attempts: policy.Attempts, Timeout: policy.BaseTimeout, WakeDelay: policy.BaseWakeDelay},
		WOL:       WOL{Broadcast: wol.DefaultBroadcast, Port: wol.DefaultPort},
		Pairing:   Pairing{DeviceName: hostname(), AppName: defaultAppName},
		Ambilight: Ambilight{LightnessNode: nodes.Lightness, SaturationNode: nodes.Saturation},
		Discovery: Discovery{Enabled: true, Interval: defaultInterval},
		MQTT:      MQTT{TopicPrefix: defaultTopicPrefix},
		UI:        UI{Theme: defaultTheme},
		StatePath: mustExpand(defaultStatePath),
		LogFile:   mustExpand(defaultLogFile),
		LogLevel:  defaultLogLevel,
	}
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields Default.
func Load(path string) (Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(bytes)
}

// Parse decodes TOML, filling empty fields with defaults.
func Parse(data []byte) (Config, error) {
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()

	cfg.TV.Host = strings.TrimSpace(raw.TV.Host)
	cfg.TV.MAC = strings.TrimSpace(raw.TV.MAC)
	if cfg.TV.MAC != "" {
		if _, err := wol.ParseHardwareAddress(cfg.TV.MAC); err != nil {
			return Config{}, fmt.Errorf("tv.mac: %w", err)
		}
	}
	if raw.TV.Port > 0 {
		cfg.TV.Port = raw.TV.Port
	}
	if raw.TV.APIVersion > 0 {
		cfg.TV.APIVersion = raw.TV.APIVersion
	}
	if raw.TV.InsecureSkipVerify != nil {
		cfg.TV.InsecureSkipVerify = *raw.TV.InsecureSkipVerify
	}

	if raw.Retry.Attempts > 0 {
		cfg.Retry.Attempts = raw.Retry.Attempts
	}
	if err := parseDuration("retry.timeout", raw.Retry.Timeout, &cfg.Retry.Timeout); err != nil {
		return Config{}, err
	}
	if err := parseDuration("retry.wake_delay", raw.Retry.WakeDelay, &cfg.Retry.WakeDelay); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(raw.WOL.Broadcast); v != "" {
		cfg.WOL.Broadcast = v
	}
	if raw.WOL.Port > 0 {
		cfg.WOL.Port = raw.WOL.Port
	}

	if v := strings.TrimSpace(raw.Pairing.DeviceName); v != "" {
		cfg.Pairing.DeviceName = v
	}
	if v := strings.TrimSpace(raw.Pairing.AppName); v != "" {
		cfg.Pairing.AppName = v
	}
	cfg.Pairing.SigningKey = strings.TrimSpace(raw.Pairing.SigningKey)

	if raw.Ambilight.LightnessNode > 0 {
		cfg.Ambilight.LightnessNode = raw.Ambilight.LightnessNode
	}
	if raw.Ambilight.SaturationNode > 0 {
		cfg.Ambilight.SaturationNode = raw.Ambilight.SaturationNode
	}

	if raw.Discovery.Enabled != nil {
		cfg.Discovery.Enabled = *raw.Discovery.Enabled
	}
	if err := parseDuration("discovery.interval", raw.Discovery.Interval, &cfg.Discovery.Interval); err != nil {
		return Config{}, err
	}

	cfg.MQTT.Broker = strings.TrimSpace(raw.MQTT.Broker)
	cfg.MQTT.Username = strings.TrimSpace(raw.MQTT.Username)
	cfg.MQTT.Password = raw.MQTT.Password
	if v := strings.Trim(strings.TrimSpace(raw.MQTT.TopicPrefix), "/"); v != "" {
		cfg.MQTT.TopicPrefix = v
	}

	if v := strings.TrimSpace(raw.UI.Theme); v != "" {
		cfg.UI.Theme = v
	}

	if v := strings.TrimSpace(raw.StatePath); v != "" {
		cfg.StatePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	return cfg, nil
}

// RetryPolicy converts the retry section for the client.
func (c Config) RetryPolicy() jointspace.RetryPolicy {
	return jointspace.RetryPolicy{
		Attempts:      c.Retry.Attempts,
		BaseTimeout:   c.Retry.Timeout,
		BaseWakeDelay: c.Retry.WakeDelay,
	}
}

// AmbilightNodes converts the ambilight section for the client.
func (c Config) AmbilightNodes() jointspace.AmbilightNodes {
	return jointspace.AmbilightNodes{Lightness: c.Ambilight.LightnessNode, Saturation: c.Ambilight.SaturationNode}
}

// ResolvePath expands path, or the default config location when it is empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func parseDuration(field, value string, dest *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", field, value)
	}
	*dest = d
	return nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || strings.TrimSpace(name) == "" {
		return "philipstv"
	}
	return name
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
