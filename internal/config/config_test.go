package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TV.Host != "" {
		t.Fatalf("TV.Host = %q, want empty", cfg.TV.Host)
	}
	if cfg.TV.Port != 1926 || cfg.TV.APIVersion != 6 || !cfg.TV.InsecureSkipVerify {
		t.Fatalf("TV = %+v, want port 1926, api 6, insecure", cfg.TV)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Timeout != 500*time.Millisecond || cfg.Retry.WakeDelay != 500*time.Millisecond {
		t.Fatalf("Retry = %+v", cfg.Retry)
	}
	if cfg.WOL.Broadcast != "255.255.255.255" || cfg.WOL.Port != 9 {
		t.Fatalf("WOL = %+v", cfg.WOL)
	}
	if !cfg.Discovery.Enabled || cfg.Discovery.Interval != defaultInterval {
		t.Fatalf("Discovery = %+v", cfg.Discovery)
	}

	wantState, err := expandPath(defaultStatePath)
	if err != nil {
		t.Fatalf("expandPath(defaultStatePath) returned error: %v", err)
	}
	if cfg.StatePath != wantState {
		t.Fatalf("StatePath = %q, want %q", cfg.StatePath, wantState)
	}
	if !strings.HasPrefix(cfg.LogFile, home) {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
state_path = "  ~/.philipstv/state.db  "
log_level = " DEBUG "

[tv]
host = "  192.168.1.20  "
mac = "aa-bb-cc-dd-ee-ff"
insecure_skip_verify = false

[retry]
attempts = 5
timeout = "1s"
wake_delay = "250ms"

[pairing]
device_name = " den "
signing_key = " a2V5 "

[discovery]
enabled = false
interval = "2m"

[mqtt]
broker = "tcp://mqtt.local:1883"
topic_prefix = "/home/tv/"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.TV.Host != "192.168.1.20" {
		t.Fatalf("TV.Host = %q, want %q", cfg.TV.Host, "192.168.1.20")
	}
	if cfg.TV.MAC != "aa-bb-cc-dd-ee-ff" {
		t.Fatalf("TV.MAC = %q", cfg.TV.MAC)
	}
	if cfg.TV.InsecureSkipVerify {
		t.Fatalf("TV.InsecureSkipVerify = true, want false")
	}
	policy := cfg.RetryPolicy()
	if policy.Attempts != 5 || policy.BaseTimeout != time.Second || policy.BaseWakeDelay != 250*time.Millisecond {
		t.Fatalf("RetryPolicy = %+v", policy)
	}
	if cfg.Pairing.DeviceName != "den" || cfg.Pairing.SigningKey != "a2V5" {
		t.Fatalf("Pairing = %+v", cfg.Pairing)
	}
	if cfg.Discovery.Enabled || cfg.Discovery.Interval != 2*time.Minute {
		t.Fatalf("Discovery = %+v", cfg.Discovery)
	}
	if cfg.MQTT.TopicPrefix != "home/tv" {
		t.Fatalf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "home/tv")
	}
	if cfg.StatePath != filepath.Join(home, ".philipstv/state.db") {
		t.Fatalf("StatePath = %q", cfg.StatePath)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
log_level = "   "

[wol]
broadcast = ""

[ui]
theme = " "
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.WOL.Broadcast != "255.255.255.255" {
		t.Fatalf("WOL.Broadcast = %q", cfg.WOL.Broadcast)
	}
	if cfg.UI.Theme != defaultTheme {
		t.Fatalf("UI.Theme = %q, want %q", cfg.UI.Theme, defaultTheme)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	nodes := cfg.AmbilightNodes()
	if nodes.Lightness != 2131230769 || nodes.Saturation != 2131230771 {
		t.Fatalf("AmbilightNodes = %+v", nodes)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`[tv`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestParse_RejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad mac":      "[tv]\nmac = \"nope\"",
		"bad timeout":  "[retry]\ntimeout = \"soon\"",
		"zero delay":   "[retry]\nwake_delay = \"0s\"",
		"bad interval": "[discovery]\ninterval = \"-1s\"",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: Parse returned nil error", name)
		}
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tv]\nhost = \"10.0.0.1\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := make(chan Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := Watch(ctx, path, nil, func(cfg Config) { got <- cfg })
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := os.WriteFile(path, []byte("[tv]\nhost = \"10.0.0.2\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-got:
		if cfg.TV.Host != "10.0.0.2" {
			t.Fatalf("reloaded host = %q, want 10.0.0.2", cfg.TV.Host)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload after write")
	}
}

func TestWatch_IgnoresOtherFilesAndBadRevisions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := make(chan Config, 4)
	w, err := Watch(context.Background(), path, nil, func(cfg Config) { got <- cfg })
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(path, []byte("[tv"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-got:
		t.Fatalf("unexpected reload: %+v", cfg.TV)
	case <-time.After(500 * time.Millisecond):
	}
}
