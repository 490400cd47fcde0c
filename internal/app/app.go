package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/config"
	"github.com/macdems/philipstv/internal/discover"
	"github.com/macdems/philipstv/internal/jointspace"
	"github.com/macdems/philipstv/internal/logging"
	"github.com/macdems/philipstv/internal/mqtt"
	"github.com/macdems/philipstv/internal/store"
	"github.com/macdems/philipstv/internal/ui"
	"github.com/macdems/philipstv/internal/wol"
)

// Options configure a run of the remote. Discover, Key, Pair and Bridge
// select a mode, checked in that order; none of them starts the TUI.
type Options struct {
	ConfigPath string
	Discover   time.Duration // browse this long, print the TVs found and exit
	Key        string        // send one key and exit
	Pair       bool          // pair interactively on Stdin/Stdout
	Bridge     bool          // run the MQTT bridge without the TUI

	Stdin  io.Reader
	Stdout io.Writer
}

// env holds everything built from the config file.
type env struct {
	cfg    config.Config
	log    zerolog.Logger
	store  *store.Store
	client *jointspace.Client
	closer io.Closer
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("close state store")
	}
	_ = e.closer.Close()
}

// Run loads the config and runs the mode selected by opts until it finishes
// or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot modes log to stderr; the TUI owns the terminal.
	logPath := cfg.LogFile
	if opts.Discover > 0 || opts.Key != "" || opts.Pair {
		logPath = ""
	}
	e, err := setup(cfg, logPath)
	if err != nil {
		return err
	}
	defer e.Close()

	switch {
	case opts.Discover > 0:
		return runDiscover(ctx, e, opts.Discover, opts.Stdout)
	case opts.Key != "":
		return sendKey(ctx, e.client, opts.Key)
	case opts.Pair:
		return pairInteractive(ctx, e.client, e.store, opts.Stdin, opts.Stdout)
	case opts.Bridge:
		return runBridge(ctx, e, opts.ConfigPath)
	default:
		return runTUI(ctx, e, opts.ConfigPath)
	}
}

func setup(cfg config.Config, logPath string) (*env, error) {
	logger, closer, err := logging.New(logPath, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	st, err := store.Open(cfg.StatePath)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	client, err := newClient(cfg, st, &logger)
	if err != nil {
		_ = st.Close()
		_ = closer.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: logger, store: st, client: client, closer: closer}, nil
}

// newClient builds the JointSpace client. The config file names the TV when
// tv.host is set; otherwise the last TV selected in the UI is used. Stored
// credentials and hardware addresses fill what the config leaves out.
func newClient(cfg config.Config, st *store.Store, logger *zerolog.Logger) (*jointspace.Client, error) {
	endpoint, err := resolveEndpoint(cfg, st)
	if err != nil {
		return nil, err
	}

	instanceID, err := st.InstanceID()
	if err != nil {
		return nil, fmt.Errorf("instance id: %w", err)
	}

	var signer jointspace.GrantSigner
	if cfg.Pairing.SigningKey != "" {
		hmacSigner, err := jointspace.NewHMACSigner(cfg.Pairing.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("pairing.signing_key: %w", err)
		}
		signer = hmacSigner
	}

	return jointspace.NewClient(jointspace.Options{
		Endpoint:           endpoint,
		Retry:              cfg.RetryPolicy(),
		Port:               cfg.TV.Port,
		APIVersion:         cfg.TV.APIVersion,
		InsecureSkipVerify: cfg.TV.InsecureSkipVerify,
		Device: jointspace.DeviceInfo{
			Name:    cfg.Pairing.DeviceName,
			AppName: cfg.Pairing.AppName,
			AppID:   instanceID,
		},
		Signer: signer,
		Waker:  wol.Sender{Broadcast: cfg.WOL.Broadcast, Port: cfg.WOL.Port},
		Logger: logger,
	}), nil
}

func resolveEndpoint(cfg config.Config, st *store.Store) (jointspace.Endpoint, error) {
	saved, err := st.LoadEndpoint()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return jointspace.Endpoint{}, fmt.Errorf("load endpoint: %w", err)
	}

	host := strings.TrimSpace(cfg.TV.Host)
	if host == "" {
		return saved, nil
	}

	ep := jointspace.Endpoint{Host: host, HardwareAddress: cfg.TV.MAC}
	if ep.HardwareAddress == "" && saved.Host == host {
		ep.HardwareAddress = saved.HardwareAddress
	}
	cred, err := st.Credential(host)
	switch {
	case err == nil:
		ep.Credential = &cred
	case !errors.Is(err, store.ErrNotFound):
		return jointspace.Endpoint{}, fmt.Errorf("load credential: %w", err)
	}
	return ep, nil
}

func runTUI(ctx context.Context, e *env, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopWatch := watchConfig(ctx, e, configPath)
	defer stopWatch()

	var devices ui.DeviceSource
	if e.cfg.Discovery.Enabled {
		devices = startDiscovery(ctx, e)
	}

	if e.cfg.MQTT.Broker != "" {
		go func() {
			bridge, err := startBridge(e)
			if err != nil {
				e.log.Warn().Err(err).Msg("mqtt bridge disabled")
				return
			}
			<-ctx.Done()
			bridge.Stop()
		}()
	}

	theme := e.cfg.UI.Theme
	if saved, err := e.store.Theme(); err == nil && saved != "" {
		theme = saved
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		TV:        e.client,
		Store:     e.store,
		Devices:   devices,
		Nodes:     e.cfg.AmbilightNodes(),
		ThemeName: theme,
		LogPath:   e.cfg.LogFile,
		Logger:    &e.log,
	})
}

func runBridge(ctx context.Context, e *env, configPath string) error {
	if e.cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is not set")
	}
	stopWatch := watchConfig(ctx, e, configPath)
	defer stopWatch()

	bridge, err := startBridge(e)
	if err != nil {
		return err
	}
	defer bridge.Stop()

	e.log.Info().Str("broker", e.cfg.MQTT.Broker).Msg("bridge running")
	<-ctx.Done()
	return nil
}

func startBridge(e *env) (*mqtt.Bridge, error) {
	clientID := "philipstv"
	if id, err := e.store.InstanceID(); err == nil && len(id) >= 8 {
		clientID += "-" + id[:8]
	}
	return mqtt.NewBridge(e.client, mqtt.Config{
		Broker:      e.cfg.MQTT.Broker,
		Username:    e.cfg.MQTT.Username,
		Password:    e.cfg.MQTT.Password,
		TopicPrefix: e.cfg.MQTT.TopicPrefix,
		ClientID:    clientID,
		DeviceName:  e.cfg.Pairing.AppName,
	}, &e.log)
}

// startDiscovery runs the mDNS browser in the background and returns the
// registry it feeds.
func startDiscovery(ctx context.Context, e *env) *discover.Registry {
	registry := &discover.Registry{}
	log := logging.Component(e.log, "app")
	registry.Subscribe(func(ev discover.Event) {
		log.Info().Str("event", ev.Kind.String()).Str("address", ev.Device.Address).Str("name", ev.Device.Name).Msg("tv discovery")
	})

	browser := discover.NewBrowser(registry, discover.BrowserOptions{
		Interval: e.cfg.Discovery.Interval,
		Probe:    discover.SystemProbe(e.cfg.TV.Port, e.cfg.TV.APIVersion, e.cfg.TV.InsecureSkipVerify),
		Logger:   &e.log,
	})
	go browser.Run(ctx)
	return registry
}
