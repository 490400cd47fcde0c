// Package mqtt exposes the TV to home-automation systems over MQTT, with
// Home Assistant discovery.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/jointspace"
)

const (
	publishTimeout = 5 * time.Second
	commandTimeout = 30 * time.Second
)

var (
	connectTimeout       = 10 * time.Second
	connectRetryInterval = 5 * time.Second
)

// Config holds MQTT bridge configuration.
type Config struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	ClientID    string // also the Home Assistant node id
	DeviceName  string
}

// Controller is the part of jointspace.Remote the bridge drives.
type Controller interface {
	SendKey(ctx context.Context, key jointspace.Key) error
	LaunchApplication(ctx context.Context, packageName, className, action string) error
	SetAmbilightPower(ctx context.Context, on bool) error
	SetAmbilightConfiguration(ctx context.Context, cfg jointspace.AmbilightConfiguration) error
	AmbilightTopology(ctx context.Context) (jointspace.AmbilightTopology, error)
	SetAmbilightColor(ctx context.Context, topology jointspace.AmbilightTopology, color jointspace.Color) error
}

// messenger is the slice of the paho client the bridge uses.
type messenger interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler func(payload []byte)) error
}

// State is published retained to <prefix>/state after every command.
type State struct {
	Available   bool   `json:"available"`
	LastCommand string `json:"last_command,omitempty"`
	Error       string `json:"error,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type appCommand struct {
	Package string `json:"package"`
	Class   string `json:"class"`
	Action  string `json:"action"`
}

type ambilightCommand struct {
	Power string            `json:"power,omitempty"`
	Style string            `json:"style,omitempty"`
	Color *jointspace.Color `json:"color,omitempty"`
}

// Bridge forwards MQTT commands to the TV and publishes the outcome.
type Bridge struct {
	remote Controller
	cfg    Config
	log    zerolog.Logger
	msgr   messenger
	client pahomqtt.Client

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // one command at a time
}

// NewBridge connects to the broker and subscribes to the command topics.
func NewBridge(remote Controller, cfg Config, logger *zerolog.Logger) (*Bridge, error) {
	b := newBridge(remote, cfg, logger)

	opts := pahomqtt.NewClientOptions().
		AddBroker(b.cfg.Broker).
		SetClientID(b.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetConnectTimeout(connectTimeout).
		// Handlers publish and wait on tokens, which deadlocks under ordered delivery.
		SetOrderMatters(false).
		SetWill(b.topic("bridge/state"), "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			b.log.Info().Str("broker", b.cfg.Broker).Msg("mqtt connected")
			if err := b.announce(); err != nil {
				b.log.Warn().Err(err).Msg("mqtt announce failed")
			}
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			b.log.Warn().Err(err).Msg("mqtt connection lost")
		})
	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	b.client = client
	b.msgr = &pahoMessenger{client: client}

	// With connect retry the token stays open until Disconnect cancels it.
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		b.abort()
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		b.abort()
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return b, nil
}

// abort tears down a bridge that never connected.
func (b *Bridge) abort() {
	b.cancel()
	b.client.Disconnect(0)
}

func newBridge(remote Controller, cfg Config, logger *zerolog.Logger) *Bridge {
	cfg.TopicPrefix = strings.Trim(strings.TrimSpace(cfg.TopicPrefix), "/")
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "philipstv"
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		cfg.ClientID = "philipstv"
	}
	if strings.TrimSpace(cfg.DeviceName) == "" {
		cfg.DeviceName = "Philips TV"
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "mqtt").Logger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{remote: remote, cfg: cfg, log: log, ctx: ctx, cancel: cancel}
}

// Stop publishes the offline state and disconnects.
func (b *Bridge) Stop() {
	b.cancel()
	if b.msgr != nil {
		b.publish("bridge/state", []byte("offline"))
	}
	if b.client != nil {
		b.client.Disconnect(1000)
	}
	b.log.Info().Msg("mqtt bridge stopped")
}

// announce marks the bridge online, publishes discovery and subscribes. It
// runs on every (re)connect.
func (b *Bridge) announce() error {
	b.publish("bridge/state", []byte("online"))
	for _, msg := range buildDiscovery(b.cfg.TopicPrefix, b.cfg.ClientID, b.cfg.DeviceName) {
		if err := b.msgr.Publish(msg.Topic, msg.Payload, true); err != nil {
			return err
		}
	}
	var errs []error
	for _, suffix := range []string{"key/set", "app/set", "ambilight/set"} {
		suffix := suffix
		if err := b.msgr.Subscribe(b.topic(suffix), func(payload []byte) { b.dispatch(suffix, payload) }); err != nil {
			errs = append(errs, fmt.Errorf("subscribe %s: %w", suffix, err))
		}
	}
	return errors.Join(errs...)
}

// dispatch runs one command and publishes the resulting state.
func (b *Bridge) dispatch(suffix string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	var (
		command string
		err     error
	)
	switch suffix {
	case "key/set":
		command, err = b.handleKey(ctx, payload)
	case "app/set":
		command, err = b.handleApp(ctx, payload)
	case "ambilight/set":
		command, err = b.handleAmbilight(ctx, payload)
	default:
		b.log.Warn().Str("topic", suffix).Msg("unhandled topic")
		return
	}

	state := State{
		Available:   available(err),
		LastCommand: command,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		state.Error = err.Error()
		b.log.Warn().Err(err).Str("command", command).Msg("mqtt command failed")
	} else {
		b.log.Debug().Str("command", command).Msg("mqtt command done")
	}
	b.publish("state", mustJSON(state))
}

func (b *Bridge) handleKey(ctx context.Context, payload []byte) (string, error) {
	name := strings.TrimSpace(string(payload))
	if strings.HasPrefix(name, "{") {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return "key", fmt.Errorf("invalid key payload: %w", err)
		}
		name = strings.TrimSpace(body.Key)
	}
	if name == "" {
		return "key", fmt.Errorf("key payload is empty")
	}
	key := jointspace.Key(name)
	if !key.Known() {
		b.log.Warn().Str("key", name).Msg("sending undocumented key")
	}
	return "key " + name, b.remote.SendKey(ctx, key)
}

func (b *Bridge) handleApp(ctx context.Context, payload []byte) (string, error) {
	var cmd appCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return "app", fmt.Errorf("invalid app payload: %w", err)
	}
	return "app " + cmd.Package, b.remote.LaunchApplication(ctx, cmd.Package, cmd.Class, cmd.Action)
}

func (b *Bridge) handleAmbilight(ctx context.Context, payload []byte) (string, error) {
	var cmd ambilightCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return "ambilight", fmt.Errorf("invalid ambilight payload: %w", err)
	}
	if power := strings.ToUpper(strings.TrimSpace(cmd.Power)); power != "" {
		if power != "ON" && power != "OFF" {
			return "ambilight power", fmt.Errorf("power must be ON or OFF, got %q", cmd.Power)
		}
		if err := b.remote.SetAmbilightPower(ctx, power == "ON"); err != nil {
			return "ambilight power", err
		}
	}
	if style := strings.TrimSpace(cmd.Style); style != "" {
		if err := b.remote.SetAmbilightConfiguration(ctx, jointspace.AmbilightConfiguration{StyleName: style}); err != nil {
			return "ambilight style", err
		}
	}
	if cmd.Color != nil {
		topo, err := b.remote.AmbilightTopology(ctx)
		if err != nil {
			return "ambilight color", err
		}
		if err := b.remote.SetAmbilightColor(ctx, topo, *cmd.Color); err != nil {
			return "ambilight color", err
		}
	}
	return "ambilight", nil
}

func (b *Bridge) topic(suffix string) string {
	return b.cfg.TopicPrefix + "/" + suffix
}

func (b *Bridge) publish(suffix string, payload []byte) {
	if err := b.msgr.Publish(b.topic(suffix), payload, true); err != nil {
		b.log.Warn().Err(err).Str("topic", b.topic(suffix)).Msg("mqtt publish failed")
	}
}

// available reports whether err still leaves the TV reachable.
func available(err error) bool {
	return !errors.Is(err, jointspace.ErrUnreachable) && !errors.Is(err, jointspace.ErrNoEndpoint)
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

// pahoMessenger adapts a paho client to messenger.
type pahoMessenger struct {
	client pahomqtt.Client
}

func (m *pahoMessenger) Publish(topic string, payload []byte, retained bool) error {
	token := m.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	return token.Error()
}

func (m *pahoMessenger) Subscribe(topic string, handler func(payload []byte)) error {
	token := m.client.Subscribe(topic, 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	return token.Error()
}
