package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/discover"
	"github.com/macdems/philipstv/internal/jointspace"
	"github.com/macdems/philipstv/internal/logtail"
)

// View represents the current active view.
type View int

const (
	ViewRemote View = iota
	ViewApps
	ViewAmbilight
	ViewDevices
	ViewLog
)

var viewOrder = []View{ViewRemote, ViewApps, ViewAmbilight, ViewDevices, ViewLog}

func (v View) String() string {
	switch v {
	case ViewApps:
		return "Apps"
	case ViewAmbilight:
		return "Ambilight"
	case ViewDevices:
		return "Devices"
	case ViewLog:
		return "Log"
	default:
		return "Remote"
	}
}

// TV is the device driven by the remote. *jointspace.Client satisfies it.
type TV interface {
	jointspace.Remote
	Endpoint() jointspace.Endpoint
	SetHost(host string)
	SetCredential(cred *jointspace.Credential)
}

// Store persists the selected TV, its credentials and the theme.
type Store interface {
	SaveEndpoint(ep jointspace.Endpoint) error
	Credential(host string) (jointspace.Credential, error)
	SaveCredential(host string, cred jointspace.Credential) error
	DeleteCredential(host string) error
	SaveTheme(name string) error
}

// DeviceSource lists TVs currently visible on the network.
type DeviceSource interface {
	Snapshot() []discover.Device
}

// Options configures the UI.
type Options struct {
	Context        context.Context
	TV             TV
	Store          Store        // nil disables persistence
	Devices        DeviceSource // nil leaves the devices view empty
	Nodes          jointspace.AmbilightNodes
	PollTick       time.Duration
	CommandTimeout time.Duration
	ThemeName      string
	LogPath        string // shown in the Log view
	Logger         *zerolog.Logger
}

const (
	defaultPollTick       = 2 * time.Second
	defaultCommandTimeout = 30 * time.Second
	logTailLines          = 500

	lightnessMin  = 0
	lightnessMax  = 10
	saturationMin = -5
	saturationMax = 5
)

// ambilightState mirrors what the TV last reported.
type ambilightState struct {
	loaded   bool
	power    bool
	style    string
	levels   jointspace.AmbilightLevels
	topology *jointspace.AmbilightTopology
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	tv       TV
	store    Store
	devices  DeviceSource
	nodes    jointspace.AmbilightNodes
	pollTick time.Duration
	timeout  time.Duration
	log      zerolog.Logger
	keys     keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Link state
	link      string
	status    string
	statusErr bool
	pending   int

	// Apps
	apps       []jointspace.Application
	appsLoaded bool
	appRow     int

	ambi ambilightState

	// Devices
	deviceList []discover.Device
	deviceRow  int

	pairSession *jointspace.PairingSession

	// Log
	logPath     string
	logLines    []logtail.Line
	logErr      error
	logWarnOnly bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultPollTick
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}

	nodes := opts.Nodes
	if nodes.Lightness == 0 && nodes.Saturation == 0 {
		nodes = jointspace.DefaultAmbilightNodes()
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "ui").Logger()
	}

	m := Model{
		ctx:         ctx,
		tv:          opts.TV,
		store:       opts.Store,
		devices:     opts.Devices,
		nodes:       nodes,
		pollTick:    pollTick,
		timeout:     timeout,
		log:         log,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewRemote,
		link:        linkIdle,
		logPath:     opts.LogPath,
	}
	if m.host() == "" {
		m.link = linkNoTV
		m.currentView = ViewDevices
		m.status = "No TV configured, pick one below"
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.devices != nil {
		cmds = append(cmds, fetchDevicesCmd(m.devices))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.devices != nil {
			cmds = append(cmds, fetchDevicesCmd(m.devices))
		}
		if m.currentView == ViewLog {
			cmds = append(cmds, readLogCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case logMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		return m, nil

	case devicesMsg:
		m.deviceList = msg
		m.deviceRow = clampRow(m.deviceRow, len(m.deviceList))
		return m, nil

	case actionMsg:
		m.finish(msg.label, msg.err)
		if msg.err == nil && msg.apply != nil {
			msg.apply(&m)
		}
		return m, nil

	case appsMsg:
		m.finish("Apps loaded", msg.err)
		if msg.err == nil {
			m.apps = msg.apps
			m.appsLoaded = true
			m.appRow = clampRow(m.appRow, len(m.apps))
		}
		return m, nil

	case ambilightMsg:
		m.finish("Ambilight loaded", msg.err)
		if msg.err == nil {
			topology := m.ambi.topology
			m.ambi = msg.state
			m.ambi.topology = topology
			m.ambi.loaded = true
		}
		return m, nil

	case colorMsg:
		m.finish("Ambilight colour set", msg.err)
		if msg.topology != nil {
			m.ambi.topology = msg.topology
		}
		if msg.err == nil {
			m.ambi.style = "manual"
		}
		return m, nil

	case hardwareMsg:
		return m.handleHardware(msg)

	case pairRequestedMsg:
		return m.handlePairRequested(msg)

	case pinEnteredMsg:
		if m.pairSession == nil {
			return m, nil
		}
		session := m.pairSession
		m.pairSession = nil
		cmd := m.grantPairing(session, msg.pin)
		return m, cmd

	case pairGrantedMsg:
		return m.handlePairGranted(msg)
	}

	if m.modal != nil {
		modal, cmd, _ := m.modal.Update(msg, m.keys)
		m.modal = modal
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != nil {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
			m.pairSession = nil
			m.setStatus("Pairing cancelled", false)
			return m, nil
		}
		m.modal = modal
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.store != nil {
			if err := m.store.SaveTheme(m.theme.Name); err != nil {
				m.log.Warn().Err(err).Msg("save theme failed")
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(1)
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(-1)
	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewRemote
		return m, nil
	case key.Matches(msg, m.keys.Pair):
		return m.startPairing()
	}

	switch m.currentView {
	case ViewRemote:
		return m.handleRemoteKey(msg)
	case ViewApps:
		return m.handleAppsKey(msg)
	case ViewAmbilight:
		return m.handleAmbilightKey(msg)
	case ViewDevices:
		return m.handleDevicesKey(msg)
	case ViewLog:
		return m.handleLogKey(msg)
	}
	return m, nil
}

// switchView moves through viewOrder and loads data the new view needs.
func (m Model) switchView(step int) (tea.Model, tea.Cmd) {
	idx := 0
	for i, v := range viewOrder {
		if v == m.currentView {
			idx = i
			break
		}
	}
	idx = (idx + step + len(viewOrder)) % len(viewOrder)
	m.currentView = viewOrder[idx]
	cmd := m.enterView()
	return m, cmd
}

func (m *Model) enterView() tea.Cmd {
	if m.currentView == ViewLog {
		return readLogCmd(m.logPath)
	}
	if m.host() == "" {
		return nil
	}
	switch m.currentView {
	case ViewApps:
		if !m.appsLoaded {
			return m.loadApps()
		}
	case ViewAmbilight:
		if !m.ambi.loaded {
			return m.loadAmbilight()
		}
	}
	return nil
}

// start records a pending device call and wraps fn in a command bounded by
// the command timeout.
func (m *Model) start(label string, fn func(ctx context.Context) tea.Msg) tea.Cmd {
	m.pending++
	m.setStatus(label+"...", false)
	parent, timeout := m.ctx, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		return fn(ctx)
	}
}

// finish closes a pending call and reflects its outcome in the status line
// and link badge.
func (m *Model) finish(label string, err error) {
	m.settle()
	m.link = linkState(err)
	if err != nil {
		m.log.Warn().Err(err).Str("action", label).Msg("command failed")
		m.setStatus(describeError(label, err), true)
		return
	}
	m.setStatus(label, false)
}

func (m *Model) settle() {
	if m.pending > 0 {
		m.pending--
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) host() string {
	if m.tv == nil {
		return ""
	}
	return strings.TrimSpace(m.tv.Endpoint().Host)
}

// tvLabel names the current TV using discovery results when available.
func (m Model) tvLabel() string {
	host := m.host()
	if host == "" {
		return ""
	}
	for _, dev := range m.deviceList {
		if dev.Address == host && strings.TrimSpace(dev.Name) != "" {
			return dev.Name
		}
	}
	return host
}

// linkState maps a command outcome to the header badge.
func linkState(err error) string {
	switch {
	case err == nil:
		return linkReady
	case errors.Is(err, jointspace.ErrNoEndpoint):
		return linkNoTV
	case errors.Is(err, jointspace.ErrUnreachable):
		return linkOffline
	case errors.Is(err, jointspace.ErrUnauthorized):
		return linkUnpaired
	default:
		// The TV answered, just not the way we hoped.
		return linkReady
	}
}

func describeError(label string, err error) string {
	switch {
	case errors.Is(err, jointspace.ErrNoEndpoint):
		return label + ": no TV selected"
	case errors.Is(err, jointspace.ErrUnreachable):
		return label + ": TV unreachable"
	case errors.Is(err, jointspace.ErrUnauthorized):
		return label + ": not paired, press P"
	case errors.Is(err, jointspace.ErrInvalidPIN):
		return label + ": wrong PIN"
	default:
		return label + ": " + err.Error()
	}
}

func clampRow(row, n int) int {
	if n == 0 || row < 0 {
		return 0
	}
	if row >= n {
		return n - 1
	}
	return row
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
