package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/macdems/philipstv/internal/discover"
	"github.com/macdems/philipstv/internal/jointspace"
	"github.com/macdems/philipstv/internal/logtail"
)

// Messages

type tickMsg time.Time

type devicesMsg []discover.Device

// actionMsg reports a fire-and-forget device call. apply runs on success.
type actionMsg struct {
	label string
	err   error
	apply func(*Model)
}

type appsMsg struct {
	apps []jointspace.Application
	err  error
}

type ambilightMsg struct {
	state ambilightState
	err   error
}

type colorMsg struct {
	topology *jointspace.AmbilightTopology
	err      error
}

type hardwareMsg struct {
	host string
	mac  string
	err  error
}

type pairRequestedMsg struct {
	session *jointspace.PairingSession
	err     error
}

type pairGrantedMsg struct {
	err error
}

type logMsg struct {
	lines []logtail.Line
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchDevicesCmd(source DeviceSource) tea.Cmd {
	return func() tea.Msg {
		return devicesMsg(source.Snapshot())
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logTailLines)
		return logMsg{lines: lines, err: err}
	}
}

func (m *Model) sendKey(k jointspace.Key) tea.Cmd {
	tv := m.tv
	return m.start(string(k), func(ctx context.Context) tea.Msg {
		return actionMsg{label: string(k), err: tv.SendKey(ctx, k)}
	})
}

func (m *Model) loadApps() tea.Cmd {
	tv := m.tv
	return m.start("Loading apps", func(ctx context.Context) tea.Msg {
		apps, err := tv.ListApplications(ctx)
		return appsMsg{apps: apps, err: err}
	})
}

func (m *Model) loadAmbilight() tea.Cmd {
	tv, nodes := m.tv, m.nodes
	return m.start("Loading ambilight", func(ctx context.Context) tea.Msg {
		var state ambilightState
		power, err := tv.AmbilightPower(ctx)
		if err != nil {
			return ambilightMsg{err: err}
		}
		state.power = power
		cfg, err := tv.AmbilightConfiguration(ctx)
		if err != nil {
			return ambilightMsg{err: err}
		}
		state.style = cfg.StyleName
		levels, err := tv.AmbilightLevels(ctx, nodes)
		if err != nil {
			return ambilightMsg{err: err}
		}
		state.levels = levels
		return ambilightMsg{state: state}
	})
}

func (m *Model) setStyle(style string) tea.Cmd {
	tv := m.tv
	return m.start("Ambilight style", func(ctx context.Context) tea.Msg {
		err := tv.SetAmbilightConfiguration(ctx, jointspace.AmbilightConfiguration{StyleName: style})
		return actionMsg{
			label: "Ambilight style " + style,
			err:   err,
			apply: func(m *Model) {
				m.ambi.style = style
				m.ambi.power = true
			},
		}
	})
}

// setColor paints every LED, reading the topology once per TV.
func (m *Model) setColor(color jointspace.Color) tea.Cmd {
	tv, cached := m.tv, m.ambi.topology
	return m.start("Ambilight colour", func(ctx context.Context) tea.Msg {
		topology := cached
		if topology == nil {
			topo, err := tv.AmbilightTopology(ctx)
			if err != nil {
				return colorMsg{err: err}
			}
			topology = &topo
		}
		return colorMsg{topology: topology, err: tv.SetAmbilightColor(ctx, *topology, color)}
	})
}

func (m *Model) setLightness(value int) tea.Cmd {
	value = clamp(value, lightnessMin, lightnessMax)
	tv, node := m.tv, m.nodes.Lightness
	return m.start("Lightness", func(ctx context.Context) tea.Msg {
		return actionMsg{
			label: "Lightness set",
			err:   tv.SetAmbilightLevel(ctx, node, value),
			apply: func(m *Model) { m.ambi.levels.Lightness = value },
		}
	})
}

func (m *Model) setSaturation(value int) tea.Cmd {
	value = clamp(value, saturationMin, saturationMax)
	tv, node := m.tv, m.nodes.Saturation
	return m.start("Saturation", func(ctx context.Context) tea.Msg {
		return actionMsg{
			label: "Saturation set",
			err:   tv.SetAmbilightLevel(ctx, node, value),
			apply: func(m *Model) { m.ambi.levels.Saturation = value },
		}
	})
}

func (m *Model) launch(app jointspace.Application) tea.Cmd {
	tv := m.tv
	return m.start("Launching "+app.Label, func(ctx context.Context) tea.Msg {
		c := app.Intent.Component
		return actionMsg{
			label: "Launched " + app.Label,
			err:   tv.LaunchApplication(ctx, c.PackageName, c.ClassName, app.Intent.Action),
		}
	})
}

func (m *Model) toggleAmbilightPower() tea.Cmd {
	tv, on := m.tv, !m.ambi.power
	return m.start("Ambilight power", func(ctx context.Context) tea.Msg {
		return actionMsg{
			label: "Ambilight " + onOff(on),
			err:   tv.SetAmbilightPower(ctx, on),
			apply: func(m *Model) { m.ambi.power = on },
		}
	})
}

// lookupHardware asks the TV for the MAC of the interface matching its host.
func (m *Model) lookupHardware() tea.Cmd {
	tv, host := m.tv, m.host()
	return m.start("Connecting to "+host, func(ctx context.Context) tea.Msg {
		mac, err := tv.DiscoverHardwareAddress(ctx)
		return hardwareMsg{host: host, mac: mac, err: err}
	})
}

func (m *Model) requestPairing() tea.Cmd {
	tv := m.tv
	return m.start("Requesting pairing", func(ctx context.Context) tea.Msg {
		session, err := tv.RequestPairing(ctx)
		return pairRequestedMsg{session: session, err: err}
	})
}

func (m *Model) grantPairing(session *jointspace.PairingSession, pin string) tea.Cmd {
	tv := m.tv
	return m.start("Pairing", func(ctx context.Context) tea.Msg {
		return pairGrantedMsg{err: tv.GrantPairing(ctx, session, pin)}
	})
}
