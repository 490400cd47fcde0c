package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/macdems/philipstv/internal/jointspace"
)

func (m Model) handleRemoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k, ok := remoteKeys[msg.String()]
	if !ok {
		return m, nil
	}
	cmd := m.sendKey(k)
	return m, cmd
}

func (m Model) handleAppsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.appRow > 0 {
			m.appRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.appRow < len(m.apps)-1 {
			m.appRow++
		}
	case key.Matches(msg, m.keys.Reload):
		cmd := m.loadApps()
		return m, cmd
	case key.Matches(msg, m.keys.Confirm):
		if m.appRow >= len(m.apps) {
			return m, nil
		}
		cmd := m.launch(m.apps[m.appRow])
		return m, cmd
	}
	return m, nil
}

func (m Model) handleAmbilightKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Reload):
		cmd = m.loadAmbilight()
	case key.Matches(msg, m.keys.AmbilightPower):
		cmd = m.toggleAmbilightPower()
	case key.Matches(msg, m.keys.FollowVideo):
		cmd = m.setStyle(jointspace.StyleFollowVideo)
	case key.Matches(msg, m.keys.FollowAudio):
		cmd = m.setStyle(jointspace.StyleFollowAudio)
	case key.Matches(msg, m.keys.Lounge):
		cmd = m.setStyle(jointspace.StyleLounge)
	case key.Matches(msg, m.keys.ColorRed):
		cmd = m.setColor(jointspace.Color{R: 255})
	case key.Matches(msg, m.keys.ColorGreen):
		cmd = m.setColor(jointspace.Color{G: 255})
	case key.Matches(msg, m.keys.ColorBlue):
		cmd = m.setColor(jointspace.Color{B: 255})
	case key.Matches(msg, m.keys.ColorWhite):
		cmd = m.setColor(jointspace.Color{R: 255, G: 255, B: 255})
	case key.Matches(msg, m.keys.LightnessDown):
		cmd = m.setLightness(m.ambi.levels.Lightness - 1)
	case key.Matches(msg, m.keys.LightnessUp):
		cmd = m.setLightness(m.ambi.levels.Lightness + 1)
	case key.Matches(msg, m.keys.SaturationDown):
		cmd = m.setSaturation(m.ambi.levels.Saturation - 1)
	case key.Matches(msg, m.keys.SaturationUp):
		cmd = m.setSaturation(m.ambi.levels.Saturation + 1)
	}
	return m, cmd
}

func (m Model) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.deviceRow > 0 {
			m.deviceRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.deviceRow < len(m.deviceList)-1 {
			m.deviceRow++
		}
	case key.Matches(msg, m.keys.Reload):
		if m.devices != nil {
			return m, fetchDevicesCmd(m.devices)
		}
	case key.Matches(msg, m.keys.Confirm):
		if m.deviceRow >= len(m.deviceList) {
			return m, nil
		}
		return m.selectDevice(m.deviceList[m.deviceRow])
	}
	return m, nil
}

func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.WarnOnly):
		m.logWarnOnly = !m.logWarnOnly
	case key.Matches(msg, m.keys.Reload):
		return m, readLogCmd(m.logPath)
	}
	return m, nil
}
