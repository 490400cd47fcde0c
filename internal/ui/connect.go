package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/macdems/philipstv/internal/discover"
	"github.com/macdems/philipstv/internal/jointspace"
)

// selectDevice retargets the client at dev, restoring a stored credential
// for its address, and then looks up its hardware address. An unauthorized
// lookup starts pairing.
func (m Model) selectDevice(dev discover.Device) (tea.Model, tea.Cmd) {
	host := dev.Address
	m.tv.SetHost(host)
	if m.store != nil {
		cred, err := m.store.Credential(host)
		if err == nil {
			m.tv.SetCredential(&cred)
		}
		if err := m.store.SaveEndpoint(m.tv.Endpoint()); err != nil {
			m.log.Warn().Err(err).Msg("save endpoint failed")
		}
	}
	m.log.Info().Str("host", host).Str("name", dev.Name).Msg("tv selected")

	m.link = linkIdle
	m.apps = nil
	m.appsLoaded = false
	m.ambi = ambilightState{}
	m.currentView = ViewRemote
	cmd := m.lookupHardware()
	return m, cmd
}

func (m Model) handleHardware(msg hardwareMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, jointspace.ErrUnauthorized) {
		m.settle()
		m.link = linkUnpaired
		if msg.host == m.host() {
			m.forgetCredential(msg.host)
		}
		return m.startPairing()
	}
	if msg.err != nil {
		m.finish("Connecting to "+msg.host, msg.err)
		return m, nil
	}
	if msg.mac == "" {
		m.finish("Connected, hardware address unknown", nil)
		return m, nil
	}
	m.finish("Connected to "+msg.host, nil)
	if m.store != nil && msg.host == m.host() {
		if err := m.store.SaveEndpoint(m.tv.Endpoint()); err != nil {
			m.log.Warn().Err(err).Msg("save endpoint failed")
		}
	}
	return m, nil
}

// forgetCredential drops a credential the TV at host has rejected.
func (m *Model) forgetCredential(host string) {
	if m.tv.Endpoint().Credential == nil {
		return
	}
	m.tv.SetCredential(nil)
	if m.store == nil {
		return
	}
	if err := m.store.DeleteCredential(host); err != nil {
		m.log.Warn().Err(err).Str("host", host).Msg("delete credential failed")
		return
	}
	m.log.Info().Str("host", host).Msg("stale credential removed")
}

func (m Model) startPairing() (tea.Model, tea.Cmd) {
	if m.host() == "" {
		m.setStatus("Select a TV before pairing", true)
		return m, nil
	}
	m.modal = newPairModal()
	m.pairSession = nil
	cmd := m.requestPairing()
	return m, tea.Batch(textinput.Blink, cmd)
}

func (m Model) handlePairRequested(msg pairRequestedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.modal = nil
		m.finish("Pairing", msg.err)
		return m, nil
	}
	m.finish("PIN shown on TV", nil)
	pm, ok := m.modal.(*pairModal)
	if !ok {
		// Cancelled while the request was in flight.
		return m, nil
	}
	m.pairSession = msg.session
	pm.ready()
	return m, nil
}

func (m Model) handlePairGranted(msg pairGrantedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, jointspace.ErrInvalidPIN) {
		m.settle()
		pm, ok := m.modal.(*pairModal)
		if !ok {
			m.setStatus("Pairing: wrong PIN", true)
			return m, nil
		}
		pm.waiting = true
		pm.note = "Wrong PIN, enter the new one"
		cmd := m.requestPairing()
		return m, cmd
	}
	m.modal = nil
	m.finish("Paired", msg.err)
	if msg.err != nil {
		return m, nil
	}

	ep := m.tv.Endpoint()
	if m.store != nil && ep.Credential != nil {
		if err := m.store.SaveCredential(ep.Host, *ep.Credential); err != nil {
			m.log.Warn().Err(err).Msg("save credential failed")
		}
	}
	if ep.HardwareAddress == "" {
		cmd := m.lookupHardware()
		return m, cmd
	}
	return m, nil
}
