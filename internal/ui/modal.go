package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// pinEnteredMsg carries the PIN typed into the pair modal.
type pinEnteredMsg struct {
	pin string
}

// pairModal collects the PIN shown on the TV.
type pairModal struct {
	input   textinput.Model
	waiting bool // pairing request still in flight
	note    string
}

func newPairModal() *pairModal {
	in := textinput.New()
	in.Placeholder = "0000"
	in.CharLimit = 8
	in.Width = 10
	in.Focus()
	return &pairModal{input: in, waiting: true}
}

func (p *pairModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return p, nil, true
		case key.Matches(k, keys.Confirm):
			pin := strings.TrimSpace(p.input.Value())
			if p.waiting || pin == "" {
				return p, nil, false
			}
			p.waiting = true
			return p, func() tea.Msg { return pinEnteredMsg{pin: pin} }, false
		}
		if k.Type == tea.KeyRunes && !digitsOnly(k.Runes) {
			return p, nil, false
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

// ready clears the field once the TV is showing a PIN.
func (p *pairModal) ready() {
	p.waiting = false
	p.input.SetValue("")
	p.input.Focus()
}

func (p *pairModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Pair with TV"))
	b.WriteString("\n\n")
	if p.waiting {
		b.WriteString(styles.MutedText.Render("Waiting for the TV..."))
	} else {
		b.WriteString(styles.Text.Render("Enter the PIN shown on screen"))
	}
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	if p.note != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.WarningText.Render(p.note))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter submit  esc cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(36)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

func digitsOnly(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
