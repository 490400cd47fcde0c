package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the logo, link badge and the current TV.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	link := m.link
	if m.pending > 0 {
		link = linkBusy
	}

	parts := []string{
		bg.Render("philipstv", styles.Logo),
		styles.LinkStyle(link).Render(strings.ToUpper(link)),
	}
	if label := m.tvLabel(); label != "" {
		parts = append(parts, bg.Render(truncate(label, 40), styles.Text))
		if m.tv != nil {
			if mac := m.tv.Endpoint().HardwareAddress; mac != "" {
				parts = append(parts, bg.Render(mac, styles.FaintText))
			}
		}
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the view tabs and the help hint.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	bg := NewBgStyle(m.theme.Background)

	tabs := make([]string, 0, len(viewOrder)+1)
	for _, v := range viewOrder {
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Padding(0, 1).Render(v.String()))
			continue
		}
		tabs = append(tabs, bg.Render(" "+v.String()+" ", styles.MutedText))
	}
	tabs = append(tabs, bg.Render("tab switch  ? help  q quit", styles.FaintText))

	return bg.FillLine(bg.Join(tabs, " "), m.width)
}

// renderStatus renders the last command outcome.
func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	text := m.status
	if text == "" {
		text = "Ready"
	}
	style := styles.MutedText
	if m.statusErr {
		style = styles.DangerText
	}
	return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(style.Render(truncate(text, maxInt(m.width-2, 10))))
}
