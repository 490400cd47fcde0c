package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/logtail"
)

// renderMain renders header, tabs, the active view and the status line.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	body := lipgloss.NewStyle().
		Width(m.width).
		Height(maxInt(m.contentHeight(), 1)).
		Padding(1, 2).
		Render(m.renderContent())
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// contentHeight is the space left after header, tabs and status.
func (m Model) contentHeight() int {
	return m.height - 3
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewApps:
		return m.renderApps()
	case ViewAmbilight:
		return m.renderAmbilight()
	case ViewDevices:
		return m.renderDevices()
	case ViewLog:
		return m.renderLog()
	default:
		return m.renderRemote()
	}
}

func (m Model) renderRemote() string {
	styles := m.theme.Styles()
	btn := styles.Button

	up := btn.Render("▲")
	down := btn.Render("▼")
	left := btn.Render("◀")
	right := btn.Render("▶")
	ok := btn.BorderForeground(lipgloss.Color(m.theme.Accent)).Render("OK")

	gap := lipgloss.NewStyle().Width(lipgloss.Width(left)).Render("")
	pad := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Top, gap, up, gap),
		lipgloss.JoinHorizontal(lipgloss.Center, left, ok, right),
		lipgloss.JoinHorizontal(lipgloss.Top, gap, down, gap),
	)

	legend := []helpItem{
		{"arrows", "Navigate"},
		{"enter", "OK"},
		{"backspace", "Back"},
		{"H", "Home"},
		{"+ / -", "Volume"},
		{"m", "Mute"},
		{"[ / ]", "Channel down/up"},
		{"0-9", "Digits"},
		{"space", "Play/pause"},
		{"s", "Source"},
		{"t", "Watch TV"},
		{"i / o", "Info / options"},
		{"p", "Standby"},
	}
	var lines strings.Builder
	for _, item := range legend {
		lines.WriteString(styles.WarningText.Render(padRight(item.key, 12)))
		lines.WriteString(styles.Text.Render(item.desc))
		lines.WriteString("\n")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Panel.Render(pad),
		lipgloss.NewStyle().PaddingLeft(4).Render(strings.TrimRight(lines.String(), "\n")),
	)
}

func (m Model) renderApps() string {
	styles := m.theme.Styles()
	if m.host() == "" {
		return styles.MutedText.Render("Select a TV in the Devices view first.")
	}
	if !m.appsLoaded {
		return styles.MutedText.Render("Apps not loaded yet, press R to load.")
	}
	if len(m.apps) == 0 {
		return styles.MutedText.Render("The TV reported no applications.")
	}

	rows := maxInt(m.contentHeight()-3, 1)
	start, end := listWindow(m.appRow, len(m.apps), rows)
	width := maxInt(m.width-8, 20)

	var b strings.Builder
	for i := start; i < end; i++ {
		app := m.apps[i]
		line := padRight(truncate(app.Label, width-14), width-12) + padRight(app.Type, 10)
		if i == m.appRow {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("%d/%d  enter launch  R reload", m.appRow+1, len(m.apps))))
	return b.String()
}

func (m Model) renderAmbilight() string {
	styles := m.theme.Styles()
	if m.host() == "" {
		return styles.MutedText.Render("Select a TV in the Devices view first.")
	}
	if !m.ambi.loaded {
		return styles.MutedText.Render("Ambilight state not loaded yet, press R to load.")
	}

	power := styles.DangerText.Render("OFF")
	if m.ambi.power {
		power = styles.SuccessText.Render("ON")
	}
	style := m.ambi.style
	if style == "" {
		style = "unknown"
	}

	label := func(s string) string { return styles.MutedText.Render(padRight(s, 12)) }
	var b strings.Builder
	b.WriteString(label("Power") + power + "\n")
	b.WriteString(label("Style") + styles.AccentText.Render(style) + "\n")
	b.WriteString(label("Lightness") + styles.Text.Render(levelBar(m.ambi.levels.Lightness, lightnessMin, lightnessMax)) +
		styles.FaintText.Render(fmt.Sprintf(" %d", m.ambi.levels.Lightness)) + "\n")
	b.WriteString(label("Saturation") + styles.Text.Render(levelBar(m.ambi.levels.Saturation, saturationMin, saturationMax)) +
		styles.FaintText.Render(fmt.Sprintf(" %d", m.ambi.levels.Saturation)) + "\n\n")

	b.WriteString(styles.FaintText.Render("o power  v/a/l video/audio/lounge  r/g/b/w colour"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("< > lightness  { } saturation  R reload"))
	return b.String()
}

func (m Model) renderDevices() string {
	styles := m.theme.Styles()
	if m.devices == nil {
		return styles.MutedText.Render("Discovery is disabled. Set tv.host in the config file.")
	}
	if len(m.deviceList) == 0 {
		return styles.MutedText.Render("Looking for TVs on the network...")
	}

	current := m.host()
	rows := maxInt(m.contentHeight()-3, 1)
	start, end := listWindow(m.deviceRow, len(m.deviceList), rows)

	var b strings.Builder
	for i := start; i < end; i++ {
		dev := m.deviceList[i]
		marker := "  "
		if dev.Address == current {
			marker = "● "
		}
		line := marker + padRight(truncate(dev.Label(), 48), 50) + dev.LastSeen.Format("15:04:05")
		if i == m.deviceRow {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter select  P pair  R refresh"))
	return b.String()
}

func (m Model) renderLog() string {
	styles := m.theme.Styles()
	if m.logPath == "" {
		return styles.MutedText.Render("Logging to stderr, no log file to show.")
	}
	if m.logErr != nil {
		return styles.DangerText.Render(m.logErr.Error())
	}

	lines := m.logLines
	filter := "all"
	if m.logWarnOnly {
		lines = logtail.AtLeast(lines, zerolog.WarnLevel)
		filter = "warnings"
	}
	if len(lines) == 0 {
		return styles.MutedText.Render("Nothing logged yet.")
	}

	rows := maxInt(m.contentHeight()-3, 1)
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	width := maxInt(m.width-4, 20)

	var b strings.Builder
	for _, l := range lines {
		text := truncate(l.Text, width)
		switch {
		case l.Level >= zerolog.ErrorLevel && l.Level != zerolog.NoLevel:
			b.WriteString(styles.DangerText.Render(text))
		case l.Level == zerolog.WarnLevel:
			b.WriteString(styles.WarningText.Render(text))
		case l.Level <= zerolog.DebugLevel:
			b.WriteString(styles.FaintText.Render(text))
		default:
			b.WriteString(styles.Text.Render(text))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("%s  showing %s  e warnings only  R reload", m.logPath, filter)))
	return b.String()
}
