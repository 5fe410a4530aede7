// Package tui renders the network snapshot for terminals: plain text for
// one-shot output and a live bubbletea view.
package tui

import (
	"fmt"
	"strings"
	"time"

	"networkinfo/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Source is what the live view reads from.
type Source interface {
	Snapshot() *models.Snapshot
	Updates() <-chan *models.Snapshot
	RefreshNow() error
	Interval() time.Duration
	Stability() (float64, bool)
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("57")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("160")).Padding(0, 1)
)

type snapshotMsg struct{ snap *models.Snapshot }

type refreshErrMsg struct{ err error }

type watchModel struct {
	src         Source
	expectedDNS string
	snapshot    *models.Snapshot
	refreshing  bool
	err         error
	width       int
}

func newWatchModel(src Source, expectedDNS string) watchModel {
	return watchModel{src: src, expectedDNS: expectedDNS, snapshot: src.Snapshot()}
}

func (m watchModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m watchModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.src.Updates()
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg{s}
	}
}

func (m watchModel) refresh() tea.Cmd {
	return func() tea.Msg {
		if err := m.src.RefreshNow(); err != nil {
			return refreshErrMsg{err}
		}
		return nil
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.refreshing = true
			m.err = nil
			return m, m.refresh()
		}
	case snapshotMsg:
		m.snapshot = msg.snap
		if m.snapshot != nil && !m.snapshot.CompletedAt.IsZero() {
			m.refreshing = false
		}
		return m, m.waitForUpdate()
	case refreshErrMsg:
		m.refreshing = false
		m.err = msg.err
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	title := "NetworkInfo"
	if m.refreshing {
		title += " (refreshing)"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	if m.snapshot == nil || m.snapshot.CycleID == "" {
		b.WriteString(mutedStyle.Render("Waiting for the first refresh...") + "\n")
	} else {
		for _, l := range Lines(m.snapshot, m.expectedDNS) {
			b.WriteString(styleLine(l) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + mutedStyle.Render(m.status()) + "\n")
	b.WriteString(mutedStyle.Render("  r: refresh • q: quit") + "\n")
	return b.String()
}

func (m watchModel) status() string {
	parts := []string{fmt.Sprintf("  every %s", m.src.Interval())}
	if score, ok := m.src.Stability(); ok {
		parts = append(parts, fmt.Sprintf("stability %.2f", score))
	}
	if m.snapshot != nil && !m.snapshot.CompletedAt.IsZero() {
		parts = append(parts, fmt.Sprintf("updated %s (%s)", m.snapshot.CompletedAt.Format(time.TimeOnly), m.snapshot.Trigger))
	}
	return strings.Join(parts, " • ")
}

func styleLine(l Line) string {
	switch l.Kind {
	case KindHeader:
		return headerStyle.Render(l.Text)
	case KindOK:
		return okStyle.Render(l.Text)
	case KindWarn:
		return warnStyle.Render(l.Text)
	case KindSeparator:
		return ""
	default:
		return l.Text
	}
}

// Watch runs the live view until the user quits.
func Watch(src Source, expectedDNS string) error {
	p := tea.NewProgram(newWatchModel(src, expectedDNS), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
