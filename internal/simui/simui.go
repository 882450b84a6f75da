// Package simui is a terminal harness for exercising the scan engine
// without switch hardware: keyboard keys stand in for switch presses and
// the grid renders the live highlight.
package simui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/scanner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#575B7E")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Width(7).
			Align(lipgloss.Center).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	highlightStyle = cellStyle.
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("226")).
			BorderForeground(lipgloss.Color("226"))

	selectedStyle = cellStyle.
			Bold(true).
			Background(lipgloss.Color("40")).
			Foreground(lipgloss.Color("0"))

	statusStyle = lipgloss.NewStyle().Faint(true)
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// engineEventMsg carries one bus event into the bubbletea loop.
type engineEventMsg model.SwitchEvent

// Model drives the simulator. It owns no scan state of its own; every
// render reads a fresh snapshot from the engine.
type Model struct {
	engine *scanner.Engine

	rows, cols, items int
	direction         model.ScanDirection

	eventCh chan model.SwitchEvent
	recent  []string
}

// New wires a simulator model to a running engine. The bus subscription
// lives for the life of the program.
func New(engine *scanner.Engine, bus *events.Bus, rows, cols, items int, direction model.ScanDirection) Model {
	m := Model{
		engine:    engine,
		rows:      rows,
		cols:      cols,
		items:     items,
		direction: direction,
		eventCh:   make(chan model.SwitchEvent, 64),
	}
	bus.Subscribe(func(ev model.SwitchEvent) {
		select {
		case m.eventCh <- ev:
		default: // drop rather than block the engine
		}
	})
	return m
}

func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return engineEventMsg(<-m.eventCh)
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case engineEventMsg:
		line := fmt.Sprintf("%s (%s)", msg.Type, msg.Source)
		m.recent = append(m.recent, line)
		if len(m.recent) > 5 {
			m.recent = m.recent[len(m.recent)-5:]
		}
		return m, m.waitForEvent()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.engine.StopScanning()
			return m, tea.Quit
		case "s":
			if err := m.engine.StartScanning(m.rows, m.cols, m.items, m.direction); err != nil {
				m.recent = append(m.recent, "error: "+err.Error())
			}
		case "x":
			m.engine.StopScanning()
		case " ", "enter":
			m.engine.HandleSwitchPress(model.PressSelect)
		case "n", "right", "down":
			m.engine.HandleSwitchPress(model.PressNext)
		case "p", "left", "up":
			m.engine.HandleSwitchPress(model.PressPrevious)
		}
	}
	return m, nil
}

func (m Model) View() string {
	state := m.engine.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("scan-sim"))
	b.WriteString("\n\n")

	if m.direction == model.DirectionItem {
		b.WriteString(m.renderItems(state))
	} else {
		b.WriteString(m.renderGrid(state))
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(statusLine(state)))
	b.WriteString("\n")
	for _, line := range m.recent {
		b.WriteString(eventStyle.Render("  " + line))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render("\n[s]tart  [x]stop  [space]select  [n]ext  [p]revious  [q]uit\n"))
	return b.String()
}

func (m Model) renderGrid(state model.ScanState) string {
	var rows []string
	for r := 0; r < m.rows; r++ {
		var cells []string
		for c := 0; c < m.cols; c++ {
			label := fmt.Sprintf("%d-%d", r, c)
			style := cellStyle
			switch {
			case state.HighlightedButton == label && !state.IsScanning:
				style = selectedStyle
			case state.IsScanning && state.Phase == model.PhaseRow && r == state.CurrentRow:
				style = highlightStyle
			case state.IsScanning && state.Phase == model.PhaseColumn &&
				r == state.CurrentRow && c == state.CurrentColumn:
				style = highlightStyle
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderItems(state model.ScanState) string {
	var cells []string
	for i := 0; i < m.items; i++ {
		label := fmt.Sprintf("%d", i)
		style := cellStyle
		switch {
		case state.HighlightedButton == label && !state.IsScanning:
			style = selectedStyle
		case state.IsScanning && state.Phase == model.PhaseItem && i == state.CurrentItem:
			style = highlightStyle
		}
		cells = append(cells, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func statusLine(state model.ScanState) string {
	if !state.IsScanning {
		if state.HighlightedButton != "" {
			return fmt.Sprintf("idle, last selection %s", state.HighlightedButton)
		}
		return "idle"
	}
	return fmt.Sprintf("scanning %s row=%d col=%d item=%d",
		state.Phase, state.CurrentRow, state.CurrentColumn, state.CurrentItem)
}
