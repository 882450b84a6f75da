package simui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ausmo/scan-engine/internal/clock"
	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/scanner"
	"github.com/ausmo/scan-engine/internal/settings"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := settings.NewStore(model.ScanSettings{
		Enabled:         true,
		Speed:           time.Hour,
		Mode:            model.ModeStep,
		Direction:       model.DirectionRowColumn,
		SwitchType:      model.SwitchSingle,
		AutoSelectDelay: 3 * time.Second,
	})
	bus := events.NewBus()
	engine := scanner.New(store, bus, clock.New(), nil, nil)
	engine.Initialize()
	t.Cleanup(engine.StopScanning)

	return New(engine, bus, 2, 3, 0, model.DirectionRowColumn)
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	got, ok := next.(Model)
	require.True(t, ok)
	return got
}

func TestKeysDriveEngine(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, key("s"))
	state := m.engine.State()
	require.True(t, state.IsScanning)
	assert.Equal(t, model.PhaseRow, state.Phase)

	m = update(t, m, key("n"))
	assert.Equal(t, 1, m.engine.State().CurrentRow)

	m = update(t, m, key(" "))
	assert.Equal(t, model.PhaseColumn, m.engine.State().Phase)

	m = update(t, m, key("x"))
	assert.False(t, m.engine.State().IsScanning)
}

func TestQuitStopsScanning(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, key("s"))

	next, cmd := m.Update(key("q"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.False(t, m.engine.State().IsScanning)
}

func TestViewShowsIdleAndScanning(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "idle")

	m = update(t, m, key("s"))
	view := m.View()
	assert.Contains(t, view, "scanning row")
	assert.Contains(t, view, "0-0")
}

func TestEventMessagesAccumulate(t *testing.T) {
	m := newTestModel(t)

	for i := 0; i < 7; i++ {
		m = update(t, m, engineEventMsg(model.SwitchEvent{
			Type:   model.EventNext,
			Source: model.SourceInternal,
		}))
	}
	assert.Len(t, m.recent, 5)
	assert.True(t, strings.HasPrefix(m.recent[0], "next"))
}
