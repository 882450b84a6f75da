package scanner

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/feedback"
	"github.com/ausmo/scan-engine/internal/metrics"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/settings"
)

// ErrInvalidDimension is returned when StartScanning is given a grid the
// engine cannot cycle through (zero or negative bounds).
var ErrInvalidDimension = errors.New("invalid scan dimensions")

// Ticker drives the repeating scan tick and the one-shot auto-select
// deadline. Satisfied by clock.Clock; tests inject a manual fake.
type Ticker interface {
	Arm(interval time.Duration, onTick func())
	Disarm()
	Armed() bool
	Schedule(delay time.Duration, fn func())
	CancelSchedule()
}

// Recorder persists finalized selections.
type Recorder interface {
	RecordSelection(sel model.Selection) error
}

// Notifier announces finalized selections to a caregiver channel.
type Notifier interface {
	Send(title, message string) error
}

// Engine is the switch-scanning state machine. It owns ScanState
// exclusively; all transitions are serialized by its mutex, and external
// readers only ever receive copies.
type Engine struct {
	mu       sync.Mutex
	state    model.ScanState
	settings *settings.Store
	bus      *events.Bus
	clock    Ticker
	audio    feedback.Audio
	haptics  feedback.Haptics

	recorder Recorder
	notifier Notifier
	metrics  *metrics.Client

	initialized bool
}

func New(store *settings.Store, bus *events.Bus, clk Ticker, audio feedback.Audio, haptics feedback.Haptics) *Engine {
	if audio == nil {
		audio = feedback.NoopAudio{}
	}
	if haptics == nil {
		haptics = feedback.NoopHaptics{}
	}
	return &Engine{
		state:    model.ScanState{Phase: model.PhaseIdle},
		settings: store,
		bus:      bus,
		clock:    clk,
		audio:    audio,
		haptics:  haptics,
	}
}

func (e *Engine) SetRecorder(r Recorder) { e.recorder = r }
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }
func (e *Engine) SetMetrics(m *metrics.Client) { e.metrics = m }

// Initialize hooks the engine to its settings store so that disabling
// scanning tears down any live session. Idempotent.
func (e *Engine) Initialize() {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return
	}
	e.initialized = true
	e.mu.Unlock()

	e.settings.OnDisable(e.StopScanning)
}

// Settings returns the current settings snapshot.
func (e *Engine) Settings() model.ScanSettings {
	return e.settings.Snapshot()
}

// UpdateSettings applies a partial settings update. Disabling scanning
// stops any active session via the store's disable hook.
func (e *Engine) UpdateSettings(patch settings.Patch) (model.ScanSettings, error) {
	return e.settings.Update(patch)
}

// ReplaceSettings swaps in a complete settings snapshot, as when a stored
// profile is activated. The store's disable hook still fires if the new
// snapshot turns scanning off.
func (e *Engine) ReplaceSettings(next model.ScanSettings) (model.ScanSettings, error) {
	return e.settings.Replace(next)
}

// State returns a copy of the runtime scan state.
func (e *Engine) State() model.ScanState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// StartScanning begins a new scanning session over a rows x cols grid of
// items. In row-column direction the engine cycles rows then columns; in
// item direction it cycles the flat item index. A session already in
// progress is stopped first.
func (e *Engine) StartScanning(rows, cols, items int, direction model.ScanDirection) error {
	s := e.settings.Snapshot()
	if !s.Enabled {
		log.Debug().Msg("Scanning disabled in settings, ignoring start request")
		return nil
	}

	var phase model.ScanPhase
	switch direction {
	case model.DirectionRowColumn:
		if rows < 1 || cols < 1 {
			e.audio.PlaySound(feedback.SoundError)
			return fmt.Errorf("%w: rows=%d cols=%d", ErrInvalidDimension, rows, cols)
		}
		phase = model.PhaseRow
	case model.DirectionItem:
		if items < 1 {
			e.audio.PlaySound(feedback.SoundError)
			return fmt.Errorf("%w: items=%d", ErrInvalidDimension, items)
		}
		phase = model.PhaseItem
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidDimension, direction)
	}

	e.mu.Lock()
	if e.state.IsScanning {
		prior := e.state.SessionID
		e.stopLocked()
		e.mu.Unlock()
		e.clock.Disarm()
		e.clock.CancelSchedule()
		e.emit(model.EventStop, model.SourceInternal, prior)
		e.mu.Lock()
	}

	session := uuid.New().String()
	e.state = model.ScanState{
		IsScanning:   true,
		Phase:        phase,
		TotalRows:    rows,
		TotalColumns: cols,
		TotalItems:   items,
		SessionID:    session,
	}
	e.mu.Unlock()

	if s.Mode == model.ModeAutomatic {
		e.clock.Arm(s.Speed, func() { e.tick(session) })
	}
	if s.AutoSelect {
		e.clock.Schedule(s.AutoSelectDelay, func() { e.autoSelect(session) })
	}

	log.Info().
		Str("session", session).
		Str("direction", string(direction)).
		Int("rows", rows).
		Int("cols", cols).
		Int("items", items).
		Msg("Scanning session started")
	e.metrics.Count("scan.session.started", "direction:"+string(direction))

	e.emit(model.EventStart, model.SourceInternal, session)
	return nil
}

// StopScanning unconditionally returns the engine to idle. Idempotent and
// safe to call when no session is active. All timers are dead before it
// returns, so no tick from the stopped session can mutate state afterward.
func (e *Engine) StopScanning() {
	e.mu.Lock()
	if !e.state.IsScanning {
		e.mu.Unlock()
		return
	}
	session := e.state.SessionID
	e.stopLocked()
	e.mu.Unlock()

	e.clock.Disarm()
	e.clock.CancelSchedule()

	log.Info().Str("session", session).Msg("Scanning session stopped")
	e.metrics.Count("scan.session.stopped")
	e.emit(model.EventStop, model.SourceInternal, session)
}

// stopLocked marks the session over. Indices and any finalized highlight
// survive in the snapshot for the host UI to read.
func (e *Engine) stopLocked() {
	e.state.IsScanning = false
	e.state.Phase = model.PhaseIdle
}

// HandleSwitchPress feeds an external switch press into the state machine.
// Presses while disabled or idle are ignored.
func (e *Engine) HandleSwitchPress(kind model.PressKind) {
	if !e.settings.Snapshot().Enabled {
		log.Debug().Str("press", string(kind)).Msg("Scanning disabled in settings, ignoring switch press")
		return
	}

	switch kind {
	case model.PressSelect:
		e.doSelect(model.SourceExternal)
	case model.PressNext:
		e.step(1, model.EventNext, model.SourceExternal)
	case model.PressPrevious:
		e.step(-1, model.EventPrevious, model.SourceExternal)
	default:
		log.Warn().Str("press", string(kind)).Msg("Unknown switch press kind")
	}
}

// tick advances the highlight on the automatic scan clock. Stale ticks from
// a finished session are dropped.
func (e *Engine) tick(session string) {
	e.mu.Lock()
	if !e.state.IsScanning || e.state.SessionID != session {
		e.mu.Unlock()
		return
	}
	e.advanceLocked(1)
	e.mu.Unlock()

	e.metrics.Count("scan.tick")
	e.afterHighlightChange(session)
	e.emit(model.EventNext, model.SourceInternal, session)
}

// step advances or retreats the highlight on a manual press.
func (e *Engine) step(delta int, eventType model.EventType, source model.EventSource) {
	e.mu.Lock()
	if !e.state.IsScanning {
		e.mu.Unlock()
		log.Debug().Msg("Switch press with no active session")
		return
	}
	session := e.state.SessionID
	e.advanceLocked(delta)
	e.mu.Unlock()

	e.metrics.Count("switch.press", "kind:"+string(eventType))
	e.afterHighlightChange(session)
	e.emit(eventType, source, session)
}

// advanceLocked moves the active-phase index by delta, wrapping modulo the
// phase bound. Bounds are validated at start, so the divisor is never zero.
func (e *Engine) advanceLocked(delta int) {
	switch e.state.Phase {
	case model.PhaseRow:
		e.state.CurrentRow = wrap(e.state.CurrentRow+delta, e.state.TotalRows)
	case model.PhaseColumn:
		e.state.CurrentColumn = wrap(e.state.CurrentColumn+delta, e.state.TotalColumns)
	case model.PhaseItem:
		e.state.CurrentItem = wrap(e.state.CurrentItem+delta, e.state.TotalItems)
	}
}

func wrap(idx, bound int) int {
	return ((idx % bound) + bound) % bound
}

// afterHighlightChange plays the tick cue and pushes the auto-select
// deadline out; any highlight change resets the deadline.
func (e *Engine) afterHighlightChange(session string) {
	e.audio.PlaySound(feedback.SoundTick)
	e.haptics.Impact(feedback.HapticLight)

	s := e.settings.Snapshot()
	if s.AutoSelect {
		e.clock.Schedule(s.AutoSelectDelay, func() { e.autoSelect(session) })
	}
}

// autoSelect fires the dwell deadline: selecting whatever is highlighted,
// exactly as a physical select press would.
func (e *Engine) autoSelect(session string) {
	e.mu.Lock()
	live := e.state.IsScanning && e.state.SessionID == session
	e.mu.Unlock()
	if !live {
		return
	}
	e.metrics.Count("scan.autoselect")
	e.doSelect(model.SourceInternal)
}

func (e *Engine) doSelect(source model.EventSource) {
	e.mu.Lock()
	if !e.state.IsScanning {
		e.mu.Unlock()
		log.Debug().Msg("Select with no active session")
		return
	}
	session := e.state.SessionID

	if e.state.Phase == model.PhaseRow {
		// Row chosen; begin scanning its columns.
		e.state.Phase = model.PhaseColumn
		e.state.CurrentColumn = 0
		e.mu.Unlock()

		e.audio.PlaySound(feedback.SoundSelect)
		e.haptics.Impact(feedback.HapticMedium)
		e.emit(model.EventSelect, source, session)
		e.afterHighlightChange(session)
		return
	}

	// Column or item phase: finalize the selection.
	var buttonID string
	var direction model.ScanDirection
	if e.state.Phase == model.PhaseColumn {
		buttonID = fmt.Sprintf("%d-%d", e.state.CurrentRow, e.state.CurrentColumn)
		direction = model.DirectionRowColumn
	} else {
		buttonID = strconv.Itoa(e.state.CurrentItem)
		direction = model.DirectionItem
	}
	e.state.HighlightedButton = buttonID

	sel := model.Selection{
		ID:         uuid.New().String(),
		SessionID:  session,
		ButtonID:   buttonID,
		Row:        e.state.CurrentRow,
		Column:     e.state.CurrentColumn,
		Item:       e.state.CurrentItem,
		Direction:  direction,
		SelectedAt: time.Now(),
	}
	e.stopLocked()
	e.mu.Unlock()

	e.clock.Disarm()
	e.clock.CancelSchedule()

	e.audio.PlaySound(feedback.SoundSelect)
	// The Audio implementation maps button IDs to spoken labels.
	e.audio.Speak(buttonID)
	e.haptics.Impact(feedback.HapticMedium)

	if e.recorder != nil {
		if err := e.recorder.RecordSelection(sel); err != nil {
			log.Error().Err(err).Str("button", buttonID).Msg("Failed to record selection")
		}
	}
	if e.notifier != nil {
		if err := e.notifier.Send("Selection made", fmt.Sprintf("Button %s selected", buttonID)); err != nil {
			log.Warn().Err(err).Msg("Failed to send selection notification")
		}
	}

	log.Info().
		Str("session", session).
		Str("button", buttonID).
		Str("direction", string(direction)).
		Msg("Selection finalized")
	e.metrics.Count("scan.selection", "direction:"+string(direction))

	e.emit(model.EventSelect, source, session)
	e.emit(model.EventStop, model.SourceInternal, session)
}

func (e *Engine) emit(t model.EventType, source model.EventSource, session string) {
	e.bus.Publish(model.SwitchEvent{
		Type:      t,
		Source:    source,
		Timestamp: time.Now(),
		SessionID: session,
	})
}
