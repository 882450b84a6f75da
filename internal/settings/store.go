package settings

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/internal/model"
)

// Patch carries a partial settings update. Nil fields are left unchanged.
type Patch struct {
	Enabled         *bool                `json:"enabled,omitempty"`
	Speed           *time.Duration       `json:"speed,omitempty"`
	Mode            *model.ScanMode      `json:"mode,omitempty"`
	Direction       *model.ScanDirection `json:"direction,omitempty"`
	SwitchType      *model.SwitchType    `json:"switch_type,omitempty"`
	AutoSelect      *bool                `json:"auto_select,omitempty"`
	AutoSelectDelay *time.Duration       `json:"auto_select_delay,omitempty"`
}

// Store holds the current ScanSettings snapshot. Updates replace the
// snapshot wholesale; readers always get a copy. When an update turns
// Enabled off, registered disable hooks fire so the scan engine can stop
// any live session.
type Store struct {
	mu        sync.Mutex
	current   model.ScanSettings
	onDisable []func()
}

func NewStore(initial model.ScanSettings) *Store {
	return &Store{current: initial}
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() model.ScanSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// OnDisable registers a hook invoked after Enabled transitions true to
// false. Hooks run outside the store lock.
func (s *Store) OnDisable(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisable = append(s.onDisable, fn)
}

// Update merges the patch, validates the result, and returns the new
// snapshot.
func (s *Store) Update(patch Patch) (model.ScanSettings, error) {
	s.mu.Lock()

	next := s.current
	if patch.Enabled != nil {
		next.Enabled = *patch.Enabled
	}
	if patch.Speed != nil {
		next.Speed = *patch.Speed
	}
	if patch.Mode != nil {
		next.Mode = *patch.Mode
	}
	if patch.Direction != nil {
		next.Direction = *patch.Direction
	}
	if patch.SwitchType != nil {
		next.SwitchType = *patch.SwitchType
	}
	if patch.AutoSelect != nil {
		next.AutoSelect = *patch.AutoSelect
	}
	if patch.AutoSelectDelay != nil {
		next.AutoSelectDelay = *patch.AutoSelectDelay
	}

	if err := validate(next); err != nil {
		s.mu.Unlock()
		return s.Snapshot(), err
	}

	disabled := s.current.Enabled && !next.Enabled
	s.current = next
	hooks := make([]func(), len(s.onDisable))
	copy(hooks, s.onDisable)
	s.mu.Unlock()

	log.Info().
		Bool("enabled", next.Enabled).
		Dur("speed", next.Speed).
		Str("mode", string(next.Mode)).
		Str("direction", string(next.Direction)).
		Msg("Scan settings updated")

	if disabled {
		log.Info().Msg("Scanning disabled via settings, stopping any active session")
		for _, fn := range hooks {
			fn()
		}
	}

	return next, nil
}

// Replace swaps in a full settings snapshot, e.g. when activating a stored
// profile. The disable hook contract matches Update.
func (s *Store) Replace(next model.ScanSettings) (model.ScanSettings, error) {
	if err := validate(next); err != nil {
		return s.Snapshot(), err
	}

	s.mu.Lock()
	disabled := s.current.Enabled && !next.Enabled
	s.current = next
	hooks := make([]func(), len(s.onDisable))
	copy(hooks, s.onDisable)
	s.mu.Unlock()

	if disabled {
		for _, fn := range hooks {
			fn()
		}
	}

	return next, nil
}

func validate(s model.ScanSettings) error {
	if s.Speed <= 0 {
		return fmt.Errorf("scan speed must be positive, got %v", s.Speed)
	}
	if !model.ValidScanMode(s.Mode) {
		return fmt.Errorf("unknown scan mode %q", s.Mode)
	}
	if !model.ValidDirection(s.Direction) {
		return fmt.Errorf("unknown scan direction %q", s.Direction)
	}
	if !model.ValidSwitchType(s.SwitchType) {
		return fmt.Errorf("unknown switch type %q", s.SwitchType)
	}
	if s.AutoSelect && s.AutoSelectDelay <= 0 {
		return fmt.Errorf("auto-select delay must be positive, got %v", s.AutoSelectDelay)
	}
	return nil
}
