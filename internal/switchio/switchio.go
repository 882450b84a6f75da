// Package switchio feeds physical accessibility-switch presses into the
// scan engine by polling GPIO pins.
package switchio

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/internal/config"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/settings"
)

// After this many consecutive failed reads the poller gives up and alerts
// the caregiver channel; a flapping reading is hardware trouble, not noise.
const maxConsecutiveReadFailures = 50

// Presser receives decoded switch presses. Satisfied by scanner.Engine.
type Presser interface {
	HandleSwitchPress(kind model.PressKind)
}

// Notifier carries poller failure alerts to a caregiver.
type Notifier interface {
	Send(title, message string) error
}

// edgeDetector debounces one switch and reports presses on the release
// edge, with whether the switch was held past the hold threshold.
type edgeDetector struct {
	debounce time.Duration
	hold     time.Duration

	active         bool
	candidate      bool
	candidateSince time.Time
	pressedAt      time.Time
	primed         bool
}

func newEdgeDetector(debounce, hold time.Duration) *edgeDetector {
	return &edgeDetector{debounce: debounce, hold: hold}
}

// sample feeds one debounced reading. It returns pressed=true exactly once
// per press, on the release edge; held reports whether the press lasted at
// least the hold threshold.
func (d *edgeDetector) sample(level bool, now time.Time) (pressed, held bool) {
	if !d.primed {
		d.primed = true
		d.active = level
		d.candidate = level
		d.candidateSince = now
		return false, false
	}

	if level != d.candidate {
		d.candidate = level
		d.candidateSince = now
		return false, false
	}

	if level == d.active || now.Sub(d.candidateSince) < d.debounce {
		return false, false
	}

	// Debounced edge.
	d.active = level
	if level {
		d.pressedAt = now
		return false, false
	}
	return true, now.Sub(d.pressedAt) >= d.hold
}

// mapPress decodes a debounced press into a scan action.
//
// Dual switches: primary steps, secondary selects, a held primary steps
// backwards. A single switch selects in automatic mode (the clock does the
// stepping); in step mode a short press steps and a held press selects.
func mapPress(st model.SwitchType, mode model.ScanMode, secondary, held bool) model.PressKind {
	if st == model.SwitchDual {
		if secondary {
			return model.PressSelect
		}
		if held {
			return model.PressPrevious
		}
		return model.PressNext
	}

	if mode == model.ModeAutomatic {
		return model.PressSelect
	}
	if held {
		return model.PressSelect
	}
	return model.PressNext
}

// Poller samples the configured switch pins and forwards presses.
type Poller struct {
	cfg      config.Switches
	store    *settings.Store
	presser  Presser
	reader   LevelReader
	notifier Notifier
}

func NewPoller(cfg config.Switches, store *settings.Store, presser Presser, reader LevelReader, notifier Notifier) *Poller {
	return &Poller{
		cfg:      cfg,
		store:    store,
		presser:  presser,
		reader:   reader,
		notifier: notifier,
	}
}

// Configured reports whether any switch pin is wired up.
func (p *Poller) Configured() bool {
	return p.cfg.PrimaryPin != nil
}

// Validate configures the pins as inputs and proves they are readable
// before the poll loop starts.
func (p *Poller) Validate() error {
	for _, pin := range p.pins() {
		if err := ConfigureInput(pin, p.cfg.ActiveLow); err != nil {
			return err
		}
		if _, err := p.reader.ReadLevel(pin); err != nil {
			return fmt.Errorf("switch pin %d is not readable: %w", pin, err)
		}
	}
	return nil
}

func (p *Poller) pins() []int {
	var pins []int
	if p.cfg.PrimaryPin != nil {
		pins = append(pins, *p.cfg.PrimaryPin)
	}
	if p.cfg.SecondaryPin != nil {
		pins = append(pins, *p.cfg.SecondaryPin)
	}
	return pins
}

// Run polls until the context is cancelled. It returns an error only when
// the switch hardware stops responding.
func (p *Poller) Run(ctx context.Context) error {
	if !p.Configured() {
		log.Info().Msg("No switch pins configured, poller not started")
		return nil
	}

	debounce := time.Duration(p.cfg.DebounceMs) * time.Millisecond
	hold := time.Duration(p.cfg.HoldMs) * time.Millisecond

	detectors := map[int]*edgeDetector{}
	for _, pin := range p.pins() {
		detectors[pin] = newEdgeDetector(debounce, hold)
	}

	ticker := time.NewTicker(time.Duration(p.cfg.PollIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	log.Info().
		Ints("pins", p.pins()).
		Int("poll_interval_ms", p.cfg.PollIntervalMs).
		Msg("Starting switch poller")

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		now := time.Now()
		for _, pin := range p.pins() {
			level, err := p.reader.ReadLevel(pin)
			if err != nil {
				failures++
				log.Warn().Err(err).Int("pin", pin).Int("consecutive", failures).Msg("Switch read failed")
				if failures >= maxConsecutiveReadFailures {
					if p.notifier != nil {
						if nerr := p.notifier.Send("Switch hardware failure",
							fmt.Sprintf("Switch pin %d stopped responding; physical scanning input is offline", pin)); nerr != nil {
							log.Error().Err(nerr).Msg("Failed to send switch failure notification")
						}
					}
					return fmt.Errorf("switch pin %d unresponsive after %d failed reads: %w", pin, failures, err)
				}
				continue
			}
			failures = 0

			active := level
			if p.cfg.ActiveLow {
				active = !level
			}

			pressed, held := detectors[pin].sample(active, now)
			if !pressed {
				continue
			}

			s := p.store.Snapshot()
			secondary := p.cfg.SecondaryPin != nil && pin == *p.cfg.SecondaryPin
			kind := mapPress(s.SwitchType, s.Mode, secondary, held)

			log.Debug().
				Int("pin", pin).
				Bool("held", held).
				Str("press", string(kind)).
				Msg("Switch press decoded")
			p.presser.HandleSwitchPress(kind)
		}
	}
}
