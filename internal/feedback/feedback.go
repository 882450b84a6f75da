package feedback

import (
	"os/exec"

	"github.com/rs/zerolog/log"
)

// SoundKind selects which cue to play on a scan transition.
type SoundKind string

const (
	SoundTick   SoundKind = "tick"
	SoundSelect SoundKind = "select"
	SoundError  SoundKind = "error"
)

// HapticStyle selects the strength of a haptic pulse.
type HapticStyle string

const (
	HapticLight  HapticStyle = "light"
	HapticMedium HapticStyle = "medium"
)

// Audio is the audio feedback port. Implementations are fire-and-forget:
// failures are logged and never surfaced to the scan engine.
type Audio interface {
	PlaySound(kind SoundKind)
	Speak(text string)
}

// Haptics is the haptic feedback port. Absence of hardware is a no-op.
type Haptics interface {
	Impact(style HapticStyle)
}

// NoopAudio discards all audio requests.
type NoopAudio struct{}

func (NoopAudio) PlaySound(SoundKind) {}
func (NoopAudio) Speak(string)        {}

// NoopHaptics discards all haptic requests.
type NoopHaptics struct{}

func (NoopHaptics) Impact(HapticStyle) {}

// Speaker shells out to a TTS command (espeak-ng by default) for spoken
// output, and logs cue sounds at debug level. Speech runs on its own
// goroutine so a slow or missing TTS binary never delays a transition.
type Speaker struct {
	Command string
}

func NewSpeaker(command string) *Speaker {
	return &Speaker{Command: command}
}

func (s *Speaker) PlaySound(kind SoundKind) {
	log.Debug().Str("sound", string(kind)).Msg("Audio cue")
}

func (s *Speaker) Speak(text string) {
	if text == "" {
		return
	}
	go func() {
		cmd := exec.Command(s.Command, text)
		if err := cmd.Run(); err != nil {
			log.Warn().Err(err).Str("command", s.Command).Msg("TTS playback failed")
		}
	}()
}
