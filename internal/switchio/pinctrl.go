package switchio

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// levelRegex pulls the level token out of a `pinctrl get N` line, e.g.
// ` 17: ip    pu | hi // GPIO17 = input`.
var levelRegex = regexp.MustCompile(`\|\s+(hi|lo)\b`)

// LevelReader reads the electrical level of a GPIO pin. The production
// implementation shells out to the Raspberry Pi pinctrl tool; tests inject
// a fake.
type LevelReader interface {
	ReadLevel(pin int) (bool, error)
}

type pinctrlReader struct{}

// NewPinctrlReader returns a LevelReader backed by the pinctrl CLI.
func NewPinctrlReader() LevelReader {
	return pinctrlReader{}
}

func (pinctrlReader) ReadLevel(pin int) (bool, error) {
	out, err := exec.Command("pinctrl", "get", strconv.Itoa(pin)).Output()
	if err != nil {
		return false, fmt.Errorf("failed to execute pinctrl get %d: %w", pin, err)
	}

	matches := levelRegex.FindSubmatch(out)
	if matches == nil {
		return false, fmt.Errorf("no level in pinctrl output for pin %d: %q", pin, out)
	}
	return string(matches[1]) == "hi", nil
}

// ConfigureInput sets a pin to input mode with the pull appropriate for the
// wiring: pull-up for active-low switches (the common case), pull-down
// otherwise.
func ConfigureInput(pin int, activeLow bool) error {
	pull := "pd"
	if activeLow {
		pull = "pu"
	}
	if err := exec.Command("pinctrl", "set", strconv.Itoa(pin), "ip", pull).Run(); err != nil {
		return fmt.Errorf("failed to configure pin %d as input: %w", pin, err)
	}
	return nil
}
