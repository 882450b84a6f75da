package config

import (
	"testing"
	"time"

	"github.com/ausmo/scan-engine/internal/model"
)

func intPtr(n int) *int { return &n }

func validConfig() Config {
	cfg := Config{
		Scan: ScanDefaults{
			Enabled:    true,
			SpeedMs:    1200,
			Mode:       "automatic",
			Direction:  "row-column",
			SwitchType: "single",
		},
		Switches: Switches{
			PrimaryPin: intPtr(17),
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.validate() // should not panic
}

func TestValidate_BadMode(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.Mode = "turbo"

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unknown scan mode, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_PinConflict(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.SwitchType = "dual"
	cfg.Switches.PrimaryPin = intPtr(17)
	cfg.Switches.SecondaryPin = intPtr(17)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for conflicting switch pins, but got none")
		}
	}()

	cfg.validate()
}

func TestValidate_DualNeedsSecondaryPin(t *testing.T) {
	cfg := validConfig()
	cfg.Scan.SwitchType = "dual"
	cfg.Switches.SecondaryPin = nil

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for missing secondary pin, but got none")
		}
	}()

	cfg.validate()
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.Scan.SpeedMs != 1500 {
		t.Errorf("default speed_ms = %d, want 1500", cfg.Scan.SpeedMs)
	}
	if cfg.Scan.Mode != "automatic" {
		t.Errorf("default mode = %q, want automatic", cfg.Scan.Mode)
	}
	if cfg.Switches.DebounceMs != 60 {
		t.Errorf("default debounce_ms = %d, want 60", cfg.Switches.DebounceMs)
	}
}

func TestScanSettings(t *testing.T) {
	cfg := validConfig()
	s := cfg.ScanSettings()

	if !s.Enabled {
		t.Error("expected enabled settings")
	}
	if s.Speed != 1200*time.Millisecond {
		t.Errorf("speed = %v, want 1.2s", s.Speed)
	}
	if s.Direction != model.DirectionRowColumn {
		t.Errorf("direction = %q, want row-column", s.Direction)
	}
}
