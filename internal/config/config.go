package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ausmo/scan-engine/internal/model"
)

type ScanDefaults struct {
	Enabled           bool   `json:"enabled"`
	SpeedMs           int    `json:"speed_ms"`
	Mode              string `json:"mode"`
	Direction         string `json:"direction"`
	SwitchType        string `json:"switch_type"`
	AutoSelect        bool   `json:"auto_select"`
	AutoSelectDelayMs int    `json:"auto_select_delay_ms"`
}

type Switches struct {
	// GPIO pin numbers for physical switches; nil disables the poller.
	PrimaryPin   *int `json:"primary_pin"`
	SecondaryPin *int `json:"secondary_pin"`

	PollIntervalMs int  `json:"poll_interval_ms"`
	DebounceMs     int  `json:"debounce_ms"`
	HoldMs         int  `json:"hold_ms"`
	ActiveLow      bool `json:"active_low"`
}

type Config struct {
	DBFile     string
	ConfigFile string
	LogFile    string
	LogLevel   zerolog.Level

	APIPort int `json:"api_port"`

	Scan     ScanDefaults `json:"scan"`
	Switches Switches     `json:"switches"`

	TTSCommand string `json:"tts_command"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.DBFile, "db-file", "data/scan-engine.db", "Path to the SQLite database file")
	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to engine config file")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Log file path (empty logs to stderr)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = ParseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func ParseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.APIPort == 0 {
		cfg.APIPort = 8090
	}
	if cfg.Scan.SpeedMs == 0 {
		cfg.Scan.SpeedMs = 1500
	}
	if cfg.Scan.Mode == "" {
		cfg.Scan.Mode = string(model.ModeAutomatic)
	}
	if cfg.Scan.Direction == "" {
		cfg.Scan.Direction = string(model.DirectionRowColumn)
	}
	if cfg.Scan.SwitchType == "" {
		cfg.Scan.SwitchType = string(model.SwitchSingle)
	}
	if cfg.Scan.AutoSelectDelayMs == 0 {
		cfg.Scan.AutoSelectDelayMs = 3000
	}
	if cfg.Switches.PollIntervalMs == 0 {
		cfg.Switches.PollIntervalMs = 20
	}
	if cfg.Switches.DebounceMs == 0 {
		cfg.Switches.DebounceMs = 60
	}
	if cfg.Switches.HoldMs == 0 {
		cfg.Switches.HoldMs = 800
	}
	if cfg.TTSCommand == "" {
		cfg.TTSCommand = "espeak-ng"
	}
}

func (cfg *Config) validate() {
	var problems []string

	if cfg.Scan.SpeedMs <= 0 {
		problems = append(problems, "scan.speed_ms must be positive")
	}
	if cfg.Scan.AutoSelectDelayMs <= 0 {
		problems = append(problems, "scan.auto_select_delay_ms must be positive")
	}
	if !model.ValidScanMode(model.ScanMode(cfg.Scan.Mode)) {
		problems = append(problems, fmt.Sprintf("scan.mode %q is not one of automatic, step", cfg.Scan.Mode))
	}
	if !model.ValidDirection(model.ScanDirection(cfg.Scan.Direction)) {
		problems = append(problems, fmt.Sprintf("scan.direction %q is not one of row-column, item", cfg.Scan.Direction))
	}
	if !model.ValidSwitchType(model.SwitchType(cfg.Scan.SwitchType)) {
		problems = append(problems, fmt.Sprintf("scan.switch_type %q is not one of single, dual", cfg.Scan.SwitchType))
	}
	if cfg.Scan.SwitchType == string(model.SwitchDual) && cfg.Switches.PrimaryPin != nil && cfg.Switches.SecondaryPin == nil {
		problems = append(problems, "switches.secondary_pin is required for dual switch scanning")
	}
	if cfg.Switches.PrimaryPin != nil && cfg.Switches.SecondaryPin != nil &&
		*cfg.Switches.PrimaryPin == *cfg.Switches.SecondaryPin {
		problems = append(problems, fmt.Sprintf("switches.primary_pin and switches.secondary_pin both use pin %d", *cfg.Switches.PrimaryPin))
	}
	if cfg.EnableDatadog && cfg.DDAgentAddr == "" {
		problems = append(problems, "dd_agent_addr is required when enable_datadog is set")
	}

	if len(problems) > 0 {
		panic("Invalid scan engine config: " + strings.Join(problems, "; "))
	}
}

// ScanSettings converts the configured defaults into a runtime settings
// snapshot. Used at startup when no persisted profile is active yet.
func (cfg *Config) ScanSettings() model.ScanSettings {
	return model.ScanSettings{
		Enabled:         cfg.Scan.Enabled,
		Speed:           time.Duration(cfg.Scan.SpeedMs) * time.Millisecond,
		Mode:            model.ScanMode(cfg.Scan.Mode),
		Direction:       model.ScanDirection(cfg.Scan.Direction),
		SwitchType:      model.SwitchType(cfg.Scan.SwitchType),
		AutoSelect:      cfg.Scan.AutoSelect,
		AutoSelectDelay: time.Duration(cfg.Scan.AutoSelectDelayMs) * time.Millisecond,
	}
}
