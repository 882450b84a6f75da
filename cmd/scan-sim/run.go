package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ausmo/scan-engine/internal/clock"
	"github.com/ausmo/scan-engine/internal/events"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/scanner"
	"github.com/ausmo/scan-engine/internal/settings"
	"github.com/ausmo/scan-engine/internal/simui"
)

var (
	runRows       int
	runCols       int
	runItems      int
	runDirection  string
	runMode       string
	runSpeedMs    int
	runAutoSelect bool
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interactive grid simulator",
		RunE: func(_ *cobra.Command, _ []string) error {
			direction := model.ScanDirection(runDirection)
			if !model.ValidDirection(direction) {
				return fmt.Errorf("direction %q is not one of row-column, item", runDirection)
			}
			mode := model.ScanMode(runMode)
			if !model.ValidScanMode(mode) {
				return fmt.Errorf("mode %q is not one of automatic, step", runMode)
			}
			if runSpeedMs < 1 {
				return fmt.Errorf("speed-ms must be positive, got %d", runSpeedMs)
			}

			store := settings.NewStore(model.ScanSettings{
				Enabled:         true,
				Speed:           time.Duration(runSpeedMs) * time.Millisecond,
				Mode:            mode,
				Direction:       direction,
				SwitchType:      model.SwitchSingle,
				AutoSelect:      runAutoSelect,
				AutoSelectDelay: 3 * time.Second,
			})
			bus := events.NewBus()
			engine := scanner.New(store, bus, clock.New(), nil, nil)
			engine.Initialize()
			defer engine.StopScanning()

			m := simui.New(engine, bus, runRows, runCols, runItems, direction)
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().IntVar(&runRows, "rows", 3, "grid rows")
	cmd.Flags().IntVar(&runCols, "cols", 4, "grid columns")
	cmd.Flags().IntVar(&runItems, "items", 6, "item count for item direction")
	cmd.Flags().StringVar(&runDirection, "direction", "row-column", "scan direction (row-column, item)")
	cmd.Flags().StringVar(&runMode, "mode", "step", "scan mode (automatic, step)")
	cmd.Flags().IntVar(&runSpeedMs, "speed-ms", 1000, "automatic scan interval in milliseconds")
	cmd.Flags().BoolVar(&runAutoSelect, "auto-select", false, "select the highlight after a dwell delay")

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}
