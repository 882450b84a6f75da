package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/internal/model"
)

// Open opens (creating if needed) the engine database and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate creates any missing tables. Existing data is left untouched.
func Migrate(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			enabled BOOLEAN NOT NULL,
			speed_ms INTEGER NOT NULL,
			mode TEXT NOT NULL,
			direction TEXT NOT NULL,
			switch_type TEXT NOT NULL,
			auto_select BOOLEAN NOT NULL,
			auto_select_delay_ms INTEGER NOT NULL,
			active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS selections (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			button_id TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			column_index INTEGER NOT NULL,
			item_index INTEGER NOT NULL,
			direction TEXT NOT NULL,
			selected_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tutorial_steps (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			position INTEGER NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}

	for _, stmt := range stmts {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed inserts the default profile and the onboarding tutorial steps. Rows
// already present are left alone, so re-running at startup is safe.
func Seed(conn *sql.DB, defaults model.ScanSettings) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR IGNORE INTO profiles
		(id, name, enabled, speed_ms, mode, direction, switch_type, auto_select, auto_select_delay_ms, active, created_at)
		VALUES ('default', 'Default', ?, ?, ?, ?, ?, ?, ?, TRUE, ?)`,
		defaults.Enabled,
		defaults.Speed.Milliseconds(),
		string(defaults.Mode),
		string(defaults.Direction),
		string(defaults.SwitchType),
		defaults.AutoSelect,
		defaults.AutoSelectDelay.Milliseconds(),
		time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to seed default profile: %w", err)
	}

	for _, step := range defaultTutorialSteps {
		_, err = tx.Exec(`INSERT OR IGNORE INTO tutorial_steps (id, title, body, position) VALUES (?, ?, ?, ?)`,
			step.ID, step.Title, step.Body, step.Position)
		if err != nil {
			return fmt.Errorf("failed to seed tutorial step %s: %w", step.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	log.Debug().Msg("Database seeded")
	return nil
}

var defaultTutorialSteps = []model.TutorialStep{
	{ID: "welcome", Title: "Welcome", Body: "Ausmo turns a communication board into a scannable grid. This walkthrough shows a caregiver how to set it up.", Position: 1},
	{ID: "switch-setup", Title: "Connect a switch", Body: "Plug in one or two accessibility switches, or use the on-screen button as a switch.", Position: 2},
	{ID: "scan-speed", Title: "Pick a scan speed", Body: "Start slow. The highlight moves at this pace; you can always speed it up later.", Position: 3},
	{ID: "row-column", Title: "Row-column scanning", Body: "The highlight sweeps rows first. Press the switch to enter a row, then again to pick a button.", Position: 4},
	{ID: "practice", Title: "Practice a selection", Body: "Try selecting a button on the practice grid using only the switch.", Position: 5},
	{ID: "auto-select", Title: "Dwell selection", Body: "With auto-select on, resting on a button long enough selects it without a press.", Position: 6},
}
