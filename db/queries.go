package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ausmo/scan-engine/internal/model"
)

const profileColumns = `id, name, enabled, speed_ms, mode, direction, switch_type, auto_select, auto_select_delay_ms, active, created_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var speedMs, delayMs int64
	var createdAt string

	err := row.Scan(&p.ID, &p.Name, &p.Settings.Enabled, &speedMs,
		&p.Settings.Mode, &p.Settings.Direction, &p.Settings.SwitchType,
		&p.Settings.AutoSelect, &delayMs, &p.Active, &createdAt)
	if err != nil {
		return nil, err
	}

	p.Settings.Speed = time.Duration(speedMs) * time.Millisecond
	p.Settings.AutoSelectDelay = time.Duration(delayMs) * time.Millisecond
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// GetAllProfiles retrieves every stored profile ordered by creation time.
func GetAllProfiles(conn *sql.DB) ([]model.Profile, error) {
	rows, err := conn.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// GetProfileByID retrieves a single profile.
func GetProfileByID(conn *sql.DB, id string) (*model.Profile, error) {
	p, err := scanProfile(conn.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return p, nil
}

// GetActiveProfile retrieves the profile currently marked active.
func GetActiveProfile(conn *sql.DB) (*model.Profile, error) {
	p, err := scanProfile(conn.QueryRow(`SELECT ` + profileColumns + ` FROM profiles WHERE active = TRUE`))
	if err != nil {
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}
	return p, nil
}

// GetRecentSelections retrieves the newest selections, most recent first.
func GetRecentSelections(conn *sql.DB, limit int) ([]model.Selection, error) {
	rows, err := conn.Query(`SELECT id, session_id, button_id, row_index, column_index, item_index, direction, selected_at
		FROM selections ORDER BY selected_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	var selections []model.Selection
	for rows.Next() {
		var s model.Selection
		var selectedAt string
		err = rows.Scan(&s.ID, &s.SessionID, &s.ButtonID, &s.Row, &s.Column, &s.Item, &s.Direction, &selectedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		s.SelectedAt, _ = time.Parse(time.RFC3339, selectedAt)
		selections = append(selections, s)
	}
	return selections, rows.Err()
}

// GetTutorialSteps retrieves the walkthrough in display order.
func GetTutorialSteps(conn *sql.DB) ([]model.TutorialStep, error) {
	rows, err := conn.Query(`SELECT id, title, body, position, completed FROM tutorial_steps ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tutorial steps: %w", err)
	}
	defer rows.Close()

	var steps []model.TutorialStep
	for rows.Next() {
		var s model.TutorialStep
		err = rows.Scan(&s.ID, &s.Title, &s.Body, &s.Position, &s.Completed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tutorial step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
