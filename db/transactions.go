package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ausmo/scan-engine/internal/model"
)

// InsertProfile stores a new profile. Profile names are unique.
func InsertProfile(conn *sql.DB, p model.Profile) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO profiles
		(id, name, enabled, speed_ms, mode, direction, switch_type, auto_select, auto_select_delay_ms, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name,
		p.Settings.Enabled,
		p.Settings.Speed.Milliseconds(),
		string(p.Settings.Mode),
		string(p.Settings.Direction),
		string(p.Settings.SwitchType),
		p.Settings.AutoSelect,
		p.Settings.AutoSelectDelay.Milliseconds(),
		p.Active,
		p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert profile %s: %w", p.Name, err)
	}
	return tx.Commit()
}

// ActivateProfile marks one profile active and every other inactive.
func ActivateProfile(conn *sql.DB, id string) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}

	res, err := tx.Exec(`UPDATE profiles SET active = (id = ?)`, id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("activate profile %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		tx.Rollback()
		return fmt.Errorf("activate profile %s: %w", id, sql.ErrNoRows)
	}

	var active int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM profiles WHERE active = TRUE`).Scan(&active); err != nil {
		tx.Rollback()
		return fmt.Errorf("activate profile %s: %w", id, err)
	}
	if active != 1 {
		tx.Rollback()
		return fmt.Errorf("activate profile %s: %w", id, sql.ErrNoRows)
	}

	return tx.Commit()
}

// InsertSelection appends one finalized selection to the log.
func InsertSelection(conn *sql.DB, s model.Selection) error {
	_, err := conn.Exec(`INSERT INTO selections
		(id, session_id, button_id, row_index, column_index, item_index, direction, selected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SessionID, s.ButtonID, s.Row, s.Column, s.Item,
		string(s.Direction), s.SelectedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert selection %s: %w", s.ID, err)
	}
	return nil
}

// CompleteTutorialStep marks a step finished. Completing an already
// completed step is a no-op; an unknown step is an error.
func CompleteTutorialStep(conn *sql.DB, id string) error {
	res, err := conn.Exec(`UPDATE tutorial_steps SET completed = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("complete tutorial step %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete tutorial step %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// SelectionStore adapts the database to the engine's selection Recorder.
type SelectionStore struct {
	conn *sql.DB
}

func NewSelectionStore(conn *sql.DB) *SelectionStore {
	return &SelectionStore{conn: conn}
}

func (s *SelectionStore) RecordSelection(sel model.Selection) error {
	return InsertSelection(s.conn, sel)
}
