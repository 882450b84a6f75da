// Package tutorial tracks the caregiver onboarding walkthrough. Steps are
// seeded into the database at startup; only completion flags change.
package tutorial

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/db"
	"github.com/ausmo/scan-engine/internal/model"
)

type Service struct {
	conn *sql.DB
}

func NewService(conn *sql.DB) *Service {
	return &Service{conn: conn}
}

// Steps returns the walkthrough in display order.
func (s *Service) Steps() ([]model.TutorialStep, error) {
	return db.GetTutorialSteps(s.conn)
}

// Complete marks one step finished. Idempotent for known steps.
func (s *Service) Complete(id string) error {
	if err := db.CompleteTutorialStep(s.conn, id); err != nil {
		return err
	}
	log.Info().Str("step", id).Msg("Tutorial step completed")
	return nil
}

// Progress reports completed and total step counts.
func (s *Service) Progress() (completed, total int, err error) {
	steps, err := db.GetTutorialSteps(s.conn)
	if err != nil {
		return 0, 0, err
	}
	for _, step := range steps {
		if step.Completed {
			completed++
		}
	}
	return completed, len(steps), nil
}
