package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/db"
	"github.com/ausmo/scan-engine/internal/metrics"
	"github.com/ausmo/scan-engine/internal/model"
	"github.com/ausmo/scan-engine/internal/scanner"
	"github.com/ausmo/scan-engine/internal/settings"
	"github.com/ausmo/scan-engine/internal/suggestions"
	"github.com/ausmo/scan-engine/internal/tutorial"
)

// Server exposes the scan engine to host UIs over REST.
type Server struct {
	conn        *sql.DB
	engine      *scanner.Engine
	suggestions *suggestions.Service
	tutorial    *tutorial.Service
	metrics     *metrics.Client
}

type SettingsResponse struct {
	Enabled           bool   `json:"enabled"`
	SpeedMs           int64  `json:"speed_ms"`
	Mode              string `json:"mode"`
	Direction         string `json:"direction"`
	SwitchType        string `json:"switch_type"`
	AutoSelect        bool   `json:"auto_select"`
	AutoSelectDelayMs int64  `json:"auto_select_delay_ms"`
}

type SettingsRequest struct {
	Enabled           *bool   `json:"enabled"`
	SpeedMs           *int64  `json:"speed_ms"`
	Mode              *string `json:"mode"`
	Direction         *string `json:"direction"`
	SwitchType        *string `json:"switch_type"`
	AutoSelect        *bool   `json:"auto_select"`
	AutoSelectDelayMs *int64  `json:"auto_select_delay_ms"`
}

type StartScanRequest struct {
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
	Items     int    `json:"items"`
	Direction string `json:"direction"`
}

type PressRequest struct {
	Kind string `json:"kind"`
}

type ProfileRequest struct {
	Name     string          `json:"name"`
	Settings SettingsRequest `json:"settings"`
}

type ProgressResponse struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(conn *sql.DB, engine *scanner.Engine, sugg *suggestions.Service, tut *tutorial.Service) *Server {
	return &Server{
		conn:        conn,
		engine:      engine,
		suggestions: sugg,
		tutorial:    tut,
	}
}

// SetMetrics attaches a statsd client for per-request counts. Optional.
func (s *Server) SetMetrics(m *metrics.Client) { s.metrics = m }

// Router builds the REST routing table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.countRequests)

	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/api/settings", s.getSettings).Methods("GET")
	r.HandleFunc("/api/settings", s.updateSettings).Methods("PUT")

	r.HandleFunc("/api/scan/state", s.getScanState).Methods("GET")
	r.HandleFunc("/api/scan/start", s.startScan).Methods("POST")
	r.HandleFunc("/api/scan/stop", s.stopScan).Methods("POST")
	r.HandleFunc("/api/scan/press", s.press).Methods("POST")

	r.HandleFunc("/api/profiles", s.getProfiles).Methods("GET")
	r.HandleFunc("/api/profiles", s.createProfile).Methods("POST")
	r.HandleFunc("/api/profiles/{id}", s.getProfile).Methods("GET")
	r.HandleFunc("/api/profiles/{id}/activate", s.activateProfile).Methods("POST")

	r.HandleFunc("/api/selections", s.getSelections).Methods("GET")
	r.HandleFunc("/api/suggestions", s.getSuggestions).Methods("GET")

	r.HandleFunc("/api/tutorial/steps", s.getTutorialSteps).Methods("GET")
	r.HandleFunc("/api/tutorial/steps/{id}/complete", s.completeTutorialStep).Methods("POST")
	r.HandleFunc("/api/tutorial/progress", s.getTutorialProgress).Methods("GET")

	return r
}

// Start serves the API until the context is cancelled, then drains the
// listener gracefully. A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("API server shutdown failed")
		}
	}()

	log.Info().Str("address", addr).Msg("Starting REST API server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Count("api.request", "method:"+r.Method, "path:"+r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func settingsResponse(set model.ScanSettings) SettingsResponse {
	return SettingsResponse{
		Enabled:           set.Enabled,
		SpeedMs:           set.Speed.Milliseconds(),
		Mode:              string(set.Mode),
		Direction:         string(set.Direction),
		SwitchType:        string(set.SwitchType),
		AutoSelect:        set.AutoSelect,
		AutoSelectDelayMs: set.AutoSelectDelay.Milliseconds(),
	}
}

func settingsPatch(req SettingsRequest) settings.Patch {
	var patch settings.Patch
	patch.Enabled = req.Enabled
	patch.AutoSelect = req.AutoSelect
	if req.SpeedMs != nil {
		d := time.Duration(*req.SpeedMs) * time.Millisecond
		patch.Speed = &d
	}
	if req.AutoSelectDelayMs != nil {
		d := time.Duration(*req.AutoSelectDelayMs) * time.Millisecond
		patch.AutoSelectDelay = &d
	}
	if req.Mode != nil {
		m := model.ScanMode(*req.Mode)
		patch.Mode = &m
	}
	if req.Direction != nil {
		d := model.ScanDirection(*req.Direction)
		patch.Direction = &d
	}
	if req.SwitchType != nil {
		st := model.SwitchType(*req.SwitchType)
		patch.SwitchType = &st
	}
	return patch
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, settingsResponse(s.engine.Settings()))
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	updated, err := s.engine.UpdateSettings(settingsPatch(req))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Msg("Scan settings updated via API")
	s.writeJSON(w, http.StatusOK, settingsResponse(updated))
}

func (s *Server) getScanState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) startScan(w http.ResponseWriter, r *http.Request) {
	var req StartScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	direction := model.ScanDirection(req.Direction)
	if req.Direction == "" {
		direction = s.engine.Settings().Direction
	}

	if err := s.engine.StartScanning(req.Rows, req.Columns, req.Items, direction); err != nil {
		if errors.Is(err, scanner.ErrInvalidDimension) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) stopScan(w http.ResponseWriter, r *http.Request) {
	s.engine.StopScanning()
	s.writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) press(w http.ResponseWriter, r *http.Request) {
	var req PressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	kind := model.PressKind(req.Kind)
	if !model.ValidPressKind(kind) {
		s.writeError(w, http.StatusBadRequest, "Invalid press kind. Valid kinds: select, next, previous")
		return
	}

	s.engine.HandleSwitchPress(kind)
	s.writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) getProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := db.GetAllProfiles(s.conn)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get profiles")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	profile, err := db.GetProfileByID(s.conn, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "Profile not found")
		} else {
			log.Error().Err(err).Str("profile_id", id).Msg("Failed to get profile")
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "Profile name is required")
		return
	}

	// Build the profile's settings on top of the current snapshot so a
	// partial request still yields a complete, valid profile.
	base := settings.NewStore(s.engine.Settings())
	merged, err := base.Update(settingsPatch(req.Settings))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := model.Profile{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Settings:  merged,
		CreatedAt: time.Now(),
	}

	if err := db.InsertProfile(s.conn, profile); err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("Failed to insert profile")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().Str("profile_id", profile.ID).Str("name", profile.Name).Msg("Profile created via API")
	s.writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) activateProfile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := db.ActivateProfile(s.conn, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "Profile not found")
		} else {
			log.Error().Err(err).Str("profile_id", id).Msg("Failed to activate profile")
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	profile, err := db.GetProfileByID(s.conn, id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := s.engine.ReplaceSettings(profile.Settings); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("profile_id", id).Msg("Profile activated via API")
	s.writeJSON(w, http.StatusOK, settingsResponse(profile.Settings))
}

func (s *Server) getSelections(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	selections, err := db.GetRecentSelections(s.conn, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get selections")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if selections == nil {
		selections = []model.Selection{}
	}
	s.writeJSON(w, http.StatusOK, selections)
}

func (s *Server) getSuggestions(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid 'at' timestamp, want RFC3339")
			return
		}
		at = parsed
	}

	matched := s.suggestions.Suggest(at, r.URL.Query().Get("tag"))
	if matched == nil {
		matched = []model.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, matched)
}

func (s *Server) getTutorialSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.tutorial.Steps()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get tutorial steps")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, steps)
}

func (s *Server) completeTutorialStep(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.tutorial.Complete(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, "Tutorial step not found")
		} else {
			log.Error().Err(err).Str("step", id).Msg("Failed to complete tutorial step")
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getTutorialProgress(w http.ResponseWriter, r *http.Request) {
	completed, total, err := s.tutorial.Progress()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ProgressResponse{Completed: completed, Total: total})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
