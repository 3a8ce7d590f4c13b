/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the DialWave HTTP surface: the station registry,
// the tuner, DJ personas, and all playlist operations.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/station"
	"github.com/friendsincode/dialwave/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	stations *station.Service
	bus      events.PubSub
	logger   zerolog.Logger
}

// New creates the API router wrapper.
func New(stations *station.Service, bus events.PubSub, logger zerolog.Logger) *API {
	return &API{
		stations: stations,
		bus:      bus,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all API routes under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Get("/tune", a.handleTune)
		r.Get("/tune/history", a.handleTuneHistory)

		r.Get("/templates", a.handleTemplatesList)

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", a.handlePersonasList)
			r.Post("/", a.handlePersonaCreate)
			r.Get("/{personaID}", a.handlePersonaGet)
			r.Patch("/{personaID}", a.handlePersonaUpdate)
			r.Delete("/{personaID}", a.handlePersonaDelete)
		})

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", a.handleStationsList)
			r.Post("/", a.handleStationCreate)

			r.Route("/{stationID}", func(r chi.Router) {
				r.Get("/", a.handleStationGet)
				r.Patch("/", a.handleStationUpdate)
				r.Delete("/", a.handleStationDelete)

				r.Route("/playlist", func(r chi.Router) {
					r.Get("/", a.handlePlaylistGet)
					r.Post("/generate", a.handlePlaylistGenerate)
					r.Post("/optimize", a.handlePlaylistOptimize)
					r.Post("/reorder", a.handlePlaylistReorder)
					r.Post("/remove", a.handlePlaylistRemove)
					r.Post("/duplicate", a.handlePlaylistDuplicate)
					r.Get("/export", a.handlePlaylistExport)
					r.Post("/import", a.handlePlaylistImport)
					r.Get("/stats", a.handlePlaylistStats)
					r.Get("/validate", a.handlePlaylistValidate)
					r.Post("/render-voice", a.handleRenderVoice)
				})
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// --- tuner ---

func (a *API) handleTune(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("frequency")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "frequency_required")
		return
	}
	freq, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_frequency")
		return
	}

	result, err := a.stations.Tune(r.Context(), freq)
	if err != nil {
		a.fail(w, err, "tune failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleTuneHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tunes, err := a.stations.TuneHistory(r.Context(), limit)
	if err != nil {
		a.fail(w, err, "tune history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tunes": tunes})
}

// --- templates ---

func (a *API) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": playlist.Templates()})
}

// --- stations ---

type stationRequest struct {
	Name         string  `json:"name"`
	FrequencyMHz float64 `json:"frequency_mhz"`
	ThemeText    string  `json:"theme_text"`
	DJPersonaID  string  `json:"dj_persona_id"`
}

func (a *API) handleStationsList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("full") == "true" {
		stations, err := a.stations.ListStations(r.Context())
		if err != nil {
			a.fail(w, err, "station list failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stations": stations})
		return
	}

	summaries, err := a.stations.StationSummaries(r.Context())
	if err != nil {
		a.fail(w, err, "station list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": summaries})
}

func (a *API) handleStationCreate(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	st := &models.Station{
		Name:         req.Name,
		FrequencyMHz: req.FrequencyMHz,
		ThemeText:    req.ThemeText,
		DJPersonaID:  req.DJPersonaID,
	}
	if err := a.stations.CreateStation(r.Context(), st); err != nil {
		a.fail(w, err, "station create failed")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (a *API) handleStationGet(w http.ResponseWriter, r *http.Request) {
	st, err := a.stations.GetStation(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		a.fail(w, err, "station get failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleStationUpdate(w http.ResponseWriter, r *http.Request) {
	var update station.StationUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	st, err := a.stations.UpdateStation(r.Context(), chi.URLParam(r, "stationID"), update)
	if err != nil {
		a.fail(w, err, "station update failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleStationDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.stations.DeleteStation(r.Context(), chi.URLParam(r, "stationID")); err != nil {
		a.fail(w, err, "station delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- personas ---

type personaRequest struct {
	Name        string `json:"name"`
	Style       string `json:"style"`
	VoiceID     string `json:"voice_id"`
	Catchphrase string `json:"catchphrase"`
}

func (a *API) handlePersonasList(w http.ResponseWriter, r *http.Request) {
	personas, err := a.stations.ListPersonas(r.Context())
	if err != nil {
		a.fail(w, err, "persona list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"personas": personas})
}

func (a *API) handlePersonaCreate(w http.ResponseWriter, r *http.Request) {
	var req personaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	persona := &models.DJPersona{
		Name:        req.Name,
		Style:       req.Style,
		VoiceID:     req.VoiceID,
		Catchphrase: req.Catchphrase,
	}
	if err := a.stations.CreatePersona(r.Context(), persona); err != nil {
		a.fail(w, err, "persona create failed")
		return
	}
	writeJSON(w, http.StatusCreated, persona)
}

func (a *API) handlePersonaGet(w http.ResponseWriter, r *http.Request) {
	persona, err := a.stations.GetPersona(r.Context(), chi.URLParam(r, "personaID"))
	if err != nil {
		a.fail(w, err, "persona get failed")
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

func (a *API) handlePersonaUpdate(w http.ResponseWriter, r *http.Request) {
	var update station.PersonaUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	persona, err := a.stations.UpdatePersona(r.Context(), chi.URLParam(r, "personaID"), update)
	if err != nil {
		a.fail(w, err, "persona update failed")
		return
	}
	writeJSON(w, http.StatusOK, persona)
}

func (a *API) handlePersonaDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.stations.DeletePersona(r.Context(), chi.URLParam(r, "personaID")); err != nil {
		a.fail(w, err, "persona delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- playlist ---

func (a *API) handlePlaylistGet(w http.ResponseWriter, r *http.Request) {
	st, err := a.stations.GetStation(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		a.fail(w, err, "playlist get failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": st.Playlist.Entries()})
}

func (a *API) handlePlaylistGenerate(w http.ResponseWriter, r *http.Request) {
	var opts station.GenerateOptions
	if err := decodeOptionalBody(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	result, err := a.stations.GeneratePlaylist(r.Context(), chi.URLParam(r, "stationID"), opts)
	if err != nil {
		a.fail(w, err, "playlist generate failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handlePlaylistOptimize(w http.ResponseWriter, r *http.Request) {
	var opts playlist.OptimizeOptions
	if err := decodeOptionalBody(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	result, err := a.stations.OptimizePlaylist(r.Context(), chi.URLParam(r, "stationID"), opts)
	if err != nil {
		a.fail(w, err, "playlist optimize failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handlePlaylistReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []string `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	st, err := a.stations.ReorderPlaylist(r.Context(), chi.URLParam(r, "stationID"), req.Order)
	if err != nil {
		a.fail(w, err, "playlist reorder failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": st.Playlist.Entries()})
}

func (a *API) handlePlaylistRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	st, err := a.stations.RemoveEntries(r.Context(), chi.URLParam(r, "stationID"), req.IDs)
	if err != nil {
		a.fail(w, err, "playlist remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlist": st.Playlist.Entries()})
}

func (a *API) handlePlaylistDuplicate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryID  string `json:"entry_id"`
		InsertAt *int   `json:"insert_at,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.EntryID == "" {
		writeError(w, http.StatusBadRequest, "entry_id_required")
		return
	}

	st, entry, err := a.stations.DuplicateEntry(r.Context(), chi.URLParam(r, "stationID"), req.EntryID, req.InsertAt)
	if err != nil {
		a.fail(w, err, "playlist duplicate failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":    entry,
		"playlist": st.Playlist.Entries(),
	})
}

func (a *API) handlePlaylistExport(w http.ResponseWriter, r *http.Request) {
	includeMetadata := r.URL.Query().Get("metadata") != "false"
	snap, err := a.stations.ExportPlaylist(r.Context(), chi.URLParam(r, "stationID"), includeMetadata)
	if err != nil {
		a.fail(w, err, "playlist export failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handlePlaylistImport(w http.ResponseWriter, r *http.Request) {
	mode := playlist.ImportMode(r.URL.Query().Get("mode"))
	switch mode {
	case "":
		mode = playlist.ImportReplace
	case playlist.ImportAppend, playlist.ImportReplace:
	default:
		writeError(w, http.StatusBadRequest, "invalid_import_mode")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	report, err := a.stations.ImportPlaylist(r.Context(), chi.URLParam(r, "stationID"), raw, mode)
	if err != nil {
		a.fail(w, err, "playlist import failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handlePlaylistStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.stations.PlaylistStats(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		a.fail(w, err, "playlist stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) handlePlaylistValidate(w http.ResponseWriter, r *http.Request) {
	report, err := a.stations.ValidatePlaylist(r.Context(), chi.URLParam(r, "stationID"))
	if err != nil {
		a.fail(w, err, "playlist validate failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleRenderVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EntryID string `json:"entry_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.EntryID == "" {
		writeError(w, http.StatusBadRequest, "entry_id_required")
		return
	}

	entry, err := a.stations.RenderVoice(r.Context(), chi.URLParam(r, "stationID"), req.EntryID)
	if err != nil {
		a.fail(w, err, "voice render failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// decodeOptionalBody decodes a JSON request body into v, treating an empty
// body as the zero value.
func decodeOptionalBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// fail maps service errors to HTTP responses and logs the unexpected ones.
func (a *API) fail(w http.ResponseWriter, err error, msg string) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		a.logger.Error().Err(err).Msg(msg)
	}
	writeError(w, status, code)
}

func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, station.ErrStationNotFound):
		return http.StatusNotFound, "station_not_found"
	case errors.Is(err, station.ErrPersonaNotFound):
		return http.StatusNotFound, "persona_not_found"
	case errors.Is(err, playlist.ErrNotFound):
		return http.StatusNotFound, "entry_not_found"
	case errors.Is(err, station.ErrNameTaken):
		return http.StatusConflict, "name_taken"
	case errors.Is(err, playlist.ErrOrderMismatch):
		return http.StatusConflict, "order_mismatch"
	case errors.Is(err, playlist.ErrNoValidEntries):
		return http.StatusUnprocessableEntity, "no_valid_entries"
	case errors.Is(err, station.ErrNotAMessage):
		return http.StatusUnprocessableEntity, "not_a_message"
	case errors.Is(err, station.ErrSlotGeneration):
		return http.StatusBadGateway, "slot_generation_failed"
	case errors.Is(err, station.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
