/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/slotgen"
	"github.com/friendsincode/dialwave/internal/station"
	"github.com/friendsincode/dialwave/internal/version"
)

type stubCatalog struct {
	tracks []playlist.Track
}

func (s *stubCatalog) Sample(ctx context.Context, count int) ([]playlist.Track, error) {
	if count > len(s.tracks) {
		count = len(s.tracks)
	}
	return s.tracks[:count], nil
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.DJPersona{}, &models.Station{}, &models.TuneEvent{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	tracks := make([]playlist.Track, 40)
	for i := range tracks {
		tracks[i] = playlist.Track{
			Title:           fmt.Sprintf("Track %02d", i),
			Artist:          "Artist",
			DurationSeconds: 180,
			PlayURL:         fmt.Sprintf("https://catalog.example/t%02d", i),
		}
	}

	composer := playlist.NewComposer(&stubCatalog{tracks: tracks}, zerolog.Nop())
	svc := station.NewService(db, events.NewBus(), nil, slotgen.NewLocal(), composer, zerolog.Nop())

	r := chi.NewRouter()
	New(svc, nil, zerolog.Nop()).Routes(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return out
}

func createStationHTTP(t *testing.T, r chi.Router, name string, freq float64) models.Station {
	t.Helper()
	rec := doJSON(t, r, http.MethodPost, "/api/v1/stations/", map[string]any{
		"name":          name,
		"frequency_mhz": freq,
		"theme_text":    "late night drives",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create station: status %d body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[models.Station](t, rec)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
	if body["version"] != version.Version {
		t.Errorf("version field = %q, want %q", body["version"], version.Version)
	}
}

func TestStationLifecycle(t *testing.T) {
	r := newTestRouter(t)

	st := createStationHTTP(t, r, "Night Owl FM", 99.1)
	if st.ID == "" {
		t.Fatal("station id missing")
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/stations/"+st.ID+"/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/stations/"+st.ID+"/", map[string]any{
		"theme_text": "rainy mornings",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[models.Station](t, rec)
	if updated.ThemeText != "rainy mornings" {
		t.Errorf("theme = %q", updated.ThemeText)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/stations/"+st.ID+"/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/stations/"+st.ID+"/", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != "station_not_found" {
		t.Errorf("error code = %q", body["error"])
	}
}

func TestStationCreateDuplicateName(t *testing.T) {
	r := newTestRouter(t)
	createStationHTTP(t, r, "Twice FM", 90.0)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/stations/", map[string]any{
		"name": "Twice FM", "frequency_mhz": 95.0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != "name_taken" {
		t.Errorf("error code = %q", body["error"])
	}
}

func TestStationCreateRejectedInputIsBadRequest(t *testing.T) {
	r := newTestRouter(t)

	for name, payload := range map[string]map[string]any{
		"off-dial frequency": {"name": "Pirate", "frequency_mhz": 150.0},
		"missing name":       {"frequency_mhz": 95.0},
	} {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/stations/", payload)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d body %s", name, rec.Code, rec.Body.String())
			continue
		}
		body := decodeBody[map[string]string](t, rec)
		if body["error"] != "invalid_request" {
			t.Errorf("%s: error code = %q", name, body["error"])
		}
	}
}

func TestStationCreateInvalidJSON(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stations/", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != "invalid_json" {
		t.Errorf("error code = %q", body["error"])
	}
}

func TestTuneEndpoint(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Lock FM", 101.5)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/tune?frequency=101.4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	result := decodeBody[station.TuneResult](t, rec)
	if !result.Matched || result.Station == nil || result.Station.ID != st.ID {
		t.Errorf("expected lock onto %s, got %+v", st.ID, result)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/tune?frequency=88.0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("miss status %d", rec.Code)
	}
	miss := decodeBody[station.TuneResult](t, rec)
	if miss.Matched || !miss.Static {
		t.Errorf("expected static, got %+v", miss)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/tune?frequency=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus frequency: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/tune/history?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status %d", rec.Code)
	}
	history := decodeBody[map[string][]models.TuneEvent](t, rec)
	if len(history["tunes"]) != 2 {
		t.Errorf("tune history length = %d", len(history["tunes"]))
	}
}

func TestTemplatesList(t *testing.T) {
	r := newTestRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/api/v1/templates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody[map[string][]playlist.Template](t, rec)
	if len(body["templates"]) < 4 {
		t.Errorf("expected at least 4 templates, got %d", len(body["templates"]))
	}
}

func TestPersonaLifecycle(t *testing.T) {
	r := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/personas/", map[string]any{
		"name": "Moon Ray", "style": "smooth late night",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	persona := decodeBody[models.DJPersona](t, rec)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/personas/"+persona.ID, map[string]any{
		"catchphrase": "stay tuned, stay dreaming",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/personas/"+persona.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/personas/"+persona.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", rec.Code)
	}
}

func TestPlaylistGenerateAndMutate(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Groove FM", 94.3)
	base := "/api/v1/stations/" + st.ID + "/playlist"

	rec := doJSON(t, r, http.MethodPost, base+"/generate", map[string]any{
		"template_id": "classic",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d body %s", rec.Code, rec.Body.String())
	}
	gen := decodeBody[station.GenerateResult](t, rec)
	if len(gen.Station.Playlist) != 20 {
		t.Fatalf("playlist length = %d", len(gen.Station.Playlist))
	}

	entries := gen.Station.Playlist.Entries()
	order := make([]string, len(entries))
	for i, e := range entries {
		order[len(entries)-1-i] = e.ID
	}
	rec = doJSON(t, r, http.MethodPost, base+"/reorder", map[string]any{"order": order})
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, base+"/reorder", map[string]any{
		"order": order[:len(order)-1],
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("bad reorder: status %d", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != "order_mismatch" {
		t.Errorf("error code = %q", body["error"])
	}

	rec = doJSON(t, r, http.MethodPost, base+"/duplicate", map[string]any{
		"entry_id": entries[0].ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, base+"/remove", map[string]any{
		"ids": []string{entries[0].ID},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, base+"/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	stats := decodeBody[playlist.Stats](t, rec)
	if stats.TotalTracks != 20 {
		t.Errorf("stats total = %d", stats.TotalTracks)
	}
}

func TestPlaylistGenerateUnknownTemplate(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Typo FM", 96.7)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/stations/"+st.ID+"/playlist/generate", map[string]any{
		"template_id": "nope",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestPlaylistOptimizeEndpoint(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Tidy FM", 97.9)
	base := "/api/v1/stations/" + st.ID + "/playlist"

	rec := doJSON(t, r, http.MethodPost, base+"/generate", map[string]any{"total_tracks": 10})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, base+"/optimize", map[string]any{
		"remove_duplicates": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize: status %d body %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[playlist.OptimizeResult](t, rec)
	if len(result.Playlist) == 0 {
		t.Error("optimize returned empty playlist")
	}
}

func TestPlaylistExportImportRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	src := createStationHTTP(t, r, "Source FM", 89.5)
	dst := createStationHTTP(t, r, "Mirror FM", 104.1)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/stations/"+src.ID+"/playlist/generate", map[string]any{
		"total_tracks": 8,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/v1/stations/"+src.ID+"/playlist/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	snap := decodeBody[playlist.Snapshot](t, rec)
	if snap.Metadata == nil || snap.Metadata.TrackCount != 8 {
		t.Fatalf("snapshot metadata = %+v", snap.Metadata)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stations/"+dst.ID+"/playlist/import?mode=replace", bytes.NewReader(rec.Body.Bytes()))
	rec2 := httptest.NewRecorder()
	r.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", rec2.Code, rec2.Body.String())
	}
	report := decodeBody[playlist.ImportReport](t, rec2)
	if report.Accepted != 8 || report.Rejected != 0 {
		t.Errorf("import report accepted=%d rejected=%d", report.Accepted, report.Rejected)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/v1/stations/"+dst.ID+"/playlist/import?mode=sideways", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad mode: status %d", rec.Code)
	}
}

func TestPlaylistImportRejectsGarbage(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Strict FM", 91.3)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stations/"+st.ID+"/playlist/import", bytes.NewBufferString(`{"version":"1.0","playlist":[]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]string](t, rec)
	if body["error"] != "no_valid_entries" {
		t.Errorf("error code = %q", body["error"])
	}
}

func TestRenderVoiceRejectsMusicEntry(t *testing.T) {
	r := newTestRouter(t)
	st := createStationHTTP(t, r, "Voice FM", 102.7)
	base := "/api/v1/stations/" + st.ID + "/playlist"

	rec := doJSON(t, r, http.MethodPost, base+"/generate", map[string]any{"template_id": "classic"})
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: status %d", rec.Code)
	}
	gen := decodeBody[station.GenerateResult](t, rec)

	var musicID string
	for _, e := range gen.Station.Playlist.Entries() {
		if e.Kind == playlist.KindMusic {
			musicID = e.ID
			break
		}
	}
	if musicID == "" {
		t.Fatal("no music entry generated")
	}

	rec = doJSON(t, r, http.MethodPost, base+"/render-voice", map[string]any{"entry_id": musicID})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodPost, base+"/render-voice", map[string]any{"entry_id": "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing entry: status %d", rec.Code)
	}
}
