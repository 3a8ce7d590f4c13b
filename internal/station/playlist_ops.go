/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/slotgen"
	"github.com/friendsincode/dialwave/internal/telemetry"
)

// ErrNotAMessage indicates voice rendering was requested for a music entry.
var ErrNotAMessage = errors.New("entry is not a message")

// GenerateOptions controls playlist generation. A template id wins over the
// manual knobs; without either the balanced defaults apply.
type GenerateOptions struct {
	TemplateID   string   `json:"template_id,omitempty"`
	TotalTracks  int      `json:"total_tracks,omitempty"`
	MessageRatio *float64 `json:"message_ratio,omitempty"`
}

// GenerateResult is the outcome of a generation run.
type GenerateResult struct {
	Station  *models.Station `json:"station"`
	Warnings []string        `json:"warnings,omitempty"`
	Template string          `json:"template,omitempty"`
}

// GeneratePlaylist builds a fresh playlist for the station and replaces the
// stored one. Slot generation failures abort the run; catalog trouble only
// degrades it.
func (s *Service) GeneratePlaylist(ctx context.Context, stationID string, opts GenerateOptions) (*GenerateResult, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	plan, templateID, err := resolvePlan(opts)
	if err != nil {
		return nil, err
	}

	req := slotgen.Request{
		StationName:  station.Name,
		ThemeText:    station.ThemeText,
		MusicCount:   plan.MusicCount,
		MessageCount: plan.MessageCount,
	}
	personaName := ""
	if station.DJPersonaID != "" {
		persona, err := s.GetPersona(ctx, station.DJPersonaID)
		if err == nil {
			personaName = persona.Name
			req.PersonaName = persona.Name
			req.PersonaStyle = persona.Style
		}
	}

	slots, err := s.generator.GenerateSlots(ctx, req)
	if err != nil {
		telemetry.CompositionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrSlotGeneration, err)
	}

	composed, err := s.composer.Compose(ctx, slots, playlist.ComposeOptions{PersonaName: personaName})
	if err != nil {
		telemetry.CompositionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	fallbacks := 0
	for _, entry := range composed.Entries {
		if entry.Source == playlist.SourceFallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		telemetry.FallbackEntriesTotal.Add(float64(fallbacks))
	}
	if len(composed.Warnings) > 0 {
		telemetry.CompositionsTotal.WithLabelValues("degraded").Inc()
		s.publish(events.EventCompositionDegrade, events.Payload{
			"station_id": station.ID,
			"warnings":   strings.Join(composed.Warnings, ","),
		})
	} else {
		telemetry.CompositionsTotal.WithLabelValues("ok").Inc()
	}

	station.Playlist = composed.Entries
	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, err
	}

	s.publish(events.EventPlaylistGenerated, events.Payload{
		"station_id": station.ID,
		"entries":    len(composed.Entries),
	})
	s.logger.Info().
		Str("station_id", station.ID).
		Int("entries", len(composed.Entries)).
		Int("fallbacks", fallbacks).
		Msg("playlist generated")

	return &GenerateResult{Station: station, Warnings: composed.Warnings, Template: templateID}, nil
}

func resolvePlan(opts GenerateOptions) (playlist.SlotPlan, string, error) {
	if opts.TemplateID != "" {
		tpl, ok := playlist.TemplateByID(opts.TemplateID)
		if !ok {
			return playlist.SlotPlan{}, "", fmt.Errorf("%w: unknown template %q", ErrInvalidInput, opts.TemplateID)
		}
		return tpl.Expand(), tpl.ID, nil
	}

	total := opts.TotalTracks
	if total <= 0 {
		total = 20
	}
	ratio := 0.2
	if opts.MessageRatio != nil {
		ratio = *opts.MessageRatio
	}
	if ratio < 0 || ratio > 1 {
		return playlist.SlotPlan{}, "", fmt.Errorf("%w: message ratio %v out of range", ErrInvalidInput, ratio)
	}

	tpl := playlist.Template{TotalTracks: total, MessageRatio: ratio}
	return tpl.Expand(), "", nil
}

// OptimizePlaylist runs the optimizer against the stored playlist.
func (s *Service) OptimizePlaylist(ctx context.Context, stationID string, opts playlist.OptimizeOptions) (*playlist.OptimizeResult, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	result := playlist.Optimize(station.Playlist.Entries(), opts)
	for _, note := range result.Notes {
		step, _, _ := strings.Cut(note, ":")
		telemetry.OptimizePassesTotal.WithLabelValues(step).Inc()
	}

	if result.Changed {
		station.Playlist = result.Playlist
		if err := s.savePlaylist(ctx, station); err != nil {
			return nil, err
		}
		s.publish(events.EventPlaylistOptimized, events.Payload{
			"station_id": station.ID,
			"notes":      strings.Join(result.Notes, ","),
		})
	}

	return &result, nil
}

// ReorderPlaylist applies a full id permutation to the playlist.
func (s *Service) ReorderPlaylist(ctx context.Context, stationID string, idOrder []string) (*models.Station, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	reordered, err := playlist.Reorder(station.Playlist.Entries(), idOrder)
	if err != nil {
		return nil, err
	}

	station.Playlist = reordered
	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, err
	}
	s.publish(events.EventPlaylistUpdated, events.Payload{"station_id": station.ID, "op": "reorder"})
	return station, nil
}

// RemoveEntries deletes the given entry ids; unknown ids are ignored.
func (s *Service) RemoveEntries(ctx context.Context, stationID string, ids []string) (*models.Station, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	station.Playlist = playlist.RemoveMany(station.Playlist.Entries(), ids)
	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, err
	}
	s.publish(events.EventPlaylistUpdated, events.Payload{"station_id": station.ID, "op": "remove"})
	return station, nil
}

// DuplicateEntry copies an entry, optionally at a specific position.
func (s *Service) DuplicateEntry(ctx context.Context, stationID, entryID string, insertAt *int) (*models.Station, *playlist.Entry, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, nil, err
	}

	updated, copyEntry, err := playlist.Duplicate(station.Playlist.Entries(), entryID, insertAt)
	if err != nil {
		return nil, nil, err
	}

	station.Playlist = updated
	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, nil, err
	}
	s.publish(events.EventPlaylistUpdated, events.Payload{"station_id": station.ID, "op": "duplicate"})
	return station, &copyEntry, nil
}

// ExportPlaylist produces a portable snapshot of the stored playlist.
func (s *Service) ExportPlaylist(ctx context.Context, stationID string, includeMetadata bool) (*playlist.Snapshot, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	snap := playlist.ExportSnapshot(station.Playlist.Entries(), includeMetadata)
	return &snap, nil
}

// ImportPlaylist merges or replaces the stored playlist from a snapshot.
func (s *Service) ImportPlaylist(ctx context.Context, stationID string, raw []byte, mode playlist.ImportMode) (*playlist.ImportReport, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	report, err := playlist.ImportSnapshot(raw, mode, station.Playlist.Entries())
	if err != nil {
		return nil, err
	}

	station.Playlist = report.Playlist
	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, err
	}
	s.publish(events.EventPlaylistImported, events.Payload{
		"station_id": station.ID,
		"accepted":   report.Accepted,
		"rejected":   report.Rejected,
	})
	return &report, nil
}

// PlaylistStats computes read-only statistics for the stored playlist.
func (s *Service) PlaylistStats(ctx context.Context, stationID string) (*playlist.Stats, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	stats := playlist.ComputeStats(station.Playlist.Entries())
	return &stats, nil
}

// ValidatePlaylist checks the stored playlist for playability problems.
func (s *Service) ValidatePlaylist(ctx context.Context, stationID string) (*playlist.Validation, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	report := playlist.Validate(station.Playlist.Entries())
	return &report, nil
}

// RenderVoice synthesizes spoken audio for a message entry and stores the
// resulting clip URL on it.
func (s *Service) RenderVoice(ctx context.Context, stationID, entryID string) (*playlist.Entry, error) {
	station, err := s.GetStation(ctx, stationID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, entry := range station.Playlist {
		if entry.ID == entryID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, playlist.ErrNotFound
	}
	if station.Playlist[idx].Kind != playlist.KindMessage {
		return nil, ErrNotAMessage
	}

	personaName := ""
	if station.DJPersonaID != "" {
		if persona, err := s.GetPersona(ctx, station.DJPersonaID); err == nil {
			personaName = persona.Name
		}
	}

	clip, err := s.generator.RenderVoice(ctx, station.Playlist[idx].Content, personaName)
	if err != nil {
		telemetry.VoiceRendersTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	telemetry.VoiceRendersTotal.WithLabelValues("ok").Inc()

	station.Playlist[idx].PlayURL = clip.AudioURL
	if clip.DurationSeconds > 0 {
		station.Playlist[idx].DurationSeconds = clip.DurationSeconds
	}

	if err := s.savePlaylist(ctx, station); err != nil {
		return nil, err
	}
	entry := station.Playlist[idx]
	s.publish(events.EventVoiceRendered, events.Payload{"station_id": station.ID, "entry_id": entry.ID})
	return &entry, nil
}

func (s *Service) savePlaylist(ctx context.Context, station *models.Station) error {
	if err := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("id = ?", station.ID).
		Update("playlist", station.Playlist).Error; err != nil {
		return err
	}
	s.invalidate(ctx, station.ID)
	return nil
}
