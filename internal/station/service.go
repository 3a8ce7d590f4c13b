/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package station manages the station registry, the tuner, and all playlist
// operations performed against a station's stored playlist document.
package station

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/cache"
	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/slotgen"
	"github.com/friendsincode/dialwave/internal/telemetry"
)

var (
	// ErrStationNotFound indicates the station was not found.
	ErrStationNotFound = errors.New("station not found")

	// ErrPersonaNotFound indicates the DJ persona was not found.
	ErrPersonaNotFound = errors.New("dj persona not found")

	// ErrNameTaken indicates the station name is already in use.
	ErrNameTaken = errors.New("station name already in use")

	// ErrSlotGeneration indicates the slot generation service failed.
	// Unlike catalog trouble this aborts the whole generation.
	ErrSlotGeneration = errors.New("slot generation failed")

	// ErrInvalidInput marks a rejected request field. Wrapped with the
	// specific complaint so handlers can match it with errors.Is.
	ErrInvalidInput = errors.New("invalid input")
)

// The FM dial. Frequencies are assigned on a 0.1 MHz grid.
const (
	DialMinMHz = 88.0
	DialMaxMHz = 108.0

	// TuneToleranceMHz is how far off the dial position may be and still
	// lock onto a station.
	TuneToleranceMHz = 0.2
)

// Service manages stations and their playlists.
type Service struct {
	db        *gorm.DB
	bus       events.PubSub
	cache     *cache.Cache
	generator slotgen.Generator
	composer  *playlist.Composer
	logger    zerolog.Logger
}

// NewService creates a new station service. cache may be nil.
func NewService(db *gorm.DB, bus events.PubSub, c *cache.Cache, generator slotgen.Generator, composer *playlist.Composer, logger zerolog.Logger) *Service {
	return &Service{
		db:        db,
		bus:       bus,
		cache:     c,
		generator: generator,
		composer:  composer,
		logger:    logger.With().Str("component", "station").Logger(),
	}
}

// CreateStation registers a station. A zero frequency gets a free slot on
// the dial assigned.
func (s *Service) CreateStation(ctx context.Context, station *models.Station) error {
	if station.Name == "" {
		return fmt.Errorf("%w: station name is required", ErrInvalidInput)
	}
	if station.ID == "" {
		station.ID = uuid.NewString()
	}
	if station.Playlist == nil {
		station.Playlist = models.PlaylistDocument{}
	}

	if station.DJPersonaID != "" {
		if _, err := s.GetPersona(ctx, station.DJPersonaID); err != nil {
			return err
		}
	}

	if station.FrequencyMHz == 0 {
		freq, err := s.freeFrequency(ctx)
		if err != nil {
			return err
		}
		station.FrequencyMHz = freq
	}
	station.FrequencyMHz = snapToGrid(station.FrequencyMHz)
	if station.FrequencyMHz < DialMinMHz || station.FrequencyMHz > DialMaxMHz {
		return fmt.Errorf("%w: frequency %.1f MHz is outside the dial", ErrInvalidInput, station.FrequencyMHz)
	}

	if err := s.db.WithContext(ctx).Create(station).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrNameTaken
		}
		return err
	}

	s.invalidate(ctx, station.ID)
	s.publish(events.EventStationCreated, events.Payload{"station_id": station.ID})
	s.logger.Info().Str("station_id", station.ID).Float64("frequency", station.FrequencyMHz).Msg("station created")
	return nil
}

// GetStation loads a station by id.
func (s *Service) GetStation(ctx context.Context, id string) (*models.Station, error) {
	var station models.Station
	if err := s.db.WithContext(ctx).First(&station, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &station, nil
}

// ListStations returns all stations ordered by frequency.
func (s *Service) ListStations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	if err := s.db.WithContext(ctx).Order("frequency_mhz").Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

// StationSummaries returns the lightweight tuner list, cached when possible.
func (s *Service) StationSummaries(ctx context.Context) ([]cache.CachedStation, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetStationList(ctx); ok {
			return cached, nil
		}
	}

	stations, err := s.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]cache.CachedStation, 0, len(stations))
	for _, station := range stations {
		summaries = append(summaries, cache.CachedStation{
			ID:           station.ID,
			Name:         station.Name,
			FrequencyMHz: station.FrequencyMHz,
			ThemeText:    station.ThemeText,
			DJPersonaID:  station.DJPersonaID,
			TrackCount:   len(station.Playlist),
		})
	}

	if s.cache != nil {
		_ = s.cache.SetStationList(ctx, summaries)
	}
	return summaries, nil
}

// StationUpdate carries optional field updates. Nil pointers leave the
// stored value alone.
type StationUpdate struct {
	Name         *string  `json:"name,omitempty"`
	FrequencyMHz *float64 `json:"frequency_mhz,omitempty"`
	ThemeText    *string  `json:"theme_text,omitempty"`
	DJPersonaID  *string  `json:"dj_persona_id,omitempty"`
}

// UpdateStation applies a partial update.
func (s *Service) UpdateStation(ctx context.Context, id string, update StationUpdate) (*models.Station, error) {
	station, err := s.GetStation(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: station name cannot be empty", ErrInvalidInput)
		}
		station.Name = *update.Name
	}
	if update.FrequencyMHz != nil {
		freq := snapToGrid(*update.FrequencyMHz)
		if freq < DialMinMHz || freq > DialMaxMHz {
			return nil, fmt.Errorf("%w: frequency %.1f MHz is outside the dial", ErrInvalidInput, freq)
		}
		station.FrequencyMHz = freq
	}
	if update.ThemeText != nil {
		station.ThemeText = *update.ThemeText
	}
	if update.DJPersonaID != nil {
		if *update.DJPersonaID != "" {
			if _, err := s.GetPersona(ctx, *update.DJPersonaID); err != nil {
				return nil, err
			}
		}
		station.DJPersonaID = *update.DJPersonaID
	}

	if err := s.db.WithContext(ctx).Save(station).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	s.invalidate(ctx, station.ID)
	s.publish(events.EventStationUpdated, events.Payload{"station_id": station.ID})
	return station, nil
}

// DeleteStation removes a station.
func (s *Service) DeleteStation(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.Station{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStationNotFound
	}

	s.invalidate(ctx, id)
	s.publish(events.EventStationDeleted, events.Payload{"station_id": id})
	return nil
}

// TuneResult is the outcome of turning the dial.
type TuneResult struct {
	Matched bool            `json:"matched"`
	Station *models.Station `json:"station,omitempty"`
	Static  bool            `json:"static"`
}

// Tune finds the nearest station within tolerance of the dial position.
// A miss is not an error; the listener just hears static.
func (s *Service) Tune(ctx context.Context, frequencyMHz float64) (*TuneResult, error) {
	stations, err := s.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	var nearest *models.Station
	best := math.MaxFloat64
	for i := range stations {
		delta := math.Abs(stations[i].FrequencyMHz - frequencyMHz)
		if delta <= TuneToleranceMHz && delta < best {
			best = delta
			nearest = &stations[i]
		}
	}

	result := &TuneResult{Matched: nearest != nil, Station: nearest, Static: nearest == nil}
	telemetry.TunesTotal.WithLabelValues(strconv.FormatBool(result.Matched)).Inc()

	event := models.TuneEvent{
		ID:           uuid.NewString(),
		FrequencyMHz: frequencyMHz,
		Matched:      result.Matched,
		TunedAt:      time.Now().UTC(),
	}
	if nearest != nil {
		event.StationID = nearest.ID
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		s.logger.Warn().Err(err).Msg("failed to record tune event")
	}

	payload := events.Payload{"frequency_mhz": frequencyMHz, "matched": result.Matched}
	if nearest != nil {
		payload["station_id"] = nearest.ID
	}
	s.publish(events.EventTune, payload)

	return result, nil
}

// TuneHistory returns recent tune events, newest first.
func (s *Service) TuneHistory(ctx context.Context, limit int) ([]models.TuneEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var tunes []models.TuneEvent
	if err := s.db.WithContext(ctx).Order("tuned_at DESC").Limit(limit).Find(&tunes).Error; err != nil {
		return nil, err
	}
	return tunes, nil
}

// freeFrequency picks an unused 0.1 MHz slot on the dial, keeping at least
// the tune tolerance away from existing stations.
func (s *Service) freeFrequency(ctx context.Context) (float64, error) {
	stations, err := s.ListStations(ctx)
	if err != nil {
		return 0, err
	}

	for attempt := 0; attempt < 200; attempt++ {
		steps := int((DialMaxMHz - DialMinMHz) * 10)
		candidate := snapToGrid(DialMinMHz + float64(rand.Intn(steps+1))/10)

		clear := true
		for _, station := range stations {
			if math.Abs(station.FrequencyMHz-candidate) <= 2*TuneToleranceMHz {
				clear = false
				break
			}
		}
		if clear {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("no free frequency on the dial")
}

func snapToGrid(freq float64) float64 {
	return math.Round(freq*10) / 10
}

func (s *Service) invalidate(ctx context.Context, stationID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateStationList(ctx)
	_ = s.cache.InvalidateStation(ctx, stationID)
}

func (s *Service) publish(eventType events.EventType, payload events.Payload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, payload)
}
