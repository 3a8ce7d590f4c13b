/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Fallback entry labels used when the catalog cannot supply a real track.
const (
	fallbackTitle  = "Ambient Interlude"
	fallbackArtist = "DialWave"
)

// CatalogSource supplies concrete tracks from the external media catalog.
// Implementations may return fewer tracks than requested.
type CatalogSource interface {
	Sample(ctx context.Context, count int) ([]Track, error)
}

// Composer merges abstract slots with catalog tracks into a playlist.
// It carries no state between calls.
type Composer struct {
	catalog CatalogSource
	logger  zerolog.Logger
	now     func() time.Time
}

// NewComposer creates a composer backed by the given catalog.
func NewComposer(catalog CatalogSource, logger zerolog.Logger) *Composer {
	return &Composer{
		catalog: catalog,
		logger:  logger.With().Str("component", "composer").Logger(),
		now:     time.Now,
	}
}

// ComposeOptions tune a single composition call.
type ComposeOptions struct {
	// PersonaName labels message entries ("Message from <persona>").
	PersonaName string
	// SampleSize overrides how many tracks to request from the catalog.
	// Zero means "as many as there are music slots".
	SampleSize int
}

// ComposeResult is the outcome of one composition.
type ComposeResult struct {
	Entries  []Entry
	Warnings []string
}

// Compose walks slots in order, consuming one catalog track per music slot
// and synthesizing a fallback entry once the catalog is exhausted. Catalog
// failure degrades to an all-fallback playlist rather than failing the
// composition; only context cancellation aborts.
func (c *Composer) Compose(ctx context.Context, slots []Slot, opts ComposeOptions) (ComposeResult, error) {
	var result ComposeResult
	if len(slots) == 0 {
		return result, nil
	}

	musicCount := 0
	for _, slot := range slots {
		if slot.Kind == KindMusic {
			musicCount++
		}
	}

	sampleSize := opts.SampleSize
	if sampleSize < musicCount {
		sampleSize = musicCount
	}

	var tracks []Track
	if sampleSize > 0 {
		var err error
		tracks, err = c.catalog.Sample(ctx, sampleSize)
		if err != nil {
			if ctx.Err() != nil {
				return ComposeResult{}, ctx.Err()
			}
			c.logger.Warn().Err(err).Int("requested", sampleSize).Msg("catalog sample failed, degrading to fallback entries")
			tracks = nil
			result.Warnings = append(result.Warnings, "catalog_failed")
		}
	}
	if len(tracks) < musicCount && ctx.Err() == nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("catalog_short:%d", musicCount-len(tracks)))
	}

	addedAt := c.now().UTC()
	entries := make([]Entry, 0, len(slots))
	cursor := 0
	for idx, slot := range slots {
		switch slot.Kind {
		case KindMessage:
			entries = append(entries, c.messageEntry(slot, idx, opts.PersonaName, addedAt))
		default:
			if cursor < len(tracks) {
				entries = append(entries, catalogEntry(slot, idx, tracks[cursor], addedAt))
				cursor++
			} else {
				entries = append(entries, fallbackEntry(slot, idx, addedAt))
			}
		}
	}

	result.Entries = entries
	c.logger.Debug().
		Int("slots", len(slots)).
		Int("catalog_tracks", cursor).
		Int("fallback", musicCount-cursor).
		Msg("composed playlist")
	return result, nil
}

func (c *Composer) messageEntry(slot Slot, idx int, persona string, addedAt time.Time) Entry {
	title := "DJ message"
	if persona != "" {
		title = "Message from " + persona
	}
	return Entry{
		ID:              NextID("msg", idx),
		Kind:            KindMessage,
		Title:           title,
		Content:         slot.Content,
		Artist:          persona,
		DurationSeconds: MessageDurationEstimateSeconds,
		PlayURL:         "",
		Source:          SourceSynthesized,
		AddedAt:         addedAt,
	}
}

func catalogEntry(slot Slot, idx int, track Track, addedAt time.Time) Entry {
	content := slot.Content
	if content == "" {
		content = track.Title
	}
	return Entry{
		ID:              NextID("catalog", idx),
		Kind:            KindMusic,
		Title:           track.Title,
		Content:         content,
		Artist:          track.Artist,
		DurationSeconds: track.DurationSeconds,
		PlayURL:         track.PlayURL,
		Genre:           track.Genre,
		Source:          SourceCatalog,
		AddedAt:         addedAt,
	}
}

func fallbackEntry(slot Slot, idx int, addedAt time.Time) Entry {
	content := slot.Content
	if content == "" {
		content = fallbackTitle
	}
	return Entry{
		ID:              NextID("fallback", idx),
		Kind:            KindMusic,
		Title:           fallbackTitle,
		Content:         content,
		Artist:          fallbackArtist,
		DurationSeconds: DefaultTrackDurationSeconds,
		PlayURL:         "",
		Source:          SourceFallback,
		AddedAt:         addedAt,
	}
}
