/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlist implements the composition, optimization, and mutation
// engine behind a station's playback sequence. All operations take an entry
// slice and return a new slice; callers must adopt the returned sequence.
package playlist

import (
	"strings"
	"time"
)

// Kind partitions entries into the two playable classes.
type Kind string

const (
	KindMusic   Kind = "music"
	KindMessage Kind = "message"
)

// ValidKind reports whether k is a member of the closed kind enum.
func ValidKind(k Kind) bool {
	return k == KindMusic || k == KindMessage
}

// Source records where an entry came from.
type Source string

const (
	SourceCatalog     Source = "catalog"
	SourceFallback    Source = "fallback"
	SourceSynthesized Source = "synthesized"
)

// Duration defaults in seconds. Message durations are estimates until the
// voice renderer produces real audio; fallback music uses a generic length.
const (
	DefaultTrackDurationSeconds   = 180
	MessageDurationEstimateSeconds = 12
)

// Entry is one item in a station's playback sequence. Array order is
// playback order; there is no position field.
type Entry struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Artist          string    `json:"artist,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	PlayURL         string    `json:"play_url"`
	Genre           string    `json:"genre,omitempty"`
	Source          Source    `json:"source,omitempty"`
	AddedAt         time.Time `json:"added_at"`
}

// EffectiveDuration returns the duration used by optimization arithmetic.
// Unknown durations (zero or negative) count as the conservative default;
// the stored value is never rewritten.
func (e Entry) EffectiveDuration() float64 {
	if e.DurationSeconds <= 0 {
		return DefaultTrackDurationSeconds
	}
	return e.DurationSeconds
}

// Genres splits the comma separated genre string into trimmed tags.
func (e Entry) Genres() []string {
	if strings.TrimSpace(e.Genre) == "" {
		return nil
	}
	parts := strings.Split(e.Genre, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Slot is an abstract, not-yet-playable instruction for one future playlist
// position, as produced by the slot generator.
type Slot struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// Track is a concrete catalog track as returned by the media catalog.
type Track struct {
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayURL         string  `json:"play_url"`
	Genre           string  `json:"genre,omitempty"`
}

func clonePlaylist(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
