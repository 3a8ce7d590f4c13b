/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package slotgen produces the playlist slot sequence for a station: which
// positions are music and what the DJ says in between. The HTTP client talks
// to an external generation service; the local generator is a deterministic
// stand-in used when no service is configured.
package slotgen

import (
	"context"
	"errors"

	"github.com/friendsincode/dialwave/internal/playlist"
)

// Request describes the station context a generator works from.
type Request struct {
	StationName  string `json:"station_name"`
	ThemeText    string `json:"theme_text"`
	PersonaName  string `json:"persona_name"`
	PersonaStyle string `json:"persona_style,omitempty"`
	MusicCount   int    `json:"music_count"`
	MessageCount int    `json:"message_count"`
}

// VoiceClip is a rendered spoken message.
type VoiceClip struct {
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ErrVoiceUnsupported is returned by generators that cannot render audio.
var ErrVoiceUnsupported = errors.New("slotgen: voice rendering not supported")

// Generator yields slot sequences and, where supported, spoken audio.
// Generation failures must be surfaced to the caller untouched; unlike the
// track catalog there is no sensible degraded output without slots.
type Generator interface {
	GenerateSlots(ctx context.Context, req Request) ([]playlist.Slot, error)
	RenderVoice(ctx context.Context, text, personaName string) (VoiceClip, error)
}
