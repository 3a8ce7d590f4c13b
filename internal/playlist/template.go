/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import "math"

// Template is a named composition preset. The registry is fixed; there are
// no user-authored templates.
type Template struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Description            string  `json:"description"`
	TotalTracks            int     `json:"total_tracks"`
	MessageRatio           float64 `json:"message_ratio"`
	AverageDurationSeconds float64 `json:"average_duration_seconds"`
}

var templates = []Template{
	{
		ID:                     "classic",
		Name:                   "Classic Mix",
		Description:            "Mostly music with the occasional DJ break.",
		TotalTracks:            20,
		MessageRatio:           0.2,
		AverageDurationSeconds: 210,
	},
	{
		ID:                     "news",
		Name:                   "News Hour",
		Description:            "Talk-heavy rotation with short musical bridges.",
		TotalTracks:            15,
		MessageRatio:           0.6,
		AverageDurationSeconds: 120,
	},
	{
		ID:                     "marathon",
		Name:                   "Music Marathon",
		Description:            "Back-to-back music, DJ interruptions kept rare.",
		TotalTracks:            30,
		MessageRatio:           0.1,
		AverageDurationSeconds: 240,
	},
	{
		ID:                     "balanced",
		Name:                   "Balanced Rotation",
		Description:            "A steady blend of tracks and DJ chatter.",
		TotalTracks:            20,
		MessageRatio:           0.3,
		AverageDurationSeconds: 180,
	},
}

// Templates returns the fixed preset registry.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// TemplateByID looks up a preset by id.
func TemplateByID(id string) (Template, bool) {
	for _, tpl := range templates {
		if tpl.ID == id {
			return tpl, true
		}
	}
	return Template{}, false
}

// SlotPlan is a template expanded into concrete slot counts.
type SlotPlan struct {
	MusicCount   int `json:"music_count"`
	MessageCount int `json:"message_count"`
}

// Expand turns the template into slot counts with deterministic rounding:
// messages get round(total * ratio), music the remainder.
func (t Template) Expand() SlotPlan {
	messages := int(math.Round(float64(t.TotalTracks) * t.MessageRatio))
	if messages < 0 {
		messages = 0
	}
	if messages > t.TotalTracks {
		messages = t.TotalTracks
	}
	return SlotPlan{
		MusicCount:   t.TotalTracks - messages,
		MessageCount: messages,
	}
}
