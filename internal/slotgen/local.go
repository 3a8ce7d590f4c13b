/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package slotgen

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/friendsincode/dialwave/internal/playlist"
)

// Local is a deterministic generator used when no external service is
// configured. The same request always yields the same slots, which keeps
// seeded environments and tests reproducible.
type Local struct{}

// NewLocal creates the built-in generator.
func NewLocal() *Local {
	return &Local{}
}

var messagePhrases = []string{
	"You're listening to %s. %s",
	"This is %s, keeping you company. %s",
	"Stay tuned to %s. %s",
	"%s, all day and all night. %s",
	"More coming up right here on %s. %s",
}

// GenerateSlots spreads messages evenly between music slots. Message content
// is derived from the station name and theme via a stable hash.
func (l *Local) GenerateSlots(ctx context.Context, req Request) ([]playlist.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	total := req.MusicCount + req.MessageCount
	if total <= 0 {
		return nil, fmt.Errorf("nothing to generate: %d music, %d messages", req.MusicCount, req.MessageCount)
	}

	// Messages land at evenly spaced positions so no run of DJ chatter
	// forms in the first place.
	messageAt := map[int]bool{}
	if req.MessageCount > 0 {
		stride := float64(total) / float64(req.MessageCount+1)
		for i := 1; i <= req.MessageCount; i++ {
			pos := int(stride * float64(i))
			for messageAt[pos] && pos < total-1 {
				pos++
			}
			messageAt[pos] = true
		}
	}

	slots := make([]playlist.Slot, 0, total)
	msgIdx := 0
	for pos := 0; pos < total; pos++ {
		if messageAt[pos] && msgIdx < req.MessageCount {
			slots = append(slots, playlist.Slot{
				Kind:    playlist.KindMessage,
				Content: l.messageContent(req, msgIdx),
			})
			msgIdx++
			continue
		}
		slots = append(slots, playlist.Slot{Kind: playlist.KindMusic})
	}
	return slots, nil
}

func (l *Local) messageContent(req Request, idx int) string {
	name := req.StationName
	if name == "" {
		name = "the station"
	}
	theme := strings.TrimSpace(req.ThemeText)
	if theme != "" && !strings.HasSuffix(theme, ".") {
		theme += "."
	}

	h := fnv.New32a()
	h.Write([]byte(req.StationName))
	h.Write([]byte{byte(idx)})
	phrase := messagePhrases[int(h.Sum32())%len(messagePhrases)]

	return strings.TrimSpace(fmt.Sprintf(phrase, name, theme))
}

// RenderVoice is not available without an external service.
func (l *Local) RenderVoice(ctx context.Context, text, personaName string) (VoiceClip, error) {
	return VoiceClip{}, ErrVoiceUnsupported
}
