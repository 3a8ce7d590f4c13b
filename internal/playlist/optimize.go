/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Duration-run thresholds in seconds. Three consecutive entries under the
// short threshold (or over the long one) count as a run worth breaking up.
const (
	shortRunThresholdSeconds = 60
	longRunThresholdSeconds  = 300
	swapSearchWindow         = 5
)

// Filler entries appended when padding toward a target duration.
const (
	fillerMusicTitle      = "Interlude Loop"
	fillerMusicDuration   = 60
	fillerMessageTitle    = "Station break"
	fillerMessageContent  = "You're listening to DialWave. Back after this."
	fillerMessageDuration = 15
	maxFillerEntries      = 500
)

// OptimizeOptions toggle the individual optimization sub-steps. Steps run
// in a fixed order: dedup, ratio correction, run balancing, duration
// targeting, sort. Sort runs last and therefore wins over run balancing.
type OptimizeOptions struct {
	RemoveDuplicates           bool     `json:"remove_duplicates"`
	TargetMessageRatio         *float64 `json:"target_message_ratio,omitempty"`
	MaxTotalDurationSeconds    *float64 `json:"max_total_duration_seconds,omitempty"`
	TargetTotalDurationSeconds *float64 `json:"target_total_duration_seconds,omitempty"`
	BalanceRuns                bool     `json:"balance_runs"`
	SortByDuration             bool     `json:"sort_by_duration"`
}

// OptimizeResult carries the new sequence plus notes describing what each
// step did or could not do. Optimize never fails.
type OptimizeResult struct {
	Playlist []Entry  `json:"playlist"`
	Changed  bool     `json:"changed"`
	Notes    []string `json:"notes"`
}

// Optimize applies the requested sub-steps to a copy of entries. The run
// balancing heuristics are deliberately single forward passes with a
// bounded search window, not fixed-point loops; a second call may make
// further small swaps.
func Optimize(entries []Entry, opts OptimizeOptions) OptimizeResult {
	result := OptimizeResult{Playlist: clonePlaylist(entries)}

	if opts.RemoveDuplicates {
		playlist, removed := removeDuplicates(result.Playlist)
		result.Playlist = playlist
		if removed > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("dedup_removed:%d", removed))
		}
	}

	if opts.TargetMessageRatio != nil {
		playlist, removed := trimMessagesToRatio(result.Playlist, *opts.TargetMessageRatio)
		result.Playlist = playlist
		if removed > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("messages_trimmed:%d", removed))
		}
	}

	if opts.BalanceRuns {
		playlist, swaps := balanceDurationRuns(result.Playlist)
		result.Playlist = playlist
		if swaps > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("duration_runs_swapped:%d", swaps))
		}

		playlist, swaps = breakMessageRuns(result.Playlist)
		result.Playlist = playlist
		if swaps > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("message_runs_swapped:%d", swaps))
		}
	}

	if opts.MaxTotalDurationSeconds != nil {
		playlist, removed := trimToDurationCap(result.Playlist, *opts.MaxTotalDurationSeconds)
		result.Playlist = playlist
		if removed > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("over_cap_removed:%d", removed))
		}
	}

	if opts.TargetTotalDurationSeconds != nil {
		playlist, added := padToDurationTarget(result.Playlist, *opts.TargetTotalDurationSeconds, opts.TargetMessageRatio)
		result.Playlist = playlist
		if added > 0 {
			result.Changed = true
			result.Notes = append(result.Notes, fmt.Sprintf("filler_added:%d", added))
		}
	}

	if opts.SortByDuration {
		before := idOrder(result.Playlist)
		sort.SliceStable(result.Playlist, func(i, j int) bool {
			return result.Playlist[i].DurationSeconds < result.Playlist[j].DurationSeconds
		})
		if before != idOrder(result.Playlist) {
			result.Changed = true
		}
		result.Notes = append(result.Notes, "sorted_by_duration")
	}

	return result
}

// removeDuplicates keeps the first occurrence in playback order. Two
// entries are duplicates iff kind, lowercased title, and lowercased artist
// all match.
func removeDuplicates(entries []Entry) ([]Entry, int) {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0:0]
	removed := 0
	for _, entry := range entries {
		key := string(entry.Kind) + "\x00" + strings.ToLower(entry.Title) + "\x00" + strings.ToLower(entry.Artist)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out, removed
}

// trimMessagesToRatio removes the oldest excess messages until the message
// share meets the target. The allowance is computed against the playlist
// length before removal. Music entries are never touched; an under-target
// playlist is left alone (adding messages is a composition concern).
func trimMessagesToRatio(entries []Entry, targetRatio float64) ([]Entry, int) {
	total := len(entries)
	if total == 0 {
		return entries, 0
	}

	type msgRef struct {
		idx     int
		addedAt time.Time
	}
	var messages []msgRef
	for idx, entry := range entries {
		if entry.Kind == KindMessage {
			messages = append(messages, msgRef{idx: idx, addedAt: entry.AddedAt})
		}
	}

	allowed := int(math.Round(float64(total) * targetRatio))
	if allowed < 0 {
		allowed = 0
	}
	excess := len(messages) - allowed
	if excess <= 0 {
		return entries, 0
	}

	// Oldest first; index order breaks timestamp ties deterministically.
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].addedAt.Equal(messages[j].addedAt) {
			return messages[i].idx < messages[j].idx
		}
		return messages[i].addedAt.Before(messages[j].addedAt)
	})

	drop := make(map[int]struct{}, excess)
	for _, ref := range messages[:excess] {
		drop[ref.idx] = struct{}{}
	}

	out := make([]Entry, 0, total-excess)
	for idx, entry := range entries {
		if _, gone := drop[idx]; gone {
			continue
		}
		out = append(out, entry)
	}
	return out, excess
}

// balanceDurationRuns makes one forward pass looking for three consecutive
// all-short or all-long entries and swaps a contrasting entry into the
// middle position when one exists within the search window. Best effort: a
// run with no contrasting neighbour is left as-is.
func balanceDurationRuns(entries []Entry) ([]Entry, int) {
	swaps := 0
	for i := 0; i+2 < len(entries); {
		d0 := entries[i].EffectiveDuration()
		d1 := entries[i+1].EffectiveDuration()
		d2 := entries[i+2].EffectiveDuration()

		allShort := d0 < shortRunThresholdSeconds && d1 < shortRunThresholdSeconds && d2 < shortRunThresholdSeconds
		allLong := d0 > longRunThresholdSeconds && d1 > longRunThresholdSeconds && d2 > longRunThresholdSeconds
		if !allShort && !allLong {
			i++
			continue
		}

		j := findInWindow(entries, i, func(candidate Entry) bool {
			d := candidate.EffectiveDuration()
			if allShort {
				return d > longRunThresholdSeconds
			}
			return d < shortRunThresholdSeconds
		})
		if j >= 0 {
			entries[i+1], entries[j] = entries[j], entries[i+1]
			swaps++
		}
		i += 3
	}
	return entries, swaps
}

// breakMessageRuns makes one forward pass swapping the middle of any three
// consecutive message entries with the nearest music entry in the window.
func breakMessageRuns(entries []Entry) ([]Entry, int) {
	swaps := 0
	for i := 0; i+2 < len(entries); {
		if entries[i].Kind != KindMessage || entries[i+1].Kind != KindMessage || entries[i+2].Kind != KindMessage {
			i++
			continue
		}

		j := findInWindow(entries, i, func(candidate Entry) bool {
			return candidate.Kind == KindMusic
		})
		if j >= 0 {
			entries[i+1], entries[j] = entries[j], entries[i+1]
			swaps++
		}
		i += 3
	}
	return entries, swaps
}

// findInWindow returns the index of the entry nearest to the middle of the
// triple starting at i that satisfies match, searching up to
// swapSearchWindow positions either side and skipping the triple itself.
// Returns -1 when nothing matches.
func findInWindow(entries []Entry, i int, match func(Entry) bool) int {
	middle := i + 1
	for dist := 1; dist <= swapSearchWindow+1; dist++ {
		for _, j := range []int{middle - dist, middle + dist} {
			if j < 0 || j >= len(entries) {
				continue
			}
			if j >= i && j <= i+2 {
				continue
			}
			if match(entries[j]) {
				return j
			}
		}
	}
	return -1
}

// trimToDurationCap removes the longest entries first, independent of
// position, until the total effective duration fits under the cap.
func trimToDurationCap(entries []Entry, capSeconds float64) ([]Entry, int) {
	total := 0.0
	for _, entry := range entries {
		total += entry.EffectiveDuration()
	}

	removed := 0
	for total > capSeconds && len(entries) > 0 {
		longest := 0
		for idx := 1; idx < len(entries); idx++ {
			if entries[idx].EffectiveDuration() > entries[longest].EffectiveDuration() {
				longest = idx
			}
		}
		total -= entries[longest].EffectiveDuration()
		entries = append(entries[:longest], entries[longest+1:]...)
		removed++
	}
	return entries, removed
}

// padToDurationTarget appends short synthesized filler until the total
// effective duration reaches the target, picking message fillers only while
// that keeps the message share at or under the target ratio.
func padToDurationTarget(entries []Entry, targetSeconds float64, targetRatio *float64) ([]Entry, int) {
	total := 0.0
	msgCount := 0
	for _, entry := range entries {
		total += entry.EffectiveDuration()
		if entry.Kind == KindMessage {
			msgCount++
		}
	}

	ratio := 0.2
	if targetRatio != nil {
		ratio = *targetRatio
	}

	now := time.Now().UTC()
	added := 0
	for total < targetSeconds && added < maxFillerEntries {
		var filler Entry
		if float64(msgCount+1)/float64(len(entries)+1) <= ratio {
			filler = Entry{
				ID:              NextID("filler", added),
				Kind:            KindMessage,
				Title:           fillerMessageTitle,
				Content:         fillerMessageContent,
				DurationSeconds: fillerMessageDuration,
				Source:          SourceSynthesized,
				AddedAt:         now,
			}
			msgCount++
		} else {
			filler = Entry{
				ID:              NextID("filler", added),
				Kind:            KindMusic,
				Title:           fillerMusicTitle,
				Content:         fillerMusicTitle,
				Artist:          fallbackArtist,
				DurationSeconds: fillerMusicDuration,
				Source:          SourceSynthesized,
				AddedAt:         now,
			}
		}
		entries = append(entries, filler)
		total += filler.DurationSeconds
		added++
	}
	return entries, added
}

func idOrder(entries []Entry) string {
	order := ""
	for _, entry := range entries {
		order += entry.ID + ","
	}
	return order
}
