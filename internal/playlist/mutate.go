/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SnapshotVersion is the export envelope version. Import accepts any 1.x.
const SnapshotVersion = "1.0"

const copySuffix = " (copy)"

var (
	// ErrOrderMismatch signals a reorder whose id set does not exactly
	// match the playlist's current id set.
	ErrOrderMismatch = errors.New("reorder id set does not match playlist")
	// ErrNotFound signals an operation against an id absent from the playlist.
	ErrNotFound = errors.New("playlist entry not found")
	// ErrNoValidEntries signals an import where validation rejected every row.
	ErrNoValidEntries = errors.New("import contained no valid entries")
)

// Reorder returns entries re-sequenced to match idOrder. All or nothing: a
// missing, unknown, or duplicated id fails the whole operation and the
// input playlist is returned unchanged in meaning (callers keep their own).
func Reorder(entries []Entry, idOrder []string) ([]Entry, error) {
	if len(idOrder) != len(entries) {
		return nil, fmt.Errorf("%w: got %d ids for %d entries", ErrOrderMismatch, len(idOrder), len(entries))
	}

	byID := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	out := make([]Entry, 0, len(entries))
	for _, id := range idOrder {
		entry, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown or repeated id %q", ErrOrderMismatch, id)
		}
		delete(byID, id)
		out = append(out, entry)
	}
	return out, nil
}

// RemoveMany filters out all entries whose id is in ids. Unknown ids are
// ignored; removing something already absent is not a failure.
func RemoveMany(entries []Entry, ids []string) []Entry {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if _, gone := drop[entry.ID]; gone {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Duplicate copies the entry with id, minting a fresh id and addedAt and
// suffixing the title, and inserts the copy at insertAt (clamped; nil
// appends). Returns the new playlist and the new entry.
func Duplicate(entries []Entry, id string, insertAt *int) ([]Entry, Entry, error) {
	srcIdx := -1
	for idx, entry := range entries {
		if entry.ID == id {
			srcIdx = idx
			break
		}
	}
	if srcIdx == -1 {
		return nil, Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	dup := entries[srcIdx]
	dup.ID = NextID("copy", srcIdx)
	dup.Title += copySuffix
	dup.AddedAt = time.Now().UTC()

	pos := len(entries)
	if insertAt != nil {
		pos = *insertAt
		if pos < 0 {
			pos = 0
		}
		if pos > len(entries) {
			pos = len(entries)
		}
	}

	out := make([]Entry, 0, len(entries)+1)
	out = append(out, entries[:pos]...)
	out = append(out, dup)
	out = append(out, entries[pos:]...)
	return out, dup, nil
}

// Snapshot is the serializable export envelope. Metadata is descriptive
// only and recomputed on export; import never trusts it.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Playlist   []Entry           `json:"playlist"`
	Metadata   *SnapshotMetadata `json:"metadata,omitempty"`
}

// SnapshotMetadata summarizes the exported playlist.
type SnapshotMetadata struct {
	TrackCount           int            `json:"track_count"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
	KindCounts           map[Kind]int   `json:"kind_counts"`
	GenreCounts          map[string]int `json:"genre_counts,omitempty"`
}

// ExportSnapshot builds a snapshot of the playlist, optionally with
// recomputed metadata.
func ExportSnapshot(entries []Entry, includeMetadata bool) Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Playlist:   clonePlaylist(entries),
	}
	if includeMetadata {
		stats := ComputeStats(entries)
		snap.Metadata = &SnapshotMetadata{
			TrackCount:           stats.TotalTracks,
			TotalDurationSeconds: stats.TotalDurationSeconds,
			KindCounts: map[Kind]int{
				KindMusic:   stats.KindCounts.Music,
				KindMessage: stats.KindCounts.Message,
			},
			GenreCounts: stats.GenreCounts,
		}
	}
	return snap
}

// ImportMode selects how imported entries combine with the existing playlist.
type ImportMode string

const (
	ImportAppend  ImportMode = "append"
	ImportReplace ImportMode = "replace"
)

// ImportReport describes the outcome of an import.
type ImportReport struct {
	Playlist []Entry  `json:"playlist"`
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Reasons  []string `json:"reasons,omitempty"`
}

// importedEntry is the permissive wire shape accepted by ImportSnapshot.
type importedEntry struct {
	Kind            Kind    `json:"kind"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Artist          string  `json:"artist"`
	DurationSeconds float64 `json:"duration_seconds"`
	PlayURL         string  `json:"play_url"`
	Genre           string  `json:"genre"`
}

// ImportSnapshot validates raw JSON (either a snapshot envelope or a bare
// entry array) and merges the valid rows into existing per mode. Invalid
// rows are dropped and counted, never fatal on their own; every accepted
// row gets a fresh id and addedAt so imported ids can never collide with
// existing ones. Fails only when zero valid rows remain.
func ImportSnapshot(raw []byte, mode ImportMode, existing []Entry) (ImportReport, error) {
	var report ImportReport

	rows, err := decodeImportRows(raw)
	if err != nil {
		return report, err
	}

	now := time.Now().UTC()
	rejected := map[string]int{}
	accepted := make([]Entry, 0, len(rows))
	for idx, row := range rows {
		if why := validateImportRow(row); why != "" {
			rejected[why]++
			continue
		}
		content := row.Content
		if content == "" {
			content = row.Title
		}
		accepted = append(accepted, Entry{
			ID:              NextID("import", idx),
			Kind:            row.Kind,
			Title:           row.Title,
			Content:         content,
			Artist:          row.Artist,
			DurationSeconds: row.DurationSeconds,
			PlayURL:         row.PlayURL,
			Genre:           row.Genre,
			Source:          SourceSynthesized,
			AddedAt:         now,
		})
	}

	report.Accepted = len(accepted)
	for why, count := range rejected {
		report.Rejected += count
		report.Reasons = append(report.Reasons, fmt.Sprintf("%s:%d", why, count))
	}
	sort.Strings(report.Reasons)

	if len(accepted) == 0 {
		return report, fmt.Errorf("%w: %d rows rejected (%s)", ErrNoValidEntries, report.Rejected, strings.Join(report.Reasons, ", "))
	}

	switch mode {
	case ImportReplace:
		report.Playlist = accepted
	default:
		report.Playlist = append(clonePlaylist(existing), accepted...)
	}
	return report, nil
}

func decodeImportRows(raw []byte) ([]importedEntry, error) {
	var envelope struct {
		Version  string          `json:"version"`
		Playlist []importedEntry `json:"playlist"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Playlist != nil {
		if envelope.Version != "" && !strings.HasPrefix(envelope.Version, "1.") {
			return nil, fmt.Errorf("%w: unsupported snapshot version %q", ErrNoValidEntries, envelope.Version)
		}
		return envelope.Playlist, nil
	}

	var rows []importedEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: malformed payload", ErrNoValidEntries)
	}
	return rows, nil
}

func validateImportRow(row importedEntry) string {
	if !ValidKind(row.Kind) {
		return "invalid_kind"
	}
	if strings.TrimSpace(row.Title) == "" {
		return "empty_title"
	}
	if row.DurationSeconds <= 0 {
		return "non_positive_duration"
	}
	return ""
}
