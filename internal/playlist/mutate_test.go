/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func samplePlaylist() []Entry {
	return []Entry{
		musicEntry("a", "Song A", "Artist A", 180),
		musicEntry("b", "Song B", "Artist B", 200),
		musicEntry("c", "Song C", "Artist C", 220),
		musicEntry("d", "Song D", "Artist D", 240),
		musicEntry("e", "Song E", "Artist E", 260),
	}
}

func TestReorderPermutation(t *testing.T) {
	entries := samplePlaylist()
	out, err := Reorder(entries, []string{"c", "a", "e", "b", "d"})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	want := []string{"c", "a", "e", "b", "d"}
	for idx, id := range want {
		if out[idx].ID != id {
			t.Errorf("position %d = %s, want %s", idx, out[idx].ID, id)
		}
	}
	if len(out) != len(entries) {
		t.Fatalf("entry count changed: %d", len(out))
	}
}

func TestReorderMismatch(t *testing.T) {
	entries := samplePlaylist()
	tests := []struct {
		name    string
		idOrder []string
	}{
		{"unknown id", []string{"a", "b", "c", "d", "zzz"}},
		{"missing id", []string{"a", "b", "c", "d"}},
		{"repeated id", []string{"a", "a", "c", "d", "e"}},
		{"extra id", []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Reorder(entries, tt.idOrder); !errors.Is(err, ErrOrderMismatch) {
				t.Fatalf("err = %v, want ErrOrderMismatch", err)
			}
		})
	}
}

func TestRemoveManyIgnoresUnknownIDs(t *testing.T) {
	entries := samplePlaylist()
	out := RemoveMany(entries, []string{"id-that-does-not-exist"})
	if len(out) != 5 {
		t.Fatalf("got %d entries, want 5", len(out))
	}

	out = RemoveMany(entries, []string{"b", "d", "nope"})
	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3", len(out))
	}
	for _, entry := range out {
		if entry.ID == "b" || entry.ID == "d" {
			t.Errorf("entry %s should be gone", entry.ID)
		}
	}
}

func TestDuplicatePreservesOriginal(t *testing.T) {
	entries := samplePlaylist()
	out, dup, err := Duplicate(entries, "b", nil)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("got %d entries, want 6", len(out))
	}
	if out[5].ID != dup.ID {
		t.Errorf("copy should be appended, last id = %s", out[5].ID)
	}
	if dup.ID == "b" {
		t.Error("copy must have a fresh id")
	}
	if !strings.HasSuffix(dup.Title, copySuffix) {
		t.Errorf("copy title = %q", dup.Title)
	}
	if strings.TrimSuffix(dup.Title, copySuffix) != "Song B" {
		t.Errorf("copy title base = %q", dup.Title)
	}
	if dup.Kind != KindMusic || dup.Artist != "Artist B" || dup.DurationSeconds != 200 {
		t.Errorf("copy fields diverged: %+v", dup)
	}

	// Original untouched.
	if out[1].ID != "b" || out[1].Title != "Song B" {
		t.Errorf("original entry changed: %+v", out[1])
	}
}

func TestDuplicateInsertPositionClamped(t *testing.T) {
	entries := samplePlaylist()
	tests := []struct {
		name     string
		insertAt int
		wantIdx  int
	}{
		{"head", 0, 0},
		{"middle", 2, 2},
		{"past end", 99, 5},
		{"negative", -4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, dup, err := Duplicate(entries, "a", &tt.insertAt)
			if err != nil {
				t.Fatalf("duplicate: %v", err)
			}
			if out[tt.wantIdx].ID != dup.ID {
				t.Errorf("copy at %d, want %d", indexOf(out, dup.ID), tt.wantIdx)
			}
		})
	}
}

func TestDuplicateNotFound(t *testing.T) {
	if _, _, err := Duplicate(samplePlaylist(), "missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	entries := samplePlaylist()
	entries[2].Kind = KindMessage
	snap := ExportSnapshot(entries, true)

	if snap.Version != SnapshotVersion {
		t.Errorf("version = %q", snap.Version)
	}
	if snap.Metadata == nil || snap.Metadata.TrackCount != 5 {
		t.Fatalf("metadata = %+v", snap.Metadata)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	report, err := ImportSnapshot(raw, ImportReplace, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Playlist) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(report.Playlist), len(entries))
	}
	for idx, entry := range report.Playlist {
		if entry.Kind != entries[idx].Kind {
			t.Errorf("entry %d kind = %s, want %s", idx, entry.Kind, entries[idx].Kind)
		}
		if entry.DurationSeconds != entries[idx].DurationSeconds {
			t.Errorf("entry %d duration = %v, want %v", idx, entry.DurationSeconds, entries[idx].DurationSeconds)
		}
		if entry.ID == entries[idx].ID {
			t.Errorf("entry %d kept its exported id", idx)
		}
	}
}

func TestImportDropsInvalidRows(t *testing.T) {
	raw := []byte(`{"version":"1.0","playlist":[
		{"kind":"music","title":"Good","duration_seconds":180,"play_url":"https://x/1"},
		{"kind":"podcast","title":"Bad kind","duration_seconds":180},
		{"kind":"music","title":"","duration_seconds":180},
		{"kind":"message","title":"Also good","duration_seconds":12},
		{"kind":"music","title":"Zero length","duration_seconds":0}
	]}`)

	existing := []Entry{musicEntry("keep", "Kept", "K", 100)}
	report, err := ImportSnapshot(raw, ImportAppend, existing)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if report.Accepted != 2 || report.Rejected != 3 {
		t.Fatalf("accepted=%d rejected=%d", report.Accepted, report.Rejected)
	}
	if len(report.Playlist) != 3 {
		t.Fatalf("got %d entries, want 3", len(report.Playlist))
	}
	if report.Playlist[0].ID != "keep" {
		t.Errorf("append mode must keep existing entries first")
	}
	// Content defaults to title when absent.
	if report.Playlist[1].Content != "Good" {
		t.Errorf("content = %q, want title default", report.Playlist[1].Content)
	}
}

func TestImportFailsWhenNothingValid(t *testing.T) {
	raw := []byte(`{"playlist":[{"kind":"music","title":"","duration_seconds":-1}]}`)
	_, err := ImportSnapshot(raw, ImportReplace, nil)
	if !errors.Is(err, ErrNoValidEntries) {
		t.Fatalf("err = %v, want ErrNoValidEntries", err)
	}
}

func TestImportRejectsUnsupportedVersion(t *testing.T) {
	raw := []byte(`{"version":"2.0","playlist":[{"kind":"music","title":"X","duration_seconds":100}]}`)
	_, err := ImportSnapshot(raw, ImportReplace, nil)
	if !errors.Is(err, ErrNoValidEntries) {
		t.Fatalf("err = %v, want ErrNoValidEntries", err)
	}
}

func TestImportAcceptsBareArray(t *testing.T) {
	raw := []byte(`[{"kind":"music","title":"Solo","duration_seconds":90,"play_url":"https://x/solo"}]`)
	report, err := ImportSnapshot(raw, ImportReplace, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(report.Playlist) != 1 || report.Playlist[0].Title != "Solo" {
		t.Fatalf("playlist = %+v", report.Playlist)
	}
}

func indexOf(entries []Entry, id string) int {
	for idx, entry := range entries {
		if entry.ID == id {
			return idx
		}
	}
	return -1
}
