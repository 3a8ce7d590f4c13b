/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"fmt"
	"testing"
	"time"
)

func musicEntry(id, title, artist string, duration float64) Entry {
	return Entry{
		ID:              id,
		Kind:            KindMusic,
		Title:           title,
		Content:         title,
		Artist:          artist,
		DurationSeconds: duration,
		PlayURL:         "https://catalog.example/" + id,
		AddedAt:         time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func messageEntry(id string, addedAt time.Time) Entry {
	return Entry{
		ID:              id,
		Kind:            KindMessage,
		Title:           "Message from Ray",
		Content:         "dj chatter",
		Artist:          "Ray",
		DurationSeconds: MessageDurationEstimateSeconds,
		AddedAt:         addedAt,
	}
}

func TestOptimizeRemoveDuplicates(t *testing.T) {
	entries := []Entry{
		musicEntry("a", "Song A", "Artist", 180),
		musicEntry("b", "Song A", "Artist", 180),
		musicEntry("c", "Song B", "Artist", 180),
		musicEntry("d", "song a", "ARTIST", 180),
		musicEntry("e", "Song C", "Artist", 180),
	}

	result := Optimize(entries, OptimizeOptions{RemoveDuplicates: true})
	if len(result.Playlist) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Playlist))
	}
	if result.Playlist[0].ID != "a" {
		t.Errorf("first occurrence should be kept, got %s", result.Playlist[0].ID)
	}
	if !result.Changed {
		t.Error("expected changed=true")
	}

	// Dedup is idempotent: a second pass removes nothing.
	second := Optimize(result.Playlist, OptimizeOptions{RemoveDuplicates: true})
	if len(second.Playlist) != 3 {
		t.Fatalf("second pass removed entries: %d", len(second.Playlist))
	}
	if second.Changed {
		t.Error("second pass should report changed=false")
	}
}

func TestOptimizeMessageRatioRemovesOldest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, messageEntry(fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	entries = append(entries,
		musicEntry("s1", "Song 1", "A", 180),
		musicEntry("s2", "Song 2", "B", 180),
	)

	ratio := 0.3
	result := Optimize(entries, OptimizeOptions{TargetMessageRatio: &ratio})

	stats := ComputeStats(result.Playlist)
	if stats.KindCounts.Message != 3 {
		t.Fatalf("got %d messages, want 3", stats.KindCounts.Message)
	}
	if stats.KindCounts.Music != 2 {
		t.Fatalf("music entries must be untouched, got %d", stats.KindCounts.Music)
	}
	// The five oldest messages (m0..m4) are gone.
	for _, entry := range result.Playlist {
		for i := 0; i < 5; i++ {
			if entry.ID == fmt.Sprintf("m%d", i) {
				t.Errorf("oldest message %s should have been removed", entry.ID)
			}
		}
	}
}

func TestOptimizeMessageRatioUnderTargetIsNoop(t *testing.T) {
	entries := []Entry{
		musicEntry("s1", "Song 1", "A", 180),
		musicEntry("s2", "Song 2", "B", 180),
		messageEntry("m1", time.Now()),
	}
	ratio := 0.5
	result := Optimize(entries, OptimizeOptions{TargetMessageRatio: &ratio})
	if len(result.Playlist) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Playlist))
	}
	if result.Changed {
		t.Error("under-target ratio should be a no-op")
	}
}

func TestOptimizeBalancesShortRun(t *testing.T) {
	entries := []Entry{
		musicEntry("s1", "Short 1", "A", 30),
		musicEntry("s2", "Short 2", "B", 40),
		musicEntry("s3", "Short 3", "C", 50),
		musicEntry("l1", "Long 1", "D", 400),
		musicEntry("n1", "Normal", "E", 180),
	}

	result := Optimize(entries, OptimizeOptions{BalanceRuns: true})
	if !result.Changed {
		t.Fatal("expected a swap")
	}
	// The long entry should now sit in the middle of the former run.
	if result.Playlist[1].ID != "l1" {
		t.Errorf("middle of run = %s, want l1", result.Playlist[1].ID)
	}
	// Swap, not insert: same multiset of ids.
	if len(result.Playlist) != 5 {
		t.Fatalf("got %d entries, want 5", len(result.Playlist))
	}
}

func TestOptimizeLeavesUnfixableRunAlone(t *testing.T) {
	entries := []Entry{
		musicEntry("s1", "Short 1", "A", 30),
		musicEntry("s2", "Short 2", "B", 40),
		musicEntry("s3", "Short 3", "C", 50),
	}
	result := Optimize(entries, OptimizeOptions{BalanceRuns: true})
	if result.Changed {
		t.Error("no contrasting entry exists, run should be left as-is")
	}
	for idx, id := range []string{"s1", "s2", "s3"} {
		if result.Playlist[idx].ID != id {
			t.Errorf("order disturbed at %d: %s", idx, result.Playlist[idx].ID)
		}
	}
}

func TestOptimizeBreaksMessageRun(t *testing.T) {
	now := time.Now()
	entries := []Entry{
		messageEntry("m1", now),
		messageEntry("m2", now),
		messageEntry("m3", now),
		musicEntry("s1", "Song", "A", 180),
	}
	result := Optimize(entries, OptimizeOptions{BalanceRuns: true})
	if !result.Changed {
		t.Fatal("expected a swap")
	}
	if result.Playlist[1].Kind != KindMusic {
		t.Errorf("middle of message run should now be music, got %s", result.Playlist[1].Kind)
	}
}

func TestOptimizeDurationCapDropsLongestFirst(t *testing.T) {
	entries := []Entry{
		musicEntry("a", "Song A", "A", 100),
		musicEntry("b", "Song B", "B", 500),
		musicEntry("c", "Song C", "C", 200),
		musicEntry("d", "Song D", "D", 300),
	}
	maxDur := 650.0
	result := Optimize(entries, OptimizeOptions{MaxTotalDurationSeconds: &maxDur})

	// 1100 total; dropping b (500) lands at 600, under the cap.
	if len(result.Playlist) != 3 {
		t.Fatalf("got %d entries, want 3", len(result.Playlist))
	}
	for _, entry := range result.Playlist {
		if entry.ID == "b" {
			t.Error("longest entry should have been removed first")
		}
	}
}

func TestOptimizeDurationCapUsesDefaultForUnknown(t *testing.T) {
	unknown := musicEntry("u", "Unknown", "A", 0)
	entries := []Entry{unknown, musicEntry("a", "Song A", "A", 100)}
	maxDur := 200.0
	result := Optimize(entries, OptimizeOptions{MaxTotalDurationSeconds: &maxDur})

	// Unknown counts as 180 for the calculation, so it is the longest.
	if len(result.Playlist) != 1 || result.Playlist[0].ID != "a" {
		t.Fatalf("unexpected playlist %+v", result.Playlist)
	}
	// Stored value is not rewritten.
	if unknown.DurationSeconds != 0 {
		t.Error("input entry mutated")
	}
}

func TestOptimizePadsToTarget(t *testing.T) {
	entries := []Entry{musicEntry("a", "Song A", "A", 100)}
	target := 400.0
	result := Optimize(entries, OptimizeOptions{TargetTotalDurationSeconds: &target})

	total := 0.0
	for _, entry := range result.Playlist {
		total += entry.EffectiveDuration()
	}
	if total < target {
		t.Fatalf("total %v still under target %v", total, target)
	}
	if len(result.Playlist) == 1 {
		t.Fatal("expected filler entries")
	}
	for _, entry := range result.Playlist[1:] {
		if entry.Source != SourceSynthesized {
			t.Errorf("filler source = %s", entry.Source)
		}
	}
}

func TestOptimizeSortByDurationWinsLast(t *testing.T) {
	entries := []Entry{
		musicEntry("a", "Song A", "A", 300),
		musicEntry("b", "Song B", "B", 100),
		musicEntry("c", "Song C", "C", 200),
	}
	result := Optimize(entries, OptimizeOptions{SortByDuration: true, BalanceRuns: true})
	want := []string{"b", "c", "a"}
	for idx, id := range want {
		if result.Playlist[idx].ID != id {
			t.Errorf("position %d = %s, want %s", idx, result.Playlist[idx].ID, id)
		}
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	entries := []Entry{
		musicEntry("a", "Song A", "A", 300),
		musicEntry("b", "Song A", "A", 300),
	}
	_ = Optimize(entries, OptimizeOptions{RemoveDuplicates: true, SortByDuration: true})
	if len(entries) != 2 || entries[0].ID != "a" || entries[1].ID != "b" {
		t.Fatal("input slice was mutated")
	}
}
