/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"strings"
	"testing"
	"time"
)

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.TotalTracks != 0 || stats.TotalDurationSeconds != 0 || stats.AverageDurationSeconds != 0 {
		t.Fatalf("empty stats = %+v", stats)
	}
	if stats.GenreCounts == nil || len(stats.GenreCounts) != 0 {
		t.Fatalf("genre counts = %v", stats.GenreCounts)
	}
}

func TestComputeStats(t *testing.T) {
	a := musicEntry("a", "Song A", "A", 100)
	a.Genre = "rock, pop"
	b := musicEntry("b", "Song B", "B", 200)
	b.Genre = "rock"
	entries := []Entry{a, b, messageEntry("m", time.Now())}

	stats := ComputeStats(entries)
	if stats.TotalTracks != 3 {
		t.Errorf("total = %d", stats.TotalTracks)
	}
	if stats.TotalDurationSeconds != 312 {
		t.Errorf("duration = %v", stats.TotalDurationSeconds)
	}
	if stats.AverageDurationSeconds != 104 {
		t.Errorf("average = %v", stats.AverageDurationSeconds)
	}
	if stats.KindCounts.Music != 2 || stats.KindCounts.Message != 1 {
		t.Errorf("kinds = %+v", stats.KindCounts)
	}
	if stats.GenreCounts["rock"] != 2 || stats.GenreCounts["pop"] != 1 {
		t.Errorf("genres = %v", stats.GenreCounts)
	}
}

func TestValidateEmptyPlaylist(t *testing.T) {
	report := Validate(nil)
	if !report.IsValid {
		t.Error("empty playlist is a warning, not an error")
	}
	if len(report.Issues) != 1 || report.Issues[0].Severity != SeverityWarning {
		t.Fatalf("issues = %+v", report.Issues)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected a recommendation")
	}
}

func TestValidateUnplayableMusic(t *testing.T) {
	broken := musicEntry("a", "Song A", "A", 180)
	broken.PlayURL = ""
	entries := []Entry{broken, musicEntry("b", "Song B", "B", 180)}

	report := Validate(entries)
	if report.IsValid {
		t.Fatal("unplayable music should invalidate the playlist")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Severity == SeverityError && strings.Contains(issue.Message, "1 music entries") {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %+v", report.Issues)
	}
}

func TestValidateMessagesWithoutURLAreFine(t *testing.T) {
	var entries []Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, musicEntry("s"+string(rune('0'+i)), "Song", "A", 200))
	}
	entries = append(entries, messageEntry("m1", time.Now()), messageEntry("m2", time.Now()))

	report := Validate(entries)
	if !report.IsValid {
		t.Fatalf("report = %+v", report)
	}
}

func TestValidateMusicRatioBounds(t *testing.T) {
	t.Run("too few music", func(t *testing.T) {
		entries := []Entry{
			musicEntry("s1", "Song", "A", 200),
			messageEntry("m1", time.Now()),
			messageEntry("m2", time.Now()),
			messageEntry("m3", time.Now()),
		}
		report := Validate(entries)
		if !report.IsValid {
			t.Error("ratio issues are warnings only")
		}
		if len(report.Issues) == 0 {
			t.Fatal("expected a ratio warning")
		}
	})

	t.Run("all music", func(t *testing.T) {
		var entries []Entry
		for i := 0; i < 25; i++ {
			entries = append(entries, musicEntry("s"+string(rune('a'+i)), "Song", "A", 200))
		}
		report := Validate(entries)
		if !report.IsValid {
			t.Error("ratio issues are warnings only")
		}
		found := false
		for _, issue := range report.Issues {
			if issue.Severity == SeverityWarning {
				found = true
			}
		}
		if !found {
			t.Fatalf("issues = %+v", report.Issues)
		}
	})
}

func TestValidateShortPlaylistRecommendations(t *testing.T) {
	entries := []Entry{
		musicEntry("a", "Song A", "A", 100),
		musicEntry("b", "Song B", "B", 100),
	}
	report := Validate(entries)
	if !report.IsValid {
		t.Fatal("short playlists are valid")
	}
	if len(report.Recommendations) < 2 {
		t.Fatalf("recommendations = %v", report.Recommendations)
	}
}
