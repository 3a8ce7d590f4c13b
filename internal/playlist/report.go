/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import "fmt"

// Stats are derived read-only playlist statistics.
type Stats struct {
	TotalTracks            int            `json:"total_tracks"`
	TotalDurationSeconds   float64        `json:"total_duration_seconds"`
	AverageDurationSeconds float64        `json:"average_duration_seconds"`
	KindCounts             KindCounts     `json:"kind_counts"`
	GenreCounts            map[string]int `json:"genre_counts"`
}

// KindCounts breaks entries down by kind.
type KindCounts struct {
	Music   int `json:"music"`
	Message int `json:"message"`
}

// ComputeStats derives statistics from the playlist. The empty playlist
// yields all-zero numbers and an empty genre map.
func ComputeStats(entries []Entry) Stats {
	stats := Stats{GenreCounts: map[string]int{}}
	for _, entry := range entries {
		stats.TotalTracks++
		stats.TotalDurationSeconds += entry.DurationSeconds
		switch entry.Kind {
		case KindMessage:
			stats.KindCounts.Message++
		default:
			stats.KindCounts.Music++
		}
		for _, tag := range entry.Genres() {
			stats.GenreCounts[tag]++
		}
	}
	if stats.TotalTracks > 0 {
		stats.AverageDurationSeconds = stats.TotalDurationSeconds / float64(stats.TotalTracks)
	}
	return stats
}

// Severity classifies validation issues.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Validation is the result of validating a playlist. IsValid is false iff
// at least one error-severity issue exists; warnings never flip validity.
type Validation struct {
	IsValid         bool     `json:"is_valid"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// Thresholds for validation rules.
const (
	minMusicRatio       = 0.3
	maxMusicRatio       = 0.95
	minRecommendedCount = 10
	minRecommendedTotal = 30 * 60 // seconds
)

// Validate checks playlist health. Music entries must be playable; message
// entries may legitimately have no play URL while voice synthesis is
// pending.
func Validate(entries []Entry) Validation {
	report := Validation{IsValid: true}

	if len(entries) == 0 {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Message:  "playlist is empty",
		})
		report.Recommendations = append(report.Recommendations, "generate a playlist from a template to get the station on air")
		return report
	}

	unplayable := 0
	for _, entry := range entries {
		if entry.Kind == KindMusic && entry.PlayURL == "" {
			unplayable++
		}
	}
	if unplayable > 0 {
		report.IsValid = false
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("%d music entries have no play URL", unplayable),
		})
	}

	stats := ComputeStats(entries)
	musicRatio := float64(stats.KindCounts.Music) / float64(stats.TotalTracks)
	if musicRatio < minMusicRatio {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("music share is %.0f%%, listeners expect mostly music", musicRatio*100),
		})
		report.Recommendations = append(report.Recommendations, "trim messages with the optimizer's target message ratio")
	} else if musicRatio > maxMusicRatio {
		report.Issues = append(report.Issues, Issue{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("music share is %.0f%%, the DJ is nearly silent", musicRatio*100),
		})
		report.Recommendations = append(report.Recommendations, "regenerate with a higher message ratio to give the station a voice")
	}

	if stats.TotalTracks < minRecommendedCount {
		report.Recommendations = append(report.Recommendations, fmt.Sprintf("only %d entries; short playlists loop noticeably", stats.TotalTracks))
	}
	if stats.TotalDurationSeconds < minRecommendedTotal {
		report.Recommendations = append(report.Recommendations, "total running time is under 30 minutes")
	}

	return report
}
