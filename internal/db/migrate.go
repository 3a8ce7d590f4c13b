/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.DJPersona{},
		&models.Station{},
		&models.TuneEvent{},
	); err != nil {
		return err
	}

	if err := backfillEntrySources(database); err != nil {
		return err
	}

	return nil
}

// backfillEntrySources populates the source field for playlist entries
// written before provenance tracking existed.
func backfillEntrySources(database *gorm.DB) error {
	var stations []models.Station
	if err := database.Find(&stations).Error; err != nil {
		return fmt.Errorf("backfill entry sources query: %w", err)
	}

	for _, station := range stations {
		changed := false
		for idx, entry := range station.Playlist {
			if entry.Source != "" {
				continue
			}
			switch {
			case entry.Kind == playlist.KindMessage:
				station.Playlist[idx].Source = playlist.SourceSynthesized
			case entry.PlayURL != "":
				station.Playlist[idx].Source = playlist.SourceCatalog
			default:
				station.Playlist[idx].Source = playlist.SourceFallback
			}
			changed = true
		}
		if !changed {
			continue
		}
		if err := database.Model(&models.Station{}).
			Where("id = ?", station.ID).
			Update("playlist", station.Playlist).Error; err != nil {
			return fmt.Errorf("backfill entry sources update: %w", err)
		}
	}

	return nil
}
