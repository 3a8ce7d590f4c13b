/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/dialwave/internal/db"
	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/slotgen"
	"github.com/friendsincode/dialwave/internal/station"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database from a YAML fixture",
	Long: `Seed DialWave with personas and stations from a YAML file.

The fixture lists DJ personas and stations. Stations may reference a persona
by name and optionally name a playlist template; when they do, a playlist is
generated for them using the built-in deterministic slot generator.

Example fixture:

  personas:
    - name: Moon Ray
      style: smooth late night
      catchphrase: stay tuned, stay dreaming
  stations:
    - name: Night Owl FM
      frequency_mhz: 99.1
      theme_text: late night drives
      persona: Moon Ray
      template: classic
`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed.yaml", "Path to the YAML fixture")
	rootCmd.AddCommand(seedCmd)
}

type seedFixture struct {
	Personas []struct {
		Name        string `yaml:"name"`
		Style       string `yaml:"style"`
		VoiceID     string `yaml:"voice_id"`
		Catchphrase string `yaml:"catchphrase"`
	} `yaml:"personas"`
	Stations []struct {
		Name         string  `yaml:"name"`
		FrequencyMHz float64 `yaml:"frequency_mhz"`
		ThemeText    string  `yaml:"theme_text"`
		Persona      string  `yaml:"persona"`
		Template     string  `yaml:"template"`
	} `yaml:"stations"`
}

// seedCatalog serves nothing; seeded playlists fill with fallback entries
// unless a catalog service is wired up later.
type seedCatalog struct{}

func (seedCatalog) Sample(ctx context.Context, count int) ([]playlist.Track, error) {
	return nil, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fixture seedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() { _ = db.Close(database) }()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	composer := playlist.NewComposer(seedCatalog{}, logger)
	svc := station.NewService(database, events.NewBus(), nil, slotgen.NewLocal(), composer, logger)
	ctx := context.Background()

	personaIDs := map[string]string{}
	for _, p := range fixture.Personas {
		persona := &models.DJPersona{
			Name:        p.Name,
			Style:       p.Style,
			VoiceID:     p.VoiceID,
			Catchphrase: p.Catchphrase,
		}
		if err := svc.CreatePersona(ctx, persona); err != nil {
			return fmt.Errorf("create persona %q: %w", p.Name, err)
		}
		personaIDs[persona.Name] = persona.ID
		logger.Info().Str("persona", persona.Name).Msg("persona seeded")
	}

	for _, st := range fixture.Stations {
		if st.Persona != "" && personaIDs[st.Persona] == "" {
			return fmt.Errorf("station %q references unknown persona %q", st.Name, st.Persona)
		}
		created := &models.Station{
			Name:         st.Name,
			FrequencyMHz: st.FrequencyMHz,
			ThemeText:    st.ThemeText,
			DJPersonaID:  personaIDs[st.Persona],
		}
		if err := svc.CreateStation(ctx, created); err != nil {
			return fmt.Errorf("create station %q: %w", st.Name, err)
		}
		logger.Info().
			Str("station", created.Name).
			Float64("frequency", created.FrequencyMHz).
			Msg("station seeded")

		if st.Template != "" {
			result, err := svc.GeneratePlaylist(ctx, created.ID, station.GenerateOptions{TemplateID: st.Template})
			if err != nil {
				return fmt.Errorf("generate playlist for %q: %w", st.Name, err)
			}
			logger.Info().
				Str("station", created.Name).
				Str("template", st.Template).
				Int("entries", len(result.Station.Playlist)).
				Msg("playlist seeded")
		}
	}

	fmt.Printf("Seeded %d personas and %d stations.\n", len(fixture.Personas), len(fixture.Stations))
	return nil
}
