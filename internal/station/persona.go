/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package station

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/models"
)

// CreatePersona registers a DJ persona.
func (s *Service) CreatePersona(ctx context.Context, persona *models.DJPersona) error {
	if persona.Name == "" {
		return fmt.Errorf("%w: persona name is required", ErrInvalidInput)
	}
	if persona.ID == "" {
		persona.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(persona).Error; err != nil {
		return err
	}
	s.publish(events.EventPersonaUpdated, events.Payload{"persona_id": persona.ID})
	return nil
}

// GetPersona loads a persona by id.
func (s *Service) GetPersona(ctx context.Context, id string) (*models.DJPersona, error) {
	var persona models.DJPersona
	if err := s.db.WithContext(ctx).First(&persona, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, err
	}
	return &persona, nil
}

// ListPersonas returns all personas ordered by name.
func (s *Service) ListPersonas(ctx context.Context) ([]models.DJPersona, error) {
	var personas []models.DJPersona
	if err := s.db.WithContext(ctx).Order("name").Find(&personas).Error; err != nil {
		return nil, err
	}
	return personas, nil
}

// PersonaUpdate carries optional persona field updates.
type PersonaUpdate struct {
	Name        *string `json:"name,omitempty"`
	Style       *string `json:"style,omitempty"`
	VoiceID     *string `json:"voice_id,omitempty"`
	Catchphrase *string `json:"catchphrase,omitempty"`
}

// UpdatePersona applies a partial update.
func (s *Service) UpdatePersona(ctx context.Context, id string, update PersonaUpdate) (*models.DJPersona, error) {
	persona, err := s.GetPersona(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: persona name cannot be empty", ErrInvalidInput)
		}
		persona.Name = *update.Name
	}
	if update.Style != nil {
		persona.Style = *update.Style
	}
	if update.VoiceID != nil {
		persona.VoiceID = *update.VoiceID
	}
	if update.Catchphrase != nil {
		persona.Catchphrase = *update.Catchphrase
	}

	if err := s.db.WithContext(ctx).Save(persona).Error; err != nil {
		return nil, err
	}
	s.publish(events.EventPersonaUpdated, events.Payload{"persona_id": persona.ID})
	return persona, nil
}

// DeletePersona removes a persona. Stations keep running without one; their
// message titles just lose the name.
func (s *Service) DeletePersona(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.DJPersona{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPersonaNotFound
	}

	if err := s.db.WithContext(ctx).Model(&models.Station{}).
		Where("dj_persona_id = ?", id).
		Update("dj_persona_id", "").Error; err != nil {
		return err
	}

	s.publish(events.EventPersonaUpdated, events.Payload{"persona_id": id})
	return nil
}
