package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/friendsincode/dialwave/internal/playlist"
)

// Station is a simulated radio station on the dial.
type Station struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Name         string  `gorm:"uniqueIndex"`
	FrequencyMHz float64 `gorm:"column:frequency_mhz"`
	ThemeText    string           `gorm:"type:text"`
	DJPersonaID  string           `gorm:"type:uuid;index"`
	Playlist     PlaylistDocument `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DJPersona describes the on-air voice used for message generation.
type DJPersona struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	Style       string `gorm:"type:text"`
	VoiceID     string `gorm:"type:varchar(64)"`
	Catchphrase string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TuneEvent records a listener landing on a station, for play history.
type TuneEvent struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	StationID    string  `gorm:"type:uuid;index"`
	FrequencyMHz float64 `gorm:"column:frequency_mhz"`
	Matched      bool
	TunedAt      time.Time `gorm:"index"`
}

// PlaylistDocument stores the ordered playlist as a JSON document. Array
// order is playback order; the database never reorders it.
type PlaylistDocument []playlist.Entry

func (d PlaylistDocument) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]playlist.Entry{})
	}
	return json.Marshal([]playlist.Entry(d))
}

func (d *PlaylistDocument) Scan(value interface{}) error {
	if value == nil {
		*d = PlaylistDocument{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal PlaylistDocument: %v", value)
	}
	if len(bytes) == 0 {
		*d = PlaylistDocument{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Entries returns the document as a plain playlist slice.
func (d PlaylistDocument) Entries() []playlist.Entry {
	return []playlist.Entry(d)
}
