package repository

import (
	"fmt"
	"sync"

	"DeckFM/db"
	"DeckFM/model"

	"gorm.io/gorm"
)

// SettingsRepository persists the single MixSettings row and hands the party
// engine a cheap in-memory snapshot. Implements party.SettingsProvider.
type SettingsRepository interface {
	Current() model.MixSettings
	Update(s model.MixSettings) (model.MixSettings, error)
	Reset() (model.MixSettings, error)
}

type gormSettingsRepository struct {
	mu      sync.RWMutex
	current model.MixSettings
}

// NewGormSettingsRepository loads (or seeds) the settings row via GORM.
func NewGormSettingsRepository() (SettingsRepository, error) {
	r := &gormSettingsRepository{}

	var s model.MixSettings
	err := db.GormDB.First(&s).Error
	switch {
	case err == nil:
		s.Normalize()
	case err == gorm.ErrRecordNotFound:
		s = model.DefaultMixSettings()
		if err := db.GormDB.Create(&s).Error; err != nil {
			return nil, fmt.Errorf("failed to seed default mix settings: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load mix settings: %w", err)
	}

	r.current = s
	return r, nil
}

// Current returns the cached snapshot; callers normalize before use.
func (r *gormSettingsRepository) Current() model.MixSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Update clamps, persists and caches the new settings.
func (r *gormSettingsRepository) Update(s model.MixSettings) (model.MixSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = r.current.ID
	s.Normalize()
	if err := db.GormDB.Save(&s).Error; err != nil {
		return model.MixSettings{}, fmt.Errorf("failed to save mix settings: %w", err)
	}
	r.current = s
	return s, nil
}

// Reset restores the literal defaults.
func (r *gormSettingsRepository) Reset() (model.MixSettings, error) {
	r.mu.Lock()
	id := r.current.ID
	r.mu.Unlock()

	s := model.DefaultMixSettings()
	s.ID = id
	return r.Update(s)
}
