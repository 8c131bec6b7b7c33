package repository

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/plateful-app/plateful/app/models"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// GetValue retrieves a specific setting value by key
func (r *settingRepository) GetValue(key string) (string, error) {
	var setting models.Setting
	// Correct column is `setting_key` (see gorm tag in models.Setting)
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil // Return empty string for non-existent settings
		}
		return "", err
	}
	return setting.Value, nil
}

// SetValue sets a specific setting value by key
func (r *settingRepository) SetValue(key, value string) error {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.Setting{
			Key:   key,
			Value: value,
			Type:  models.SettingTypeString,
		}
		return r.db.Create(&setting).Error
	} else if err != nil {
		return err
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// GetString returns the setting value or def when the row is missing.
func (r *settingRepository) GetString(key, def string) string {
	value, err := r.GetValue(key)
	if err != nil || value == "" {
		return def
	}
	return value
}

// GetInt returns the setting parsed as int, falling back to def on a missing
// row or parse failure.
func (r *settingRepository) GetInt(key string, def int) int {
	value, err := r.GetValue(key)
	if err != nil || value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// GetBool returns the setting parsed as bool, falling back to def on a
// missing row or parse failure.
func (r *settingRepository) GetBool(key string, def bool) bool {
	value, err := r.GetValue(key)
	if err != nil || value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}
