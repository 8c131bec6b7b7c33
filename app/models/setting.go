package models

import (
	"time"
)

const (
	SettingTypeString  = "string"
	SettingTypeInteger = "integer"
	SettingTypeBoolean = "boolean"
)

// Well-known setting keys.
const (
	SettingInitialCredits      = "initial_credits"
	SettingImageGenerationCost = "image_generation_cost"
	SettingPollIntervalSeconds = "image_poll_interval_seconds"
	SettingPollMaxAttempts     = "image_poll_max_attempts"
)

// Setting is a typed key/value system setting. Typed reads fall back to a
// caller-supplied default on missing rows or parse failures and never error.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
