package models

import (
	"time"
)

// UserCredits is the derived running balance for a user. One row per user,
// created lazily on first lookup and never deleted.
//
// Invariant: Credits == TotalEarned - TotalSpent after every committed
// transaction, and Credits never goes below zero.
type UserCredits struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Credits     int64     `gorm:"not null;default:0" json:"credits"`
	TotalEarned int64     `gorm:"not null;default:0" json:"total_earned"`
	TotalSpent  int64     `gorm:"not null;default:0" json:"total_spent"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Reconciled reports whether the balance matches the earned/spent totals.
func (uc *UserCredits) Reconciled() bool {
	return uc.Credits == uc.TotalEarned-uc.TotalSpent
}
