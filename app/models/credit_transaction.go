package models

import (
	"time"
)

const (
	TransactionTypeEarn  = "earn"
	TransactionTypeSpend = "spend"
)

const (
	TransactionReasonInitial    = "initial"
	TransactionReasonGeneration = "generation"
	TransactionReasonAdminGrant = "admin_grant"
	TransactionReasonEarned     = "earned"
)

// CreditTransaction is an append-only ledger entry. Rows are immutable once
// written; the signed sum per user (earn positive, spend negative) must
// reconcile with UserCredits.Credits minus the initial seed.
type CreditTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=earn spend"`
	Amount      int64     `gorm:"not null" json:"amount" validate:"gte=0"`
	Reason      string    `gorm:"type:varchar(50);not null" json:"reason" validate:"oneof=initial generation admin_grant earned"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Reference   string    `gorm:"type:char(36)" json:"reference"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SignedAmount returns the amount with spend entries negated.
func (t *CreditTransaction) SignedAmount() int64 {
	if t.Type == TransactionTypeSpend {
		return -t.Amount
	}
	return t.Amount
}
