package models

import "time"

// Loan is a collateralized peer-to-peer loan. The borrower escrows an asset
// and states the principal and the full repayment amount; a lender funds it.
// Repayment is only possible strictly before DueTime; liquidation only at or
// after it. The two windows never overlap.
type Loan struct {
	Base
	AssetID         string        `gorm:"type:uuid;not null;index" json:"asset_id"`
	BorrowerID      string        `gorm:"type:uuid;not null;index" json:"borrower_id"`
	Principal       int64         `gorm:"type:bigint;not null" json:"principal"`
	RepaymentAmount int64         `gorm:"type:bigint;not null" json:"repayment_amount"`
	Currency        Currency      `gorm:"not null" json:"currency"`
	DurationMs      int64         `gorm:"type:bigint;not null" json:"duration_ms"`
	Status          ListingStatus `gorm:"not null;default:'open'" json:"status"`

	LenderID *string    `gorm:"type:uuid" json:"lender_id,omitempty"`
	DueTime  *time.Time `json:"due_time,omitempty"`

	Asset Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

// Interest is the portion of the repayment above the principal. It is the
// only fee-split part of a repayment.
func (l *Loan) Interest() int64 { return l.RepaymentAmount - l.Principal }
