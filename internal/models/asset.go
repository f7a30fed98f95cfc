package models

import "time"

// AssetKind distinguishes whole collectibles from fractional shares. An asset
// is exactly one kind for its entire lifetime.
type AssetKind string

const (
	AssetKindWhole    AssetKind = "whole"
	AssetKindFraction AssetKind = "fraction"
)

// Asset is a registry entry for a digital-experience collectible or a
// fractional share of one. EscrowRef identifies the market entity currently
// holding the asset ("rental:<id>", "loan:<id>", "auction:<id>", "sale:<id>");
// it is empty when the asset is free. At most one holder exists at a time.
type Asset struct {
	Base
	Kind     AssetKind `gorm:"not null" json:"kind"`
	Name     string    `gorm:"not null" json:"name"`
	OwnerID  string    `gorm:"type:uuid;not null;index" json:"owner_id"`
	ParentID *string   `gorm:"type:uuid" json:"parent_id,omitempty"` // fractions only
	Units    int64     `gorm:"type:bigint;default:0" json:"units,omitempty"`

	// Time-limited experiences expire; expired assets cannot be listed.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Royalty configuration, applied off the top on auction and sale settlement.
	RoyaltyRecipientID *string `gorm:"type:uuid" json:"royalty_recipient_id,omitempty"`
	RoyaltyBps         int64   `gorm:"type:bigint;default:0" json:"royalty_bps"`

	EscrowRef string `gorm:"default:''" json:"escrow_ref,omitempty"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

// Escrowed reports whether the asset is currently held by a market entity.
func (a *Asset) Escrowed() bool { return a.EscrowRef != "" }

// ExpiredAt reports whether the asset is expired at the given time.
func (a *Asset) ExpiredAt(now time.Time) bool {
	return a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}
