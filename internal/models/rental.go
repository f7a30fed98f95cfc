package models

import "time"

// RentalListing escrows an asset for time-boxed use. The asset stays in
// escrow for the whole rental; settlement returns it to the owner.
type RentalListing struct {
	Base
	AssetID    string        `gorm:"type:uuid;not null;index" json:"asset_id"`
	OwnerID    string        `gorm:"type:uuid;not null;index" json:"owner_id"`
	Price      int64         `gorm:"type:bigint;not null" json:"price"`
	Currency   Currency      `gorm:"not null" json:"currency"`
	DurationMs int64         `gorm:"type:bigint;not null" json:"duration_ms"`
	Status     ListingStatus `gorm:"not null;default:'open'" json:"status"`

	// Set when a renter fills the listing.
	RenterID  *string    `gorm:"type:uuid" json:"renter_id,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	Asset Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}
