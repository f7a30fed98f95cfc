package models

import "time"

// Auction escrows an asset for soft-close bidding. The bid vault holds only
// the current leading bid: VaultAmount equals HighestBid whenever a bidder is
// present and zero otherwise. A late bid inside the anti-snipe window pushes
// EndTime back, converting the fixed deadline into a soft close.
type Auction struct {
	Base
	AssetID      string        `gorm:"type:uuid;not null;index" json:"asset_id"`
	SellerID     string        `gorm:"type:uuid;not null;index" json:"seller_id"`
	StartPrice   int64         `gorm:"type:bigint;not null" json:"start_price"`
	ReservePrice int64         `gorm:"type:bigint;not null" json:"reserve_price"`
	Currency     Currency      `gorm:"not null" json:"currency"`
	EndTime      time.Time     `gorm:"not null" json:"end_time"`
	Status       ListingStatus `gorm:"not null;default:'open'" json:"status"`

	HighestBid      int64   `gorm:"type:bigint;not null;default:0" json:"highest_bid"`
	HighestBidderID *string `gorm:"type:uuid" json:"highest_bidder_id,omitempty"`
	VaultAmount     int64   `gorm:"type:bigint;not null;default:0" json:"vault_amount"`

	Asset Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}

// BidThreshold returns the amount a new bid must strictly exceed.
func (a *Auction) BidThreshold() int64 {
	if a.HighestBidderID != nil {
		return a.HighestBid
	}
	return a.StartPrice
}
