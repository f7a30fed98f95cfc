package models

// SaleListing is a fixed-price listing. Buying settles immediately: royalty
// and platform fee are taken from the payment and ownership transfers to the
// buyer in the same action.
type SaleListing struct {
	Base
	AssetID  string        `gorm:"type:uuid;not null;index" json:"asset_id"`
	SellerID string        `gorm:"type:uuid;not null;index" json:"seller_id"`
	Price    int64         `gorm:"type:bigint;not null" json:"price"`
	Currency Currency      `gorm:"not null" json:"currency"`
	Status   ListingStatus `gorm:"not null;default:'open'" json:"status"`

	BuyerID *string `gorm:"type:uuid" json:"buyer_id,omitempty"`

	Asset Asset `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
}
