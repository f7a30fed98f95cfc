package models

// Treasury is the singleton deposit-only value sink. Outflow happens only
// through an executed governance transfer proposal.
type Treasury struct {
	Base
	CoinBalance  int64 `gorm:"type:bigint;not null;default:0" json:"coin_balance"`
	TokenBalance int64 `gorm:"type:bigint;not null;default:0" json:"token_balance"`
}

// BurnSink records value permanently destroyed by the burn share of fees.
// Both counters are monotonic.
type BurnSink struct {
	Base
	CoinBurned  int64 `gorm:"type:bigint;not null;default:0" json:"coin_burned"`
	TokenBurned int64 `gorm:"type:bigint;not null;default:0" json:"token_burned"`
}
