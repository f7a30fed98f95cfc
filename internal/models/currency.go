package models

// Currency tags every money-moving entity with exactly one of the two
// platform currencies. An entity fixes its currency at creation; every
// subsequent payment must match it exactly.
type Currency string

const (
	// CurrencyCoin is the native platform coin.
	CurrencyCoin Currency = "coin"
	// CurrencyToken is the platform utility token, also the staking currency.
	CurrencyToken Currency = "token"
)

// Valid reports whether c is one of the two platform currencies.
func (c Currency) Valid() bool {
	return c == CurrencyCoin || c == CurrencyToken
}

// ListingStatus is the shared lifecycle of every market entity. Transitions
// are monotonic: open -> active -> settled, or open -> cancelled. There are
// no backward transitions; terminal entities are frozen.
type ListingStatus string

const (
	ListingStatusOpen      ListingStatus = "open"
	ListingStatusActive    ListingStatus = "active"
	ListingStatusSettled   ListingStatus = "settled"
	ListingStatusCancelled ListingStatus = "cancelled"
)
