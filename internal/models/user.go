package models

import "time"

// User represents a platform account. Balances are held in the two platform
// currencies as integer smallest units; there is no floating point anywhere
// in a money path.
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	DisplayName         string     `json:"display_name"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	IsAdmin             bool       `gorm:"default:false" json:"is_admin"`
	IsVIP               bool       `gorm:"column:is_vip;default:false" json:"is_vip"`
	CoinBalance         int64      `gorm:"type:bigint;not null;default:0" json:"coin_balance"`
	TokenBalance        int64      `gorm:"type:bigint;not null;default:0" json:"token_balance"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	Assets []Asset `gorm:"foreignKey:OwnerID" json:"assets,omitempty"`
}

// BalanceFor returns the user's balance in the given currency.
func (u *User) BalanceFor(c Currency) int64 {
	if c == CurrencyToken {
		return u.TokenBalance
	}
	return u.CoinBalance
}
