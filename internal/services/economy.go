package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// Default governance parameters, used when seeding a fresh deployment.
// Everything here is mutable at runtime through an executed proposal.
const (
	defaultQuorumPct         = 20
	defaultApprovalPct       = 50
	defaultMinStakeToPropose = 1000
	defaultVotingPeriodMs    = 3 * 24 * 60 * 60 * 1000
	defaultStandardFeeBps    = 500
	defaultVIPFeeBps         = 250
	defaultRewardSharePct    = 40
	defaultTreasurySharePct  = 30
	defaultAntiSnipeWindowMs = 300_000
)

// SeedEconomy creates the singleton pool, treasury, burn sink, and parameter
// rows if they do not exist yet. Safe to call on every startup.
func SeedEconomy(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.GovParams{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			params := &models.GovParams{
				QuorumPct:         defaultQuorumPct,
				ApprovalPct:       defaultApprovalPct,
				MinStakeToPropose: defaultMinStakeToPropose,
				VotingPeriodMs:    defaultVotingPeriodMs,
				StandardFeeBps:    defaultStandardFeeBps,
				VIPFeeBps:         defaultVIPFeeBps,
				RewardSharePct:    defaultRewardSharePct,
				TreasurySharePct:  defaultTreasurySharePct,
				AntiSnipeWindowMs: defaultAntiSnipeWindowMs,
			}
			if err := tx.Create(params).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.StakePool{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&models.StakePool{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Treasury{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&models.Treasury{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.BurnSink{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := tx.Create(&models.BurnSink{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// getParams loads the singleton governance parameter row within tx.
func getParams(tx *gorm.DB) (*models.GovParams, error) {
	var params models.GovParams
	if err := tx.First(&params).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &params, nil
}

// getPool loads the singleton stake pool row within tx.
func getPool(tx *gorm.DB) (*models.StakePool, error) {
	var pool models.StakePool
	if err := tx.First(&pool).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pool, nil
}

// getTreasury loads the singleton treasury row within tx.
func getTreasury(tx *gorm.DB) (*models.Treasury, error) {
	var treasury models.Treasury
	if err := tx.First(&treasury).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &treasury, nil
}

// getBurnSink loads the singleton burn sink row within tx.
func getBurnSink(tx *gorm.DB) (*models.BurnSink, error) {
	var sink models.BurnSink
	if err := tx.First(&sink).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sink, nil
}

// getUser loads a user row within tx.
func getUser(tx *gorm.DB, userID string) (*models.User, error) {
	var user models.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// balanceColumn maps a currency to its user balance column.
func balanceColumn(currency models.Currency) string {
	if currency == models.CurrencyToken {
		return "token_balance"
	}
	return "coin_balance"
}

// debitUser removes amount from a user's balance in the given currency,
// rejecting the whole action if the balance cannot cover it.
func debitUser(tx *gorm.DB, user *models.User, currency models.Currency, amount int64) error {
	if amount == 0 {
		return nil
	}
	if user.BalanceFor(currency) < amount {
		return apperrors.ErrInsufficientBalance
	}
	if err := tx.Model(user).
		Update(balanceColumn(currency), gorm.Expr(balanceColumn(currency)+" - ?", amount)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// creditUser adds amount to a user's balance in the given currency.
// Zero-value transfers are skipped.
func creditUser(tx *gorm.DB, userID string, currency models.Currency, amount int64) error {
	if amount == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Update(balanceColumn(currency), gorm.Expr(balanceColumn(currency)+" + ?", amount))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
