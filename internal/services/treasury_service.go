package services

import (
	"gorm.io/gorm"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// treasuryService exposes the treasury and burn sink. Outflows happen only
// through an executed transfer proposal, never through this service.
type treasuryService struct {
	db     *gorm.DB
	events EventServicer
}

// NewTreasuryService creates a new TreasuryServicer.
func NewTreasuryService(db *gorm.DB, events EventServicer) TreasuryServicer {
	return &treasuryService{db: db, events: events}
}

// Deposit moves funds from a user's balance into the treasury.
func (s *treasuryService) Deposit(userID string, currency models.Currency, amount int64) (*models.Treasury, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if !currency.Valid() {
		return nil, apperrors.ErrCurrencyMismatch
	}

	var treasury *models.Treasury
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, user, currency, amount); err != nil {
			return err
		}

		treasury, err = getTreasury(tx)
		if err != nil {
			return err
		}
		if currency == models.CurrencyToken {
			treasury.TokenBalance += amount
		} else {
			treasury.CoinBalance += amount
		}
		if txErr := tx.Save(treasury).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(userID, "treasury", treasury.ID, "DEPOSITED", map[string]any{
		"currency": currency, "amount": amount,
	})
	return treasury, nil
}

// Get returns the treasury's current balances.
func (s *treasuryService) Get() (*models.Treasury, error) {
	var treasury models.Treasury
	if err := s.db.First(&treasury).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &treasury, nil
}

// GetBurnSink returns the cumulative burned totals.
func (s *treasuryService) GetBurnSink() (*models.BurnSink, error) {
	var sink models.BurnSink
	if err := s.db.First(&sink).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &sink, nil
}
