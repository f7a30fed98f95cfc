package services

import (
	"errors"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// stakingService handles the staking pool. Stakes are platform tokens;
// rewards are paid from the pool's token balance at the configured emission
// rate, distributed via a per-share accumulator.
type stakingService struct {
	db     *gorm.DB
	clk    clock.Clock
	events EventServicer
}

// NewStakingService creates a new StakingServicer.
func NewStakingService(db *gorm.DB, clk clock.Clock, events EventServicer) StakingServicer {
	return &stakingService{db: db, clk: clk, events: events}
}

// updatePool advances the accumulator to now. Every entry point must call
// this before reading or writing any other pool or position field; the
// ordering is what prevents reward dilution and retroactive accrual.
func (s *stakingService) updatePool(tx *gorm.DB, pool *models.StakePool, nowMs int64) error {
	dt := nowMs - pool.LastUpdateTime
	if dt == 0 {
		return nil
	}
	if pool.TotalStaked == 0 {
		// Nothing staked: time passes but no reward accrues.
		pool.LastUpdateTime = nowMs
	} else {
		generated := dt * pool.EmissionRate / 1000
		pool.AccRewardPerShare += generated * models.RewardPrecision / pool.TotalStaked
		pool.LastUpdateTime = nowMs
	}
	if err := tx.Save(pool).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// payPending pays a position's accrued reward from the pool's token balance.
// Returns the amount paid. The pool must already be updated.
func (s *stakingService) payPending(tx *gorm.DB, pool *models.StakePool, position *models.StakePosition) (int64, error) {
	pending := position.Pending(pool.AccRewardPerShare)
	if pending == 0 {
		return 0, nil
	}
	if pool.RewardTokenBalance < pending {
		return 0, apperrors.ErrRewardPoolDepleted
	}
	pool.RewardTokenBalance -= pending
	if err := tx.Save(pool).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := creditUser(tx, position.UserID, models.CurrencyToken, pending); err != nil {
		return 0, err
	}
	return pending, nil
}

// Stake moves tokens from the user's balance into the pool, creating or
// growing a position. The new debt equals whatever the accumulator already
// implies for the stake, so no historical reward is claimed retroactively.
func (s *stakingService) Stake(userID string, amount int64) (*models.StakePosition, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	nowMs := s.clk.Now().UnixMilli()

	var position models.StakePosition
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := getPool(tx)
		if err != nil {
			return err
		}
		if err := s.updatePool(tx, pool, nowMs); err != nil {
			return err
		}

		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, user, models.CurrencyToken, amount); err != nil {
			return err
		}

		found := true
		if err := tx.Where("user_id = ?", userID).First(&position).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			found = false
		}

		if found {
			// Growing an existing position pays out what has accrued so far,
			// then restarts accrual from the new, larger stake.
			if _, err := s.payPending(tx, pool, &position); err != nil {
				return err
			}
			position.Amount += amount
		} else {
			position = models.StakePosition{UserID: userID, Amount: amount}
		}
		position.RewardDebt = position.ImpliedDebt(pool.AccRewardPerShare)

		pool.TotalStaked += amount
		if txErr := tx.Save(pool).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if txErr := tx.Save(&position).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(userID, "stake_pool", position.ID, "STAKED", map[string]any{
		"amount": amount, "total_position": position.Amount,
	})
	return &position, nil
}

// Unstake pays out the pending reward, returns the full stake to the user,
// and destroys the position.
func (s *stakingService) Unstake(userID string) (int64, error) {
	nowMs := s.clk.Now().UnixMilli()

	var paidOut int64
	var staked int64
	var positionID string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := getPool(tx)
		if err != nil {
			return err
		}
		if err := s.updatePool(tx, pool, nowMs); err != nil {
			return err
		}

		var position models.StakePosition
		if err := tx.Where("user_id = ?", userID).First(&position).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPositionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		positionID = position.ID

		paidOut, err = s.payPending(tx, pool, &position)
		if err != nil {
			return err
		}

		staked = position.Amount
		pool.TotalStaked -= staked
		if txErr := tx.Save(pool).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		if err := creditUser(tx, userID, models.CurrencyToken, staked); err != nil {
			return err
		}
		// Hard delete: the unique user index must be free for a future re-stake.
		if txErr := tx.Unscoped().Delete(&position).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(userID, "stake_pool", positionID, "UNSTAKED", map[string]any{
		"returned_stake": staked, "reward_paid": paidOut,
	})
	return paidOut, nil
}

// Claim pays out the pending reward without touching the stake. Claiming
// with nothing accrued is rejected, not a silent no-op.
func (s *stakingService) Claim(userID string) (int64, error) {
	nowMs := s.clk.Now().UnixMilli()

	var paidOut int64
	var positionID string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pool, err := getPool(tx)
		if err != nil {
			return err
		}
		if err := s.updatePool(tx, pool, nowMs); err != nil {
			return err
		}

		var position models.StakePosition
		if err := tx.Where("user_id = ?", userID).First(&position).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrPositionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		positionID = position.ID

		if position.Pending(pool.AccRewardPerShare) == 0 {
			return apperrors.ErrZeroPendingReward
		}

		paidOut, err = s.payPending(tx, pool, &position)
		if err != nil {
			return err
		}

		position.RewardDebt = position.ImpliedDebt(pool.AccRewardPerShare)
		if txErr := tx.Save(&position).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(userID, "stake_pool", positionID, "CLAIMED", map[string]any{
		"reward_paid": paidOut,
	})
	return paidOut, nil
}

// Pending reports a user's accrued reward without mutating anything.
func (s *stakingService) Pending(userID string) (*PendingReward, error) {
	nowMs := s.clk.Now().UnixMilli()

	var position models.StakePosition
	if err := s.db.Where("user_id = ?", userID).First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPositionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var pool models.StakePool
	if err := s.db.First(&pool).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Project the accumulator forward without persisting.
	acc := pool.AccRewardPerShare
	if dt := nowMs - pool.LastUpdateTime; dt > 0 && pool.TotalStaked > 0 {
		generated := dt * pool.EmissionRate / 1000
		acc += generated * models.RewardPrecision / pool.TotalStaked
	}

	return &PendingReward{Staked: position.Amount, Pending: position.Pending(acc)}, nil
}

// FundRewards deposits tokens from a user into the pool's reward balance.
func (s *stakingService) FundRewards(userID string, amount int64) (*models.StakePool, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	var pool *models.StakePool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		user, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, user, models.CurrencyToken, amount); err != nil {
			return err
		}

		pool, err = getPool(tx)
		if err != nil {
			return err
		}
		pool.RewardTokenBalance += amount
		if txErr := tx.Save(pool).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(userID, "stake_pool", pool.ID, "REWARDS_FUNDED", map[string]any{
		"amount": amount,
	})
	return pool, nil
}

// SetEmissionRate changes the emission rate. The pool is caught up with the
// old rate first, so accrual up to this moment never uses the new rate.
func (s *stakingService) SetEmissionRate(callerID string, rate int64) (*models.StakePool, error) {
	if rate < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	nowMs := s.clk.Now().UnixMilli()

	var pool *models.StakePool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		caller, err := getUser(tx, callerID)
		if err != nil {
			return err
		}
		if !caller.IsAdmin {
			return apperrors.ErrNotAdmin
		}

		pool, err = getPool(tx)
		if err != nil {
			return err
		}
		if err := s.updatePool(tx, pool, nowMs); err != nil {
			return err
		}

		pool.EmissionRate = rate
		if txErr := tx.Save(pool).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(callerID, "stake_pool", pool.ID, "EMISSION_RATE_SET", map[string]any{
		"rate": rate,
	})
	return pool, nil
}

// GetPool returns the pool's current state.
func (s *stakingService) GetPool() (*models.StakePool, error) {
	var pool models.StakePool
	if err := s.db.First(&pool).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pool, nil
}

// StakeOf returns a user's staked amount, zero if no position exists.
func (s *stakingService) StakeOf(userID string) (int64, error) {
	var position models.StakePosition
	if err := s.db.Where("user_id = ?", userID).First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return position.Amount, nil
}
