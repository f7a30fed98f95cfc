package services

import (
	"gorm.io/gorm"

	apperrors "tessera/internal/errors"
	"tessera/internal/feesplit"
	"tessera/internal/models"
)

// FeeBreakdown reports where one payment went. It is attached to the events
// emitted by every money-moving flow.
type FeeBreakdown struct {
	Gross    int64 `json:"gross"`
	Royalty  int64 `json:"royalty"`
	FeeBps   int64 `json:"fee_bps"`
	Fee      int64 `json:"fee"`
	Reward   int64 `json:"reward_share"`
	Treasury int64 `json:"treasury_share"`
	Burn     int64 `json:"burn_share"`
	Net      int64 `json:"net"`
}

// feeEngine is the settlement component shared by the rental fill, loan
// repayment, auction settlement, and sale purchase flows. It selects the fee
// rate from the beneficiary's VIP status, splits the payment, and routes the
// fee shares to the reward pool, the treasury, and the burn sink, all inside
// the caller's transaction.
type feeEngine struct{}

// rateFor returns the fee rate in basis points for a beneficiary: the VIP
// discount if the beneficiary is flagged, the standard rate otherwise.
func (feeEngine) rateFor(params *models.GovParams, beneficiary *models.User) int64 {
	if beneficiary.IsVIP {
		return params.VIPFeeBps
	}
	return params.StandardFeeBps
}

// takeFee splits gross between the platform fee and the beneficiary's net
// payout, routes the fee shares, and credits the net to the beneficiary.
// A zero fee skips every downstream deposit.
func (e feeEngine) takeFee(tx *gorm.DB, beneficiary *models.User, gross int64, currency models.Currency) (*FeeBreakdown, error) {
	params, err := getParams(tx)
	if err != nil {
		return nil, err
	}

	rate := e.rateFor(params, beneficiary)
	net, fee := feesplit.Split(gross, rate)

	bd := &FeeBreakdown{Gross: gross, FeeBps: rate, Fee: fee, Net: net}

	if fee > 0 {
		bd.Reward, bd.Treasury, bd.Burn = feesplit.Shares(fee, params.RewardSharePct, params.TreasurySharePct)
		if err := e.routeShares(tx, currency, bd.Reward, bd.Treasury, bd.Burn); err != nil {
			return nil, err
		}
	}

	if err := creditUser(tx, beneficiary.ID, currency, net); err != nil {
		return nil, err
	}

	return bd, nil
}

// routeShares deposits the three fee shares into their sinks, skipping
// zero-value transfers.
func (feeEngine) routeShares(tx *gorm.DB, currency models.Currency, reward, treasury, burn int64) error {
	if reward > 0 {
		column := "reward_coin_balance"
		if currency == models.CurrencyToken {
			column = "reward_token_balance"
		}
		if err := tx.Model(&models.StakePool{}).Where("1 = 1").
			Update(column, gorm.Expr(column+" + ?", reward)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if treasury > 0 {
		column := balanceColumn(currency)
		if err := tx.Model(&models.Treasury{}).Where("1 = 1").
			Update(column, gorm.Expr(column+" + ?", treasury)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if burn > 0 {
		column := "coin_burned"
		if currency == models.CurrencyToken {
			column = "token_burned"
		}
		if err := tx.Model(&models.BurnSink{}).Where("1 = 1").
			Update(column, gorm.Expr(column+" + ?", burn)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return nil
}

// takeRoyalty pays the asset's royalty cut off the top of gross and returns
// the remainder the platform fee applies to. Assets without a royalty config
// pass gross through untouched.
func (feeEngine) takeRoyalty(tx *gorm.DB, asset *models.Asset, gross int64, currency models.Currency) (remainder, royalty int64, err error) {
	if asset.RoyaltyRecipientID == nil || asset.RoyaltyBps == 0 {
		return gross, 0, nil
	}
	royalty = gross * asset.RoyaltyBps / feesplit.BpsDenominator
	if err := creditUser(tx, *asset.RoyaltyRecipientID, currency, royalty); err != nil {
		return 0, 0, err
	}
	return gross - royalty, royalty, nil
}
