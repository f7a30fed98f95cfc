// Package feesplit implements the platform fee computation shared by every
// money-moving flow: a basis-point cut off a gross amount, then a three-way
// division of that cut into reward, treasury, and burn shares.
package feesplit

// BpsDenominator is the basis-point scale: a rate of 10000 bps is 100%.
const BpsDenominator = 10000

// Split divides a gross amount into the payout net and the platform fee.
// The fee is floored, so any truncation loss stays with the net recipient.
func Split(gross, feeRateBps int64) (net, fee int64) {
	fee = gross * feeRateBps / BpsDenominator
	net = gross - fee
	return net, fee
}

// Shares divides a fee into reward, treasury, and burn portions. The first two
// cuts are floored percentages; the burn share is whatever remains, so the
// three shares always sum to fee exactly, with no dust lost to rounding.
func Shares(fee, rewardPct, treasuryPct int64) (reward, treasury, burn int64) {
	reward = fee * rewardPct / 100
	treasury = fee * treasuryPct / 100
	burn = fee - reward - treasury
	return reward, treasury, burn
}

// ValidShares reports whether a reward/treasury percentage pair is usable.
// The burn share absorbs the remainder, so the pair must leave room for it.
func ValidShares(rewardPct, treasuryPct int64) bool {
	return rewardPct >= 0 && treasuryPct >= 0 && rewardPct+treasuryPct <= 100
}
