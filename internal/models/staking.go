package models

// RewardPrecision is the fixed-point scale of AccRewardPerShare. It must be
// large enough that integer division in the pending-reward computation does
// not zero out small accruals for small stakes over short intervals.
const RewardPrecision = 1_000_000_000_000

// StakePool is the singleton staking pool. AccRewardPerShare is monotonically
// non-decreasing and scaled by RewardPrecision. EmissionRate is token units
// generated per second, paid from RewardTokenBalance. The pool also receives
// fee shares: token inflows fund emissions, coin inflows accrue as a
// deposit-only sink.
type StakePool struct {
	Base
	TotalStaked        int64 `gorm:"type:bigint;not null;default:0" json:"total_staked"`
	RewardCoinBalance  int64 `gorm:"type:bigint;not null;default:0" json:"reward_coin_balance"`
	RewardTokenBalance int64 `gorm:"type:bigint;not null;default:0" json:"reward_token_balance"`
	EmissionRate       int64 `gorm:"type:bigint;not null;default:0" json:"emission_rate"`
	AccRewardPerShare  int64 `gorm:"type:bigint;not null;default:0" json:"acc_reward_per_share"`
	LastUpdateTime     int64 `gorm:"type:bigint;not null;default:0" json:"last_update_time"` // unix ms
}

// StakePosition is one user's stake. RewardDebt snapshots the pool
// accumulator at the last interaction; pending reward is computed as
// stake * acc / precision - debt.
type StakePosition struct {
	Base
	UserID     string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Amount     int64  `gorm:"type:bigint;not null" json:"amount"`
	RewardDebt int64  `gorm:"type:bigint;not null" json:"reward_debt"`
}

// ImpliedDebt returns the reward debt implied by the current accumulator for
// the position's stake.
func (p *StakePosition) ImpliedDebt(accRewardPerShare int64) int64 {
	return p.Amount * accRewardPerShare / RewardPrecision
}

// Pending returns the reward accrued since the last interaction, assuming the
// pool accumulator is up to date.
func (p *StakePosition) Pending(accRewardPerShare int64) int64 {
	return p.Amount*accRewardPerShare/RewardPrecision - p.RewardDebt
}
