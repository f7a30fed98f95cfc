package models

import "time"

// GovParams is the singleton governance parameter store. Every fee
// computation and governance check reads these knobs at call time; mutation
// happens only through an executed update_param proposal.
type GovParams struct {
	Base
	QuorumPct         int64 `gorm:"type:bigint;not null" json:"quorum_pct"`
	ApprovalPct       int64 `gorm:"type:bigint;not null" json:"approval_pct"`
	MinStakeToPropose int64 `gorm:"type:bigint;not null" json:"min_stake_to_propose"`
	VotingPeriodMs    int64 `gorm:"type:bigint;not null" json:"voting_period_ms"`
	StandardFeeBps    int64 `gorm:"type:bigint;not null" json:"standard_fee_bps"`
	VIPFeeBps         int64 `gorm:"column:vip_fee_bps;type:bigint;not null" json:"vip_fee_bps"`
	RewardSharePct    int64 `gorm:"type:bigint;not null" json:"reward_share_pct"`
	TreasurySharePct  int64 `gorm:"type:bigint;not null" json:"treasury_share_pct"`
	AntiSnipeWindowMs int64 `gorm:"type:bigint;not null" json:"anti_snipe_window_ms"`
}

// ProposalAction identifies what an approved proposal does on execution.
type ProposalAction string

const (
	// ProposalActionTransfer moves value out of the treasury.
	ProposalActionTransfer ProposalAction = "transfer"
	// ProposalActionSignal carries no on-execution effect.
	ProposalActionSignal ProposalAction = "signal"
	// ProposalActionUpdateParam writes one governance parameter.
	ProposalActionUpdateParam ProposalAction = "update_param"
	// ProposalActionSetVIP flips a user's VIP fee status.
	ProposalActionSetVIP ProposalAction = "set_vip"
)

// Proposal is a governance proposal. The action payload is immutable after
// creation; tallies accumulate until EndTime; Executed is write-once.
type Proposal struct {
	Base
	ProposerID  string         `gorm:"type:uuid;not null;index" json:"proposer_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Action      ProposalAction `gorm:"not null" json:"action"`

	// Action payload. Which fields are meaningful depends on Action.
	RecipientID *string  `gorm:"type:uuid" json:"recipient_id,omitempty"` // transfer, set_vip
	Amount      int64    `gorm:"type:bigint;default:0" json:"amount,omitempty"`
	Currency    Currency `json:"currency,omitempty"`
	ParamKey    string   `json:"param_key,omitempty"`
	ParamValue  int64    `gorm:"type:bigint;default:0" json:"param_value,omitempty"`
	VIPStatus   bool     `gorm:"column:vip_status" json:"vip_status,omitempty"`

	ForVotes     int64     `gorm:"type:bigint;not null;default:0" json:"for_votes"`
	AgainstVotes int64     `gorm:"type:bigint;not null;default:0" json:"against_votes"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	Executed     bool      `gorm:"not null;default:false" json:"executed"`
	Passed       bool      `gorm:"not null;default:false" json:"passed"`
}

// Vote records a one-time-only ballot: one row per voter per proposal,
// enforced by a unique index. There is no un-vote.
type Vote struct {
	Base
	ProposalID string `gorm:"type:uuid;not null;uniqueIndex:idx_votes_proposal_voter" json:"proposal_id"`
	VoterID    string `gorm:"type:uuid;not null;uniqueIndex:idx_votes_proposal_voter" json:"voter_id"`
	Support    bool   `gorm:"not null" json:"support"`
	Weight     int64  `gorm:"type:bigint;not null" json:"weight"`
}
