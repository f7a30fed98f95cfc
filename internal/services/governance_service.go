package services

import (
	"errors"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/feesplit"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// Governance parameter keys accepted by update_param proposals.
const (
	ParamQuorumPct         = "quorum_pct"
	ParamApprovalPct       = "approval_pct"
	ParamMinStakeToPropose = "min_stake_to_propose"
	ParamVotingPeriodMs    = "voting_period_ms"
	ParamStandardFeeBps    = "standard_fee_bps"
	ParamVIPFeeBps         = "vip_fee_bps"
	ParamRewardSharePct    = "reward_share_pct"
	ParamTreasurySharePct  = "treasury_share_pct"
	ParamAntiSnipeWindowMs = "anti_snipe_window_ms"
)

// governanceService handles proposals, voting, and execution.
type governanceService struct {
	db      *gorm.DB
	clk     clock.Clock
	staking StakingServicer
	events  EventServicer
}

// NewGovernanceService creates a new GovernanceServicer.
func NewGovernanceService(db *gorm.DB, clk clock.Clock, staking StakingServicer, events EventServicer) GovernanceServicer {
	return &governanceService{db: db, clk: clk, staking: staking, events: events}
}

// IsApproved applies the quorum and approval checks to a finished tally.
// Both divisions truncate toward zero and both comparisons are boundary
// inclusive: a proposal exactly at the quorum or approval threshold passes.
// With zero votes cast the proposal fails vacuously.
func IsApproved(forVotes, againstVotes, totalStaked int64, params *models.GovParams) bool {
	totalVotes := forVotes + againstVotes
	if totalVotes == 0 || totalStaked == 0 {
		return false
	}
	if totalVotes*100/totalStaked < params.QuorumPct {
		return false
	}
	return forVotes*100/totalVotes >= params.ApprovalPct
}

// Propose creates a proposal. The proposer must have at least the minimum
// stake; the action payload is validated up front so an unexecutable
// proposal can never be created.
func (s *governanceService) Propose(proposerID string, input ProposalInput) (*models.Proposal, error) {
	now := s.clk.Now()

	proposal := &models.Proposal{
		ProposerID:  proposerID,
		Title:       input.Title,
		Description: input.Description,
		Action:      input.Action,
		RecipientID: input.RecipientID,
		Amount:      input.Amount,
		Currency:    input.Currency,
		ParamKey:    input.ParamKey,
		ParamValue:  input.ParamValue,
		VIPStatus:   input.VIPStatus,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		params, err := getParams(tx)
		if err != nil {
			return err
		}

		staked, err := s.staking.StakeOf(proposerID)
		if err != nil {
			return err
		}
		if staked < params.MinStakeToPropose {
			return apperrors.ErrInsufficientStake
		}

		if err := validateAction(tx, params, input); err != nil {
			return err
		}

		proposal.EndTime = now.Add(msToDuration(params.VotingPeriodMs))
		if txErr := tx.Create(proposal).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(proposerID, "proposal", proposal.ID, "PROPOSED", map[string]any{
		"action": proposal.Action, "end_time": proposal.EndTime.UnixMilli(),
	})
	return proposal, nil
}

// validateAction rejects proposals whose payload could never execute.
func validateAction(tx *gorm.DB, params *models.GovParams, input ProposalInput) error {
	switch input.Action {
	case models.ProposalActionSignal:
		return nil

	case models.ProposalActionTransfer:
		if input.RecipientID == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Transfer requires a recipient")
		}
		if input.Amount <= 0 {
			return apperrors.ErrInvalidAmount
		}
		if !input.Currency.Valid() {
			return apperrors.ErrCurrencyMismatch
		}
		return nil

	case models.ProposalActionSetVIP:
		if input.RecipientID == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "VIP update requires a recipient")
		}
		if _, err := getUser(tx, *input.RecipientID); err != nil {
			return err
		}
		return nil

	case models.ProposalActionUpdateParam:
		return validateParamUpdate(params, input.ParamKey, input.ParamValue)

	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown proposal action")
	}
}

// validateParamUpdate checks a parameter key and its proposed value.
func validateParamUpdate(params *models.GovParams, key string, value int64) error {
	if value < 0 {
		return apperrors.ErrParamOutOfRange
	}
	switch key {
	case ParamQuorumPct, ParamApprovalPct:
		if value > 100 {
			return apperrors.ErrParamOutOfRange
		}
	case ParamStandardFeeBps, ParamVIPFeeBps:
		if value > feesplit.BpsDenominator {
			return apperrors.ErrParamOutOfRange
		}
	case ParamRewardSharePct:
		if !feesplit.ValidShares(value, params.TreasurySharePct) {
			return apperrors.ErrInvalidFeeShares
		}
	case ParamTreasurySharePct:
		if !feesplit.ValidShares(params.RewardSharePct, value) {
			return apperrors.ErrInvalidFeeShares
		}
	case ParamMinStakeToPropose, ParamVotingPeriodMs, ParamAntiSnipeWindowMs:
		// Non-negative is the only constraint.
	default:
		return apperrors.ErrUnknownParam
	}
	return nil
}

// CastVote records a one-time ballot weighted by the voter's current stake.
func (s *governanceService) CastVote(voterID, proposalID string, support bool) (*models.Vote, error) {
	now := s.clk.Now()

	var vote models.Vote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var proposal models.Proposal
		if err := loadProposal(tx, proposalID, &proposal); err != nil {
			return err
		}
		if !now.Before(proposal.EndTime) {
			return apperrors.ErrProposalEnded
		}

		var count int64
		if err := tx.Model(&models.Vote{}).
			Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.ErrAlreadyVoted
		}

		weight, err := s.staking.StakeOf(voterID)
		if err != nil {
			return err
		}
		if weight == 0 {
			return apperrors.ErrNoVotingPower
		}

		vote = models.Vote{ProposalID: proposalID, VoterID: voterID, Support: support, Weight: weight}
		if txErr := tx.Create(&vote).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}

		if support {
			proposal.ForVotes += weight
		} else {
			proposal.AgainstVotes += weight
		}
		if txErr := tx.Save(&proposal).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(voterID, "proposal", proposalID, "VOTED", map[string]any{
		"support": support, "weight": vote.Weight,
	})
	return &vote, nil
}

// Execute finalizes a proposal once its voting period has ended. Approved
// proposals dispatch their action; rejected ones are only marked executed.
// Either way the executed flag is write-once.
func (s *governanceService) Execute(callerID, proposalID string) (*models.Proposal, error) {
	now := s.clk.Now()

	var proposal models.Proposal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadProposal(tx, proposalID, &proposal); err != nil {
			return err
		}
		if proposal.Executed {
			return apperrors.ErrAlreadyExecuted
		}
		if now.Before(proposal.EndTime) {
			return apperrors.ErrProposalNotEnded
		}

		params, err := getParams(tx)
		if err != nil {
			return err
		}
		pool, err := getPool(tx)
		if err != nil {
			return err
		}

		proposal.Passed = IsApproved(proposal.ForVotes, proposal.AgainstVotes, pool.TotalStaked, params)
		proposal.Executed = true

		if proposal.Passed {
			if err := s.dispatch(tx, params, &proposal); err != nil {
				return err
			}
		}

		if txErr := tx.Save(&proposal).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(callerID, "proposal", proposal.ID, "EXECUTED", map[string]any{
		"passed": proposal.Passed, "for_votes": proposal.ForVotes, "against_votes": proposal.AgainstVotes,
	})
	return &proposal, nil
}

// dispatch applies an approved proposal's action.
func (s *governanceService) dispatch(tx *gorm.DB, params *models.GovParams, proposal *models.Proposal) error {
	switch proposal.Action {
	case models.ProposalActionSignal:
		return nil

	case models.ProposalActionTransfer:
		treasury, err := getTreasury(tx)
		if err != nil {
			return err
		}
		balance := treasury.CoinBalance
		column := "coin_balance"
		if proposal.Currency == models.CurrencyToken {
			balance = treasury.TokenBalance
			column = "token_balance"
		}
		if balance < proposal.Amount {
			return apperrors.ErrInsufficientBalance
		}
		if err := tx.Model(treasury).
			Update(column, gorm.Expr(column+" - ?", proposal.Amount)).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return creditUser(tx, *proposal.RecipientID, proposal.Currency, proposal.Amount)

	case models.ProposalActionSetVIP:
		res := tx.Model(&models.User{}).Where("id = ?", *proposal.RecipientID).
			Update("is_vip", proposal.VIPStatus)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil

	case models.ProposalActionUpdateParam:
		// Re-validate against current parameters: another proposal may have
		// changed the store since this one was created.
		if err := validateParamUpdate(params, proposal.ParamKey, proposal.ParamValue); err != nil {
			return err
		}
		if err := tx.Model(params).Update(proposal.ParamKey, proposal.ParamValue).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil

	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown proposal action")
	}
}

// GetProposalByID returns one proposal.
func (s *governanceService) GetProposalByID(proposalID string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := loadProposal(s.db, proposalID, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetProposals returns a paginated list of proposals, newest first.
func (s *governanceService) GetProposals(page pagination.PageRequest) (*pagination.PageResponse[models.Proposal], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Proposal{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var proposals []models.Proposal
	if err := s.db.Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&proposals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(proposals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetParams returns the current governance parameters.
func (s *governanceService) GetParams() (*models.GovParams, error) {
	var params models.GovParams
	if err := s.db.First(&params).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &params, nil
}

// loadProposal fetches a proposal inside tx, mapping not-found.
func loadProposal(tx *gorm.DB, proposalID string, out *models.Proposal) error {
	if err := tx.Where("id = ?", proposalID).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrProposalNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
