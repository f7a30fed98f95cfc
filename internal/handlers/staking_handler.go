package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/services"
)

// StakingHandler handles staking pool requests.
type StakingHandler struct {
	stakingService services.StakingServicer
}

// NewStakingHandler creates a new StakingHandler.
func NewStakingHandler(stakingService services.StakingServicer) *StakingHandler {
	return &StakingHandler{stakingService: stakingService}
}

// StakeRequest represents the payload for staking tokens
type StakeRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// FundRewardsRequest represents the payload for funding the reward pool
type FundRewardsRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// EmissionRateRequest represents the payload for changing the emission rate
type EmissionRateRequest struct {
	Rate int64 `json:"rate" binding:"gte=0"`
}

// Stake handles staking tokens
// @Summary     Stake tokens
// @Description Move tokens from the caller's balance into the staking pool
// @Tags        staking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body StakeRequest true "Stake amount"
// @Success     200 {object} models.StakePosition "Position after staking"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/stake [post]
func (h *StakingHandler) Stake(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req StakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	position, err := h.stakingService.Stake(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"position": position})
}

// Unstake handles withdrawing the full stake
// @Summary     Unstake tokens
// @Description Withdraw the full stake plus any pending reward, closing the position
// @Tags        staking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Reward paid out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No staking position"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/unstake [post]
func (h *StakingHandler) Unstake(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paidOut, err := h.stakingService.Unstake(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reward_paid": paidOut})
}

// Claim handles claiming the pending reward
// @Summary     Claim rewards
// @Description Claim the accrued reward without touching the stake
// @Tags        staking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Reward paid out"
// @Failure     400 {object} ErrorResponse "No reward accrued"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No staking position"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/claim [post]
func (h *StakingHandler) Claim(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paidOut, err := h.stakingService.Claim(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reward_paid": paidOut})
}

// GetPending reports the caller's accrued reward
// @Summary     Get pending reward
// @Description Report the caller's stake and accrued but unclaimed reward
// @Tags        staking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PendingReward "Pending reward"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No staking position"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/pending [get]
func (h *StakingHandler) GetPending(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	pending, err := h.stakingService.Pending(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pending)
}

// FundRewards handles depositing tokens into the reward pool
// @Summary     Fund the reward pool
// @Description Deposit tokens from the caller's balance into the pool's reward reserve
// @Tags        staking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body FundRewardsRequest true "Funding amount"
// @Success     200 {object} models.StakePool "Pool after funding"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/fund [post]
func (h *StakingHandler) FundRewards(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FundRewardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pool, err := h.stakingService.FundRewards(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pool": pool})
}

// SetEmissionRate handles changing the reward emission rate
// @Summary     Set emission rate
// @Description Change the per-second reward emission rate (admin only)
// @Tags        staking
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body EmissionRateRequest true "New rate"
// @Success     200 {object} models.StakePool "Pool after the change"
// @Failure     400 {object} ErrorResponse "Invalid rate"
// @Failure     403 {object} ErrorResponse "Not an administrator"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/emission-rate [put]
func (h *StakingHandler) SetEmissionRate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EmissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	pool, err := h.stakingService.SetEmissionRate(userID, req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pool": pool})
}

// GetPool returns the staking pool state
// @Summary     Get the staking pool
// @Description Get the pool's totals, reward reserves, and emission rate
// @Tags        staking
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.StakePool "Pool state"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /staking/pool [get]
func (h *StakingHandler) GetPool(c *gin.Context) {
	pool, err := h.stakingService.GetPool()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pool": pool})
}
