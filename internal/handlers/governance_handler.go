package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// GovernanceHandler handles DAO requests.
type GovernanceHandler struct {
	governanceService services.GovernanceServicer
}

// NewGovernanceHandler creates a new GovernanceHandler.
func NewGovernanceHandler(governanceService services.GovernanceServicer) *GovernanceHandler {
	return &GovernanceHandler{governanceService: governanceService}
}

// CreateProposalRequest represents the payload for a new proposal
type CreateProposalRequest struct {
	Title       string                `json:"title" binding:"required,max=255"`
	Description string                `json:"description" binding:"max=2000"`
	Action      models.ProposalAction `json:"action" binding:"required,proposal_action"`
	RecipientID *string               `json:"recipient_id" binding:"omitempty,uuid"`
	Amount      int64                 `json:"amount" binding:"gte=0"`
	Currency    models.Currency       `json:"currency" binding:"omitempty,currency"`
	ParamKey    string                `json:"param_key" binding:"max=64"`
	ParamValue  int64                 `json:"param_value"`
	VIPStatus   bool                  `json:"vip_status"`
}

// VoteRequest represents the payload for casting a vote
type VoteRequest struct {
	Support *bool `json:"support" binding:"required"`
}

// CreateProposal handles creating a proposal
// @Summary     Create a proposal
// @Description Create a governance proposal; requires the minimum stake
// @Tags        governance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProposalRequest true "Proposal details"
// @Success     201 {object} models.Proposal "Proposal created"
// @Failure     400 {object} ErrorResponse "Invalid payload or insufficient stake"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/proposals [post]
func (h *GovernanceHandler) CreateProposal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	proposal, err := h.governanceService.Propose(userID, services.ProposalInput{
		Title:       req.Title,
		Description: req.Description,
		Action:      req.Action,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		ParamKey:    req.ParamKey,
		ParamValue:  req.ParamValue,
		VIPStatus:   req.VIPStatus,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"proposal": proposal})
}

// Vote handles casting a vote
// @Summary     Vote on a proposal
// @Description Cast a one-time ballot weighted by the caller's current stake
// @Tags        governance
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Proposal ID"
// @Param       request body VoteRequest true "Ballot"
// @Success     200 {object} models.Vote "Vote recorded"
// @Failure     400 {object} ErrorResponse "No voting power"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Voting ended or already voted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/proposals/{id}/vote [post]
func (h *GovernanceHandler) Vote(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	proposalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	vote, err := h.governanceService.CastVote(userID, proposalID, *req.Support)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vote": vote})
}

// Execute handles finalizing an ended proposal
// @Summary     Execute a proposal
// @Description Finalize an ended proposal, dispatching its action if approved
// @Tags        governance
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Proposal ID"
// @Success     200 {object} models.Proposal "Proposal executed"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     409 {object} ErrorResponse "Voting not ended or already executed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/proposals/{id}/execute [post]
func (h *GovernanceHandler) Execute(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	proposalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	proposal, err := h.governanceService.Execute(userID, proposalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

// GetProposal returns one proposal
// @Summary     Get a proposal
// @Description Get a single proposal with its tally
// @Tags        governance
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Proposal ID"
// @Success     200 {object} models.Proposal "Proposal"
// @Failure     404 {object} ErrorResponse "Proposal not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/proposals/{id} [get]
func (h *GovernanceHandler) GetProposal(c *gin.Context) {
	proposalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	proposal, err := h.governanceService.GetProposalByID(proposalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposal": proposal})
}

// GetProposals returns all proposals
// @Summary     Browse proposals
// @Description Get a paginated list of proposals, newest first
// @Tags        governance
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Proposal] "Paginated proposals"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/proposals [get]
func (h *GovernanceHandler) GetProposals(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.governanceService.GetProposals(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetParams returns the governance parameters
// @Summary     Get governance parameters
// @Description Get the current values of every governed parameter
// @Tags        governance
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.GovParams "Current parameters"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /governance/params [get]
func (h *GovernanceHandler) GetParams(c *gin.Context) {
	params, err := h.governanceService.GetParams()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"params": params})
}
