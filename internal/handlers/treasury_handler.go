package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/services"
)

// TreasuryHandler handles treasury and burn sink requests.
type TreasuryHandler struct {
	treasuryService services.TreasuryServicer
}

// NewTreasuryHandler creates a new TreasuryHandler.
func NewTreasuryHandler(treasuryService services.TreasuryServicer) *TreasuryHandler {
	return &TreasuryHandler{treasuryService: treasuryService}
}

// TreasuryDepositRequest represents a direct treasury donation payload
type TreasuryDepositRequest struct {
	Currency models.Currency `json:"currency" binding:"required,currency"`
	Amount   int64           `json:"amount" binding:"required,gt=0"`
}

// Deposit handles donating funds to the treasury
// @Summary     Deposit into the treasury
// @Description Move funds from the caller's balance into the community treasury
// @Tags        treasury
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TreasuryDepositRequest true "Deposit details"
// @Success     200 {object} models.Treasury "Treasury after deposit"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /treasury/deposit [post]
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TreasuryDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	treasury, err := h.treasuryService.Deposit(userID, req.Currency, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"treasury": treasury})
}

// GetTreasury returns the treasury balances
// @Summary     Get the treasury
// @Description Get the community treasury's current balances
// @Tags        treasury
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Treasury "Treasury balances"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /treasury [get]
func (h *TreasuryHandler) GetTreasury(c *gin.Context) {
	treasury, err := h.treasuryService.Get()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"treasury": treasury})
}

// GetBurnSink returns the cumulative burned totals
// @Summary     Get the burn sink
// @Description Get the cumulative totals permanently removed from circulation
// @Tags        treasury
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BurnSink "Burn totals"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /treasury/burned [get]
func (h *TreasuryHandler) GetBurnSink(c *gin.Context) {
	sink, err := h.treasuryService.GetBurnSink()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"burn_sink": sink})
}
