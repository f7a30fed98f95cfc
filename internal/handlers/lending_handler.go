package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// LendingHandler handles collateralized lending requests.
type LendingHandler struct {
	lendingService services.LendingServicer
}

// NewLendingHandler creates a new LendingHandler.
func NewLendingHandler(lendingService services.LendingServicer) *LendingHandler {
	return &LendingHandler{lendingService: lendingService}
}

// CreateLoanRequest represents the payload for a new loan request
type CreateLoanRequest struct {
	AssetID         string          `json:"asset_id" binding:"required,uuid"`
	Principal       int64           `json:"principal" binding:"required,gt=0"`
	RepaymentAmount int64           `json:"repayment_amount" binding:"required,gt=0"`
	Currency        models.Currency `json:"currency" binding:"required,currency"`
	DurationMs      int64           `json:"duration_ms" binding:"required,gt=0"`
}

// FundLoanRequest represents the payload for funding a loan
type FundLoanRequest struct {
	Currency models.Currency `json:"currency" binding:"required,currency"`
}

// CreateLoan handles creating a loan request
// @Summary     Request a loan
// @Description Escrow an owned asset as collateral for a new loan request
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan terms"
// @Success     201 {object} models.Loan "Loan request created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     409 {object} ErrorResponse "Asset escrowed or expired"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [post]
func (h *LendingHandler) CreateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	loan, err := h.lendingService.Request(userID, req.AssetID, req.Principal, req.RepaymentAmount, req.Currency, req.DurationMs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// Fund handles funding an open loan request
// @Summary     Fund a loan
// @Description Pay the principal to the borrower and start the due clock
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Param       request body FundLoanRequest true "Payment currency"
// @Success     200 {object} models.Loan "Loan funded"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Loan already funded"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/fund [post]
func (h *LendingHandler) Fund(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req FundLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	loan, err := h.lendingService.Fund(userID, loanID, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// Repay handles repaying an active loan
// @Summary     Repay a loan
// @Description Pay the full repayment amount before the due time and reclaim the collateral
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan repaid"
// @Failure     400 {object} ErrorResponse "Insufficient balance"
// @Failure     403 {object} ErrorResponse "Not the borrower"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Loan past due or already settled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/repay [post]
func (h *LendingHandler) Repay(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.lendingService.Repay(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// Liquidate handles seizing collateral on a defaulted loan
// @Summary     Liquidate a loan
// @Description Take ownership of the collateral once the due time has passed
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Collateral seized"
// @Failure     403 {object} ErrorResponse "Not the lender"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Loan not yet due or already settled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/liquidate [post]
func (h *LendingHandler) Liquidate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.lendingService.Liquidate(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// Cancel handles withdrawing an unfunded loan request
// @Summary     Cancel a loan request
// @Description Withdraw an unfunded loan request and release the collateral
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan request cancelled"
// @Failure     403 {object} ErrorResponse "Not the borrower"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     409 {object} ErrorResponse "Loan not open"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [delete]
func (h *LendingHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.lendingService.Cancel(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// GetLoan returns one loan
// @Summary     Get a loan
// @Description Get a single loan by ID
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [get]
func (h *LendingHandler) GetLoan(c *gin.Context) {
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.lendingService.GetLoanByID(loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// GetOpenLoans returns unfunded loan requests
// @Summary     Browse open loan requests
// @Description Get a paginated list of unfunded loan requests
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Paginated loans"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [get]
func (h *LendingHandler) GetOpenLoans(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.lendingService.GetOpenLoans(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
