package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// AuctionHandler handles auction house requests.
type AuctionHandler struct {
	auctionService services.AuctionServicer
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(auctionService services.AuctionServicer) *AuctionHandler {
	return &AuctionHandler{auctionService: auctionService}
}

// CreateAuctionRequest represents the payload for creating an auction
type CreateAuctionRequest struct {
	AssetID      string          `json:"asset_id" binding:"required,uuid"`
	StartPrice   int64           `json:"start_price" binding:"required,gt=0"`
	ReservePrice int64           `json:"reserve_price" binding:"gte=0"`
	Currency     models.Currency `json:"currency" binding:"required,currency"`
	EndTime      string          `json:"end_time" binding:"required"`
}

// BidRequest represents the payload for placing a bid
type BidRequest struct {
	Amount   int64           `json:"amount" binding:"required,gt=0"`
	Currency models.Currency `json:"currency" binding:"required,currency"`
}

// CreateAuction handles creating an auction
// @Summary     Create an auction
// @Description Escrow an owned asset into a new timed auction
// @Tags        auctions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAuctionRequest true "Auction details"
// @Success     201 {object} models.Auction "Auction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     409 {object} ErrorResponse "Asset escrowed or expired"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions [post]
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end_time"))
		return
	}

	auction, err := h.auctionService.Create(userID, req.AssetID, req.StartPrice, req.ReservePrice, req.Currency, endTime)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"auction": auction})
}

// Bid handles placing a bid
// @Summary     Place a bid
// @Description Escrow a bid that must exceed the current highest bid, or the start price for the first bid. Bids inside the anti-snipe window extend the auction.
// @Tags        auctions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Auction ID"
// @Param       request body BidRequest true "Bid details"
// @Success     200 {object} models.Auction "Bid accepted"
// @Failure     400 {object} ErrorResponse "Bid too low or insufficient balance"
// @Failure     404 {object} ErrorResponse "Auction not found"
// @Failure     409 {object} ErrorResponse "Auction ended"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions/{id}/bid [post]
func (h *AuctionHandler) Bid(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	auctionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	auction, err := h.auctionService.Bid(userID, auctionID, req.Amount, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// Settle handles settling an ended auction
// @Summary     Settle an auction
// @Description Close an ended auction: transfer the asset to the winner and split the proceeds, or return everything if the reserve was not met
// @Tags        auctions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Auction ID"
// @Success     200 {object} models.Auction "Auction settled"
// @Failure     404 {object} ErrorResponse "Auction not found"
// @Failure     409 {object} ErrorResponse "Auction not ended or already settled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions/{id}/settle [post]
func (h *AuctionHandler) Settle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	auctionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	auction, err := h.auctionService.Settle(userID, auctionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// Cancel handles withdrawing a bidless auction
// @Summary     Cancel an auction
// @Description Withdraw an auction that has not received any bid
// @Tags        auctions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Auction ID"
// @Success     200 {object} models.Auction "Auction cancelled"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Auction not found"
// @Failure     409 {object} ErrorResponse "Auction already has a bid"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions/{id} [delete]
func (h *AuctionHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	auctionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	auction, err := h.auctionService.Cancel(userID, auctionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// GetAuction returns one auction
// @Summary     Get an auction
// @Description Get a single auction by ID
// @Tags        auctions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Auction ID"
// @Success     200 {object} models.Auction "Auction"
// @Failure     404 {object} ErrorResponse "Auction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions/{id} [get]
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auctionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	auction, err := h.auctionService.GetAuctionByID(auctionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auction": auction})
}

// GetOpenAuctions returns running auctions
// @Summary     Browse open auctions
// @Description Get a paginated list of running auctions
// @Tags        auctions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Auction] "Paginated auctions"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auctions [get]
func (h *AuctionHandler) GetOpenAuctions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auctionService.GetOpenAuctions(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
