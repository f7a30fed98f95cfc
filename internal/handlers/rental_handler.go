package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// RentalHandler handles rental market requests.
type RentalHandler struct {
	rentalService services.RentalServicer
}

// NewRentalHandler creates a new RentalHandler.
func NewRentalHandler(rentalService services.RentalServicer) *RentalHandler {
	return &RentalHandler{rentalService: rentalService}
}

// CreateRentalRequest represents the payload for listing an asset for rent
type CreateRentalRequest struct {
	AssetID    string          `json:"asset_id" binding:"required,uuid"`
	Price      int64           `json:"price" binding:"required,gt=0"`
	Currency   models.Currency `json:"currency" binding:"required,currency"`
	DurationMs int64           `json:"duration_ms" binding:"required,gt=0"`
}

// RentRequest represents the payload for renting a listed asset
type RentRequest struct {
	Currency models.Currency `json:"currency" binding:"required,currency"`
}

// CreateListing handles listing an asset for rent
// @Summary     List an asset for rent
// @Description Escrow an owned asset into a new rental listing
// @Tags        rentals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRentalRequest true "Listing details"
// @Success     201 {object} models.RentalListing "Listing created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     409 {object} ErrorResponse "Asset escrowed or expired"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals [post]
func (h *RentalHandler) CreateListing(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	listing, err := h.rentalService.List(userID, req.AssetID, req.Price, req.Currency, req.DurationMs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// Rent handles renting a listed asset
// @Summary     Rent an asset
// @Description Pay the listed price and start the rental period
// @Tags        rentals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Param       request body RentRequest true "Payment currency"
// @Success     200 {object} models.RentalListing "Rental started"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing already filled"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals/{id}/rent [post]
func (h *RentalHandler) Rent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	listing, err := h.rentalService.Rent(userID, listingID, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Reclaim handles reclaiming an asset after the rental period
// @Summary     Reclaim a rented asset
// @Description Return the asset to the owner once the rental period has elapsed
// @Tags        rentals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} models.RentalListing "Asset reclaimed"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Rental period not elapsed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals/{id}/reclaim [post]
func (h *RentalHandler) Reclaim(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.rentalService.Reclaim(userID, listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Cancel handles withdrawing an open rental listing
// @Summary     Cancel a rental listing
// @Description Withdraw an open listing and release the asset from escrow
// @Tags        rentals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} models.RentalListing "Listing cancelled"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing not open"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals/{id} [delete]
func (h *RentalHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	listingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.rentalService.Cancel(userID, listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// GetListing returns one rental listing
// @Summary     Get a rental listing
// @Description Get a single rental listing by ID
// @Tags        rentals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} models.RentalListing "Listing"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals/{id} [get]
func (h *RentalHandler) GetListing(c *gin.Context) {
	listingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.rentalService.GetListingByID(listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// GetOpenListings returns open rental listings
// @Summary     Browse open rental listings
// @Description Get a paginated list of open rental listings
// @Tags        rentals
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.RentalListing] "Paginated listings"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rentals [get]
func (h *RentalHandler) GetOpenListings(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.rentalService.GetOpenListings(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
