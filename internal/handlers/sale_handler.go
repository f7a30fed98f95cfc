package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// SaleHandler handles fixed-price sale requests.
type SaleHandler struct {
	saleService services.SaleServicer
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleService services.SaleServicer) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// CreateSaleRequest represents the payload for listing an asset for sale
type CreateSaleRequest struct {
	AssetID  string          `json:"asset_id" binding:"required,uuid"`
	Price    int64           `json:"price" binding:"required,gt=0"`
	Currency models.Currency `json:"currency" binding:"required,currency"`
}

// BuyRequest represents the payload for buying a listed asset
type BuyRequest struct {
	Currency models.Currency `json:"currency" binding:"required,currency"`
}

// CreateListing handles listing an asset for sale
// @Summary     List an asset for sale
// @Description Escrow an owned asset into a new fixed-price listing
// @Tags        sales
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSaleRequest true "Listing details"
// @Success     201 {object} models.SaleListing "Listing created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     409 {object} ErrorResponse "Asset escrowed or expired"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sales [post]
func (h *SaleHandler) CreateListing(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	listing, err := h.saleService.List(userID, req.AssetID, req.Price, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// Buy handles purchasing a listed asset
// @Summary     Buy an asset
// @Description Pay the listed price and take ownership in a single action
// @Tags        sales
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Param       request body BuyRequest true "Payment currency"
// @Success     200 {object} models.SaleListing "Purchase settled"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing not open"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sales/{id}/buy [post]
func (h *SaleHandler) Buy(c *gin.Context) {
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

	var req BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	listing, err := h.saleService.Buy(userID, listingID, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Cancel handles withdrawing an open sale listing
// @Summary     Cancel a sale listing
// @Description Withdraw an open listing and release the asset from escrow
// @Tags        sales
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} models.SaleListing "Listing cancelled"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     409 {object} ErrorResponse "Listing not open"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sales/{id} [delete]
func (h *SaleHandler) Cancel(c *gin.Context) {
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

	listing, err := h.saleService.Cancel(userID, listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// GetListing returns one sale listing
// @Summary     Get a sale listing
// @Description Get a single sale listing by ID
// @Tags        sales
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Listing ID"
// @Success     200 {object} models.SaleListing "Listing"
// @Failure     404 {object} ErrorResponse "Listing not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sales/{id} [get]
func (h *SaleHandler) GetListing(c *gin.Context) {
	listingID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	listing, err := h.saleService.GetListingByID(listingID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// GetOpenListings returns open sale listings
// @Summary     Browse open sale listings
// @Description Get a paginated list of open fixed-price listings
// @Tags        sales
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.SaleListing] "Paginated listings"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /sales [get]
func (h *SaleHandler) GetOpenListings(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.saleService.GetOpenListings(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
