package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tessera/internal/errors"
	"tessera/internal/pagination"
	"tessera/internal/services"
)

// AssetHandler handles collectible registry requests.
type AssetHandler struct {
	assetService services.AssetServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// MintWholeRequest represents the payload for minting a whole collectible
type MintWholeRequest struct {
	Name               string  `json:"name" binding:"required,max=255"`
	ExpiresAt          *string `json:"expires_at"`
	RoyaltyRecipientID *string `json:"royalty_recipient_id" binding:"omitempty,uuid"`
	RoyaltyBps         int64   `json:"royalty_bps" binding:"gte=0,lte=10000"`
}

// MintFractionRequest represents the payload for minting a fractional share
type MintFractionRequest struct {
	ParentID string `json:"parent_id" binding:"required,uuid"`
	Name     string `json:"name" binding:"required,max=255"`
	Units    int64  `json:"units" binding:"required,gt=0"`
}

// TransferAssetRequest represents the payload for a direct asset transfer
type TransferAssetRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
}

// MintWhole handles minting a whole collectible
// @Summary     Mint a collectible
// @Description Mint a new whole digital-experience collectible with optional expiry and royalty terms
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MintWholeRequest true "Collectible details"
// @Success     201 {object} models.Asset "Asset minted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [post]
func (h *AssetHandler) MintWhole(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MintWholeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		parsed, parseErr := time.Parse(time.RFC3339, *req.ExpiresAt)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid expires_at"))
			return
		}
		expiresAt = &parsed
	}

	asset, err := h.assetService.MintWhole(userID, req.Name, expiresAt, req.RoyaltyRecipientID, req.RoyaltyBps)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// MintFraction handles minting a fractional share
// @Summary     Mint a fractional share
// @Description Mint a fractional share of a whole collectible the caller owns
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MintFractionRequest true "Fraction details"
// @Success     201 {object} models.Asset "Fraction minted"
// @Failure     400 {object} ErrorResponse "Invalid input or parent not a whole collectible"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Parent asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/fractions [post]
func (h *AssetHandler) MintFraction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MintFractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.MintFraction(userID, req.ParentID, req.Name, req.Units)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAsset returns one asset
// @Summary     Get an asset
// @Description Get a single asset by ID
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset ID"
// @Success     200 {object} models.Asset "Asset"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	asset, err := h.assetService.GetAssetByID(assetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// GetMyAssets returns the caller's assets
// @Summary     List my assets
// @Description Get a paginated list of the authenticated user's assets
// @Tags        assets
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Asset] "Paginated assets"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets [get]
func (h *AssetHandler) GetMyAssets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.assetService.GetUserAssets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Transfer hands an asset to another user
// @Summary     Transfer an asset
// @Description Transfer an unescrowed asset directly to another user
// @Tags        assets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Asset ID"
// @Param       request body TransferAssetRequest true "Transfer details"
// @Success     200 {object} models.Asset "Asset transferred"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Asset not found"
// @Failure     409 {object} ErrorResponse "Asset is escrowed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /assets/{id}/transfer [post]
func (h *AssetHandler) Transfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	assetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.Transfer(userID, assetID, req.RecipientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}
