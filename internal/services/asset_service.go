package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/feesplit"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// assetService handles the collectible registry.
type assetService struct {
	db     *gorm.DB
	clk    clock.Clock
	events EventServicer
}

// NewAssetService creates a new AssetServicer.
func NewAssetService(db *gorm.DB, clk clock.Clock, events EventServicer) AssetServicer {
	return &assetService{db: db, clk: clk, events: events}
}

// MintWhole registers a new whole collectible. Expiry and royalty terms are
// fixed at mint time and never change afterwards.
func (a *assetService) MintWhole(ownerID, name string, expiresAt *time.Time, royaltyRecipientID *string, royaltyBps int64) (*models.Asset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name is required")
	}
	if royaltyBps < 0 || royaltyBps > feesplit.BpsDenominator {
		return nil, apperrors.ErrInvalidRoyalty
	}
	if royaltyBps > 0 && royaltyRecipientID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidRoyalty, "Royalty requires a recipient")
	}
	if expiresAt != nil && !expiresAt.After(a.clk.Now()) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Expiry must be in the future")
	}

	asset := &models.Asset{
		Kind:               models.AssetKindWhole,
		Name:               name,
		OwnerID:            ownerID,
		ExpiresAt:          expiresAt,
		RoyaltyRecipientID: royaltyRecipientID,
		RoyaltyBps:         royaltyBps,
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if royaltyRecipientID != nil {
			if _, err := getUser(tx, *royaltyRecipientID); err != nil {
				return err
			}
		}
		if txErr := tx.Create(asset).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Emit(ownerID, "asset", asset.ID, "MINTED", map[string]any{
		"kind": asset.Kind, "name": name, "royalty_bps": royaltyBps,
	})
	return asset, nil
}

// MintFraction registers a fractional share of an existing whole collectible.
// The parent must be a whole asset and must not be expired; the parent itself
// stays with its owner.
func (a *assetService) MintFraction(ownerID, parentID, name string, units int64) (*models.Asset, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Name is required")
	}
	if units <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	now := a.clk.Now()
	asset := &models.Asset{
		Kind:     models.AssetKindFraction,
		Name:     name,
		OwnerID:  ownerID,
		ParentID: &parentID,
		Units:    units,
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		var parent models.Asset
		if err := tx.Where("id = ?", parentID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrAssetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if parent.Kind != models.AssetKindWhole {
			return apperrors.ErrNotWholeAsset
		}
		if parent.OwnerID != ownerID {
			return apperrors.ErrNotOwner
		}
		if parent.ExpiredAt(now) {
			return apperrors.ErrAssetExpired
		}

		// Fractions inherit the parent's expiry and royalty terms.
		asset.ExpiresAt = parent.ExpiresAt
		asset.RoyaltyRecipientID = parent.RoyaltyRecipientID
		asset.RoyaltyBps = parent.RoyaltyBps

		if txErr := tx.Create(asset).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Emit(ownerID, "asset", asset.ID, "MINTED", map[string]any{
		"kind": asset.Kind, "name": name, "parent_id": parentID, "units": units,
	})
	return asset, nil
}

// GetAssetByID returns one asset.
func (a *assetService) GetAssetByID(assetID string) (*models.Asset, error) {
	var asset models.Asset
	if err := a.db.Where("id = ?", assetID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// GetUserAssets returns a paginated list of a user's assets, newest first.
func (a *assetService) GetUserAssets(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error) {
	page.Defaults()

	base := a.db.Model(&models.Asset{}).Where("owner_id = ?", ownerID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := a.db.Where("owner_id = ?", ownerID).Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(assets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Transfer gives an asset directly to another user, outside any market flow.
// Escrowed assets cannot move; royalty terms travel with the asset.
func (a *assetService) Transfer(ownerID, assetID, recipientID string) (*models.Asset, error) {
	if ownerID == recipientID {
		return nil, apperrors.ErrSelfDeal
	}

	var asset models.Asset
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", assetID).First(&asset).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrAssetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if asset.OwnerID != ownerID {
			return apperrors.ErrNotOwner
		}
		if asset.Escrowed() {
			return apperrors.ErrAssetEscrowed
		}
		if _, err := getUser(tx, recipientID); err != nil {
			return err
		}

		asset.OwnerID = recipientID
		if txErr := tx.Save(&asset).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.events.Emit(ownerID, "asset", asset.ID, "TRANSFERRED", map[string]any{
		"recipient_id": recipientID,
	})
	return &asset, nil
}
