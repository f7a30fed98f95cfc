package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "tessera/internal/errors"
	"tessera/internal/models"
)

// Shared escrow plumbing for the four markets. A market entity takes custody
// of an asset by stamping its EscrowRef; every terminal transition releases
// or transfers the asset in the same database transaction that flips the
// entity's status, so no entity outlives its payout.

// loadListableAsset loads an asset and verifies the caller owns it, it is not
// already escrowed, and it has not expired. Used by every listing operation.
func loadListableAsset(tx *gorm.DB, assetID, ownerID string, now time.Time) (*models.Asset, error) {
	var asset models.Asset
	if err := tx.Where("id = ?", assetID).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if asset.OwnerID != ownerID {
		return nil, apperrors.ErrNotOwner
	}
	if asset.Escrowed() {
		return nil, apperrors.ErrAssetEscrowed
	}
	if asset.ExpiredAt(now) {
		return nil, apperrors.ErrAssetExpired
	}
	return &asset, nil
}

// escrowAsset stamps the asset with the holding entity's reference.
func escrowAsset(tx *gorm.DB, assetID, ref string) error {
	if err := tx.Model(&models.Asset{}).Where("id = ?", assetID).
		Update("escrow_ref", ref).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// releaseAsset clears the escrow reference, returning custody to the owner
// of record.
func releaseAsset(tx *gorm.DB, assetID string) error {
	return escrowAsset(tx, assetID, "")
}

// transferAsset releases the asset and hands ownership to a new user in one
// step, as happens when an auction or sale settles.
func transferAsset(tx *gorm.DB, assetID, newOwnerID string) error {
	if err := tx.Model(&models.Asset{}).Where("id = ?", assetID).
		Updates(map[string]interface{}{
			"owner_id":   newOwnerID,
			"escrow_ref": "",
		}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// msToDuration converts a millisecond count into a time.Duration.
func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
