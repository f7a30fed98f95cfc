package services

import (
	"errors"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// saleService handles fixed-price sales.
type saleService struct {
	db     *gorm.DB
	clk    clock.Clock
	fees   feeEngine
	events EventServicer
}

// NewSaleService creates a new SaleServicer.
func NewSaleService(db *gorm.DB, clk clock.Clock, events EventServicer) SaleServicer {
	return &saleService{db: db, clk: clk, events: events}
}

// List escrows an asset into a new fixed-price listing.
func (s *saleService) List(sellerID, assetID string, price int64, currency models.Currency) (*models.SaleListing, error) {
	if price <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if !currency.Valid() {
		return nil, apperrors.ErrCurrencyMismatch
	}

	now := s.clk.Now()
	listing := &models.SaleListing{
		AssetID:  assetID,
		SellerID: sellerID,
		Price:    price,
		Currency: currency,
		Status:   models.ListingStatusOpen,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		asset, err := loadListableAsset(tx, assetID, sellerID, now)
		if err != nil {
			return err
		}
		if txErr := tx.Create(listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return escrowAsset(tx, asset.ID, "sale:"+listing.ID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sellerID, "sale", listing.ID, "LISTED", map[string]any{
		"asset_id": assetID, "price": price, "currency": currency,
	})
	return listing, nil
}

// Buy settles an open listing in one action: the buyer pays the price,
// royalty comes off the top, the platform fee applies to the remainder, and
// ownership transfers to the buyer.
func (s *saleService) Buy(buyerID, listingID string, currency models.Currency) (*models.SaleListing, error) {
	var listing models.SaleListing
	var breakdown *FeeBreakdown
	var royalty int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadSale(tx, listingID, &listing); err != nil {
			return err
		}
		if listing.Status != models.ListingStatusOpen {
			return apperrors.ErrListingNotOpen
		}
		if listing.SellerID == buyerID {
			return apperrors.ErrSelfDeal
		}
		if currency != listing.Currency {
			return apperrors.ErrCurrencyMismatch
		}

		buyer, err := getUser(tx, buyerID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, buyer, listing.Currency, listing.Price); err != nil {
			return err
		}

		var asset models.Asset
		if err := tx.Where("id = ?", listing.AssetID).First(&asset).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		remainder, r, err := s.fees.takeRoyalty(tx, &asset, listing.Price, listing.Currency)
		if err != nil {
			return err
		}
		royalty = r

		seller, err := getUser(tx, listing.SellerID)
		if err != nil {
			return err
		}
		breakdown, err = s.fees.takeFee(tx, seller, remainder, listing.Currency)
		if err != nil {
			return err
		}
		breakdown.Royalty = royalty

		listing.Status = models.ListingStatusSettled
		listing.BuyerID = &buyerID
		if txErr := tx.Save(&listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return transferAsset(tx, listing.AssetID, buyerID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(buyerID, "sale", listing.ID, "PURCHASED", map[string]any{
		"seller_id": listing.SellerID, "price": listing.Price,
		"royalty": royalty, "fees": breakdown,
	})
	return &listing, nil
}

// Cancel withdraws an open listing. No fee.
func (s *saleService) Cancel(sellerID, listingID string) (*models.SaleListing, error) {
	var listing models.SaleListing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadSale(tx, listingID, &listing); err != nil {
			return err
		}
		if listing.SellerID != sellerID {
			return apperrors.ErrNotOwner
		}
		if listing.Status != models.ListingStatusOpen {
			return apperrors.ErrListingNotOpen
		}

		listing.Status = models.ListingStatusCancelled
		if txErr := tx.Save(&listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return releaseAsset(tx, listing.AssetID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sellerID, "sale", listing.ID, "CANCELLED", nil)
	return &listing, nil
}

// GetListingByID returns one sale listing with its asset.
func (s *saleService) GetListingByID(listingID string) (*models.SaleListing, error) {
	var listing models.SaleListing
	if err := s.db.Preload("Asset").Where("id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &listing, nil
}

// GetOpenListings returns a paginated list of open sale listings.
func (s *saleService) GetOpenListings(page pagination.PageRequest) (*pagination.PageResponse[models.SaleListing], error) {
	page.Defaults()

	base := s.db.Model(&models.SaleListing{}).Where("status = ?", models.ListingStatusOpen)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var listings []models.SaleListing
	if err := s.db.Preload("Asset").Where("status = ?", models.ListingStatusOpen).
		Scopes(pagination.Paginate(page)).Find(&listings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(listings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// loadSale fetches a listing inside tx, mapping not-found to the listing error.
func loadSale(tx *gorm.DB, listingID string, out *models.SaleListing) error {
	if err := tx.Where("id = ?", listingID).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrListingNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
