package services

import (
	"errors"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// rentalService handles the rental market.
type rentalService struct {
	db     *gorm.DB
	clk    clock.Clock
	fees   feeEngine
	events EventServicer
}

// NewRentalService creates a new RentalServicer.
func NewRentalService(db *gorm.DB, clk clock.Clock, events EventServicer) RentalServicer {
	return &rentalService{db: db, clk: clk, events: events}
}

// List escrows an asset into a new open rental listing.
func (s *rentalService) List(ownerID, assetID string, price int64, currency models.Currency, durationMs int64) (*models.RentalListing, error) {
	if price <= 0 || durationMs <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if !currency.Valid() {
		return nil, apperrors.ErrCurrencyMismatch
	}

	now := s.clk.Now()
	listing := &models.RentalListing{
		AssetID:    assetID,
		OwnerID:    ownerID,
		Price:      price,
		Currency:   currency,
		DurationMs: durationMs,
		Status:     models.ListingStatusOpen,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		asset, err := loadListableAsset(tx, assetID, ownerID, now)
		if err != nil {
			return err
		}
		if txErr := tx.Create(listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return escrowAsset(tx, asset.ID, "rental:"+listing.ID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ownerID, "rental", listing.ID, "LISTED", map[string]any{
		"asset_id": assetID, "price": price, "currency": currency, "duration_ms": durationMs,
	})
	return listing, nil
}

// Rent fills an open listing exactly once. The renter pays the full price;
// the owner receives the net after the platform fee.
func (s *rentalService) Rent(renterID, listingID string, currency models.Currency) (*models.RentalListing, error) {
	now := s.clk.Now()

	var listing models.RentalListing
	var breakdown *FeeBreakdown

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadRental(tx, listingID, &listing); err != nil {
			return err
		}
		switch listing.Status {
		case models.ListingStatusOpen:
		case models.ListingStatusActive:
			return apperrors.ErrAlreadyFilled
		default:
			return apperrors.ErrListingNotOpen
		}
		if listing.OwnerID == renterID {
			return apperrors.ErrSelfDeal
		}
		if currency != listing.Currency {
			return apperrors.ErrCurrencyMismatch
		}

		renter, err := getUser(tx, renterID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, renter, listing.Currency, listing.Price); err != nil {
			return err
		}

		owner, err := getUser(tx, listing.OwnerID)
		if err != nil {
			return err
		}
		breakdown, err = s.fees.takeFee(tx, owner, listing.Price, listing.Currency)
		if err != nil {
			return err
		}

		end := now.Add(msToDuration(listing.DurationMs))
		listing.Status = models.ListingStatusActive
		listing.RenterID = &renterID
		listing.StartTime = &now
		listing.EndTime = &end
		if txErr := tx.Save(&listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(renterID, "rental", listing.ID, "RENTED", map[string]any{
		"owner_id": listing.OwnerID, "start_time": listing.StartTime.UnixMilli(),
		"end_time": listing.EndTime.UnixMilli(), "fees": breakdown,
	})
	return &listing, nil
}

// Reclaim settles an active rental after its window has elapsed, returning
// the asset to the owner. Expiration is evaluated lazily, here.
func (s *rentalService) Reclaim(ownerID, listingID string) (*models.RentalListing, error) {
	now := s.clk.Now()

	var listing models.RentalListing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadRental(tx, listingID, &listing); err != nil {
			return err
		}
		if listing.OwnerID != ownerID {
			return apperrors.ErrNotOwner
		}
		switch listing.Status {
		case models.ListingStatusActive:
		case models.ListingStatusSettled, models.ListingStatusCancelled:
			return apperrors.ErrAlreadySettled
		default:
			return apperrors.ErrListingNotOpen
		}
		if now.Before(*listing.EndTime) {
			return apperrors.ErrNotExpired
		}

		listing.Status = models.ListingStatusSettled
		if txErr := tx.Save(&listing).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return releaseAsset(tx, listing.AssetID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(ownerID, "rental", listing.ID, "RECLAIMED", map[string]any{
		"asset_id": listing.AssetID,
	})
	return &listing, nil
}

// Cancel withdraws an open listing before any renter fills it. No fee.
func (s *rentalService) Cancel(ownerID, listingID string) (*models.RentalListing, error) {
	var listing models.RentalListing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadRental(tx, listingID, &listing); err != nil {
			return err
		}
		if listing.OwnerID != ownerID {
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

	s.events.Emit(ownerID, "rental", listing.ID, "CANCELLED", nil)
	return &listing, nil
}

// GetListingByID returns one rental listing with its asset.
func (s *rentalService) GetListingByID(listingID string) (*models.RentalListing, error) {
	var listing models.RentalListing
	if err := s.db.Preload("Asset").Where("id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrListingNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &listing, nil
}

// GetOpenListings returns a paginated list of open rental listings.
func (s *rentalService) GetOpenListings(page pagination.PageRequest) (*pagination.PageResponse[models.RentalListing], error) {
	page.Defaults()

	base := s.db.Model(&models.RentalListing{}).Where("status = ?", models.ListingStatusOpen)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var listings []models.RentalListing
	if err := s.db.Preload("Asset").Where("status = ?", models.ListingStatusOpen).
		Scopes(pagination.Paginate(page)).Find(&listings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(listings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// loadRental fetches a listing inside tx, mapping not-found to the listing error.
func loadRental(tx *gorm.DB, listingID string, out *models.RentalListing) error {
	if err := tx.Where("id = ?", listingID).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrListingNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
