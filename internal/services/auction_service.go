package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/logger"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// auctionService handles the soft-close auction house.
type auctionService struct {
	db     *gorm.DB
	clk    clock.Clock
	fees   feeEngine
	events EventServicer
}

// NewAuctionService creates a new AuctionServicer.
func NewAuctionService(db *gorm.DB, clk clock.Clock, events EventServicer) AuctionServicer {
	return &auctionService{db: db, clk: clk, events: events}
}

// Create escrows an asset into a new auction with a fixed (for now) deadline.
func (s *auctionService) Create(sellerID, assetID string, startPrice, reservePrice int64, currency models.Currency, endTime time.Time) (*models.Auction, error) {
	if startPrice <= 0 || reservePrice < 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if !currency.Valid() {
		return nil, apperrors.ErrCurrencyMismatch
	}

	now := s.clk.Now()
	if !endTime.After(now) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "End time must be in the future")
	}

	auction := &models.Auction{
		AssetID:      assetID,
		SellerID:     sellerID,
		StartPrice:   startPrice,
		ReservePrice: reservePrice,
		Currency:     currency,
		EndTime:      endTime,
		Status:       models.ListingStatusOpen,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		asset, err := loadListableAsset(tx, assetID, sellerID, now)
		if err != nil {
			return err
		}
		if txErr := tx.Create(auction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return escrowAsset(tx, asset.ID, "auction:"+auction.ID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sellerID, "auction", auction.ID, "CREATED", map[string]any{
		"asset_id": assetID, "start_price": startPrice, "reserve_price": reservePrice,
		"currency": currency, "end_time": endTime.UnixMilli(),
	})
	return auction, nil
}

// Bid escrows a new leading bid. The previous bidder's entire vault balance
// is refunded before the new bid is accepted, so the vault never holds two
// bidders' funds. A bid landing inside the anti-snipe window pushes the end
// time back to now + window; the extension can repeat on every late bid.
func (s *auctionService) Bid(bidderID, auctionID string, amount int64, currency models.Currency) (*models.Auction, error) {
	now := s.clk.Now()

	var auction models.Auction
	var extended bool
	var refunded int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadAuction(tx, auctionID, &auction); err != nil {
			return err
		}
		if auction.Status != models.ListingStatusOpen {
			return apperrors.ErrAuctionEnded
		}
		if auction.SellerID == bidderID {
			return apperrors.ErrSelfDeal
		}
		if currency != auction.Currency {
			return apperrors.ErrCurrencyMismatch
		}
		if !now.Before(auction.EndTime) {
			return apperrors.ErrAuctionEnded
		}
		if amount <= auction.BidThreshold() {
			return apperrors.ErrBidTooLow
		}

		// Refund the previous leader in full before touching the new bid.
		if auction.HighestBidderID != nil {
			refunded = auction.VaultAmount
			if err := creditUser(tx, *auction.HighestBidderID, auction.Currency, refunded); err != nil {
				return err
			}
		}

		bidder, err := getUser(tx, bidderID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, bidder, auction.Currency, amount); err != nil {
			return err
		}

		auction.HighestBid = amount
		auction.HighestBidderID = &bidderID
		auction.VaultAmount = amount

		params, err := getParams(tx)
		if err != nil {
			return err
		}
		window := msToDuration(params.AntiSnipeWindowMs)
		if auction.EndTime.Sub(now) < window {
			auction.EndTime = now.Add(window)
			extended = true
		}

		if txErr := tx.Save(&auction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(bidderID, "auction", auction.ID, "BID", map[string]any{
		"amount": amount, "refunded_previous": refunded,
		"end_time": auction.EndTime.UnixMilli(), "extended": extended,
	})
	return &auction, nil
}

// Settle closes an ended auction exactly once. With no bidder, or a highest
// bid below the reserve, the asset returns to the seller and the vault is
// refunded in full. Otherwise the royalty cut comes
// off the top, the platform fee applies to the remainder, and the asset goes
// to the winner.
func (s *auctionService) Settle(callerID, auctionID string) (*models.Auction, error) {
	now := s.clk.Now()

	var auction models.Auction
	var sold bool
	var breakdown *FeeBreakdown
	var royalty int64

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadAuction(tx, auctionID, &auction); err != nil {
			return err
		}
		switch auction.Status {
		case models.ListingStatusOpen:
		case models.ListingStatusSettled, models.ListingStatusCancelled:
			return apperrors.ErrAlreadySettled
		default:
			return apperrors.ErrListingNotOpen
		}
		if now.Before(auction.EndTime) {
			return apperrors.ErrAuctionNotEnded
		}

		var asset models.Asset
		if err := tx.Where("id = ?", auction.AssetID).First(&asset).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if auction.HighestBidderID == nil || auction.HighestBid < auction.ReservePrice {
			// Failed auction: return everything.
			if auction.HighestBidderID != nil {
				if err := creditUser(tx, *auction.HighestBidderID, auction.Currency, auction.VaultAmount); err != nil {
					return err
				}
				auction.VaultAmount = 0
			}
			if err := releaseAsset(tx, auction.AssetID); err != nil {
				return err
			}
		} else {
			sold = true
			gross := auction.VaultAmount
			auction.VaultAmount = 0

			remainder, r, err := s.fees.takeRoyalty(tx, &asset, gross, auction.Currency)
			if err != nil {
				return err
			}
			royalty = r

			seller, err := getUser(tx, auction.SellerID)
			if err != nil {
				return err
			}
			breakdown, err = s.fees.takeFee(tx, seller, remainder, auction.Currency)
			if err != nil {
				return err
			}
			breakdown.Royalty = royalty

			if err := transferAsset(tx, auction.AssetID, *auction.HighestBidderID); err != nil {
				return err
			}
		}

		// Every payout path above must leave the vault empty.
		if auction.VaultAmount != 0 {
			logger.Get().Errorw("auction vault not empty at settlement",
				"auction_id", auction.ID, "vault_amount", auction.VaultAmount)
			return apperrors.ErrVaultNotEmpty
		}

		auction.Status = models.ListingStatusSettled
		if txErr := tx.Save(&auction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quantities := map[string]any{"sold": sold}
	if sold {
		quantities["winner_id"] = *auction.HighestBidderID
		quantities["price"] = auction.HighestBid
		quantities["royalty"] = royalty
		quantities["fees"] = breakdown
	}
	s.events.Emit(callerID, "auction", auction.ID, "SETTLED", quantities)
	return &auction, nil
}

// Cancel withdraws an auction that has not received any bid.
func (s *auctionService) Cancel(sellerID, auctionID string) (*models.Auction, error) {
	var auction models.Auction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadAuction(tx, auctionID, &auction); err != nil {
			return err
		}
		if auction.SellerID != sellerID {
			return apperrors.ErrNotOwner
		}
		if auction.Status != models.ListingStatusOpen {
			return apperrors.ErrListingNotOpen
		}
		if auction.HighestBidderID != nil {
			return apperrors.ErrAuctionHasBids
		}

		auction.Status = models.ListingStatusCancelled
		if txErr := tx.Save(&auction).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return releaseAsset(tx, auction.AssetID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(sellerID, "auction", auction.ID, "CANCELLED", nil)
	return &auction, nil
}

// GetAuctionByID returns one auction with its asset.
func (s *auctionService) GetAuctionByID(auctionID string) (*models.Auction, error) {
	var auction models.Auction
	if err := s.db.Preload("Asset").Where("id = ?", auctionID).First(&auction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuctionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &auction, nil
}

// GetOpenAuctions returns a paginated list of running auctions.
func (s *auctionService) GetOpenAuctions(page pagination.PageRequest) (*pagination.PageResponse[models.Auction], error) {
	page.Defaults()

	base := s.db.Model(&models.Auction{}).Where("status = ?", models.ListingStatusOpen)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var auctions []models.Auction
	if err := s.db.Preload("Asset").Where("status = ?", models.ListingStatusOpen).
		Scopes(pagination.Paginate(page)).Find(&auctions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(auctions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// loadAuction fetches an auction inside tx, mapping not-found to the auction error.
func loadAuction(tx *gorm.DB, auctionID string, out *models.Auction) error {
	if err := tx.Where("id = ?", auctionID).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAuctionNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
