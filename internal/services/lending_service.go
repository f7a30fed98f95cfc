package services

import (
	"errors"

	"gorm.io/gorm"

	"tessera/internal/clock"
	apperrors "tessera/internal/errors"
	"tessera/internal/models"
	"tessera/internal/pagination"
)

// lendingService handles the collateralized lending market.
type lendingService struct {
	db     *gorm.DB
	clk    clock.Clock
	fees   feeEngine
	events EventServicer
}

// NewLendingService creates a new LendingServicer.
func NewLendingService(db *gorm.DB, clk clock.Clock, events EventServicer) LendingServicer {
	return &lendingService{db: db, clk: clk, events: events}
}

// Request escrows collateral into a new open loan request. The repayment
// amount states principal plus interest up front and must cover at least the
// principal.
func (s *lendingService) Request(borrowerID, assetID string, principal, repaymentAmount int64, currency models.Currency, durationMs int64) (*models.Loan, error) {
	if principal <= 0 || durationMs <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if repaymentAmount < principal {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "Repayment amount must cover the principal")
	}
	if !currency.Valid() {
		return nil, apperrors.ErrCurrencyMismatch
	}

	now := s.clk.Now()
	loan := &models.Loan{
		AssetID:         assetID,
		BorrowerID:      borrowerID,
		Principal:       principal,
		RepaymentAmount: repaymentAmount,
		Currency:        currency,
		DurationMs:      durationMs,
		Status:          models.ListingStatusOpen,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		asset, err := loadListableAsset(tx, assetID, borrowerID, now)
		if err != nil {
			return err
		}
		if txErr := tx.Create(loan).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return escrowAsset(tx, asset.ID, "loan:"+loan.ID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(borrowerID, "loan", loan.ID, "REQUESTED", map[string]any{
		"asset_id": assetID, "principal": principal, "repayment_amount": repaymentAmount,
		"currency": currency, "duration_ms": durationMs,
	})
	return loan, nil
}

// Fund fills an open loan request exactly once: the lender pays the
// principal straight to the borrower and the due clock starts.
func (s *lendingService) Fund(lenderID, loanID string, currency models.Currency) (*models.Loan, error) {
	now := s.clk.Now()

	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadLoan(tx, loanID, &loan); err != nil {
			return err
		}
		switch loan.Status {
		case models.ListingStatusOpen:
		case models.ListingStatusActive:
			return apperrors.ErrAlreadyFilled
		default:
			return apperrors.ErrListingNotOpen
		}
		if loan.BorrowerID == lenderID {
			return apperrors.ErrSelfDeal
		}
		if currency != loan.Currency {
			return apperrors.ErrCurrencyMismatch
		}

		lender, err := getUser(tx, lenderID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, lender, loan.Currency, loan.Principal); err != nil {
			return err
		}
		if err := creditUser(tx, loan.BorrowerID, loan.Currency, loan.Principal); err != nil {
			return err
		}

		due := now.Add(msToDuration(loan.DurationMs))
		loan.Status = models.ListingStatusActive
		loan.LenderID = &lenderID
		loan.DueTime = &due
		if txErr := tx.Save(&loan).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(lenderID, "loan", loan.ID, "FUNDED", map[string]any{
		"borrower_id": loan.BorrowerID, "principal": loan.Principal,
		"due_time": loan.DueTime.UnixMilli(),
	})
	return &loan, nil
}

// Repay settles an active loan strictly before the due time. The borrower
// pays the full stated repayment amount; the interest portion is fee-split
// with the lender as beneficiary, the principal portion is not.
func (s *lendingService) Repay(borrowerID, loanID string) (*models.Loan, error) {
	now := s.clk.Now()

	var loan models.Loan
	var breakdown *FeeBreakdown

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if loan.BorrowerID != borrowerID {
			return apperrors.ErrNotBorrower
		}
		switch loan.Status {
		case models.ListingStatusActive:
		case models.ListingStatusSettled, models.ListingStatusCancelled:
			return apperrors.ErrAlreadySettled
		default:
			return apperrors.ErrListingNotOpen
		}
		if !now.Before(*loan.DueTime) {
			return apperrors.ErrLoanPastDue
		}

		borrower, err := getUser(tx, borrowerID)
		if err != nil {
			return err
		}
		if err := debitUser(tx, borrower, loan.Currency, loan.RepaymentAmount); err != nil {
			return err
		}

		lender, err := getUser(tx, *loan.LenderID)
		if err != nil {
			return err
		}
		// Principal passes through untouched; only interest is fee-split.
		if err := creditUser(tx, lender.ID, loan.Currency, loan.Principal); err != nil {
			return err
		}
		breakdown, err = s.fees.takeFee(tx, lender, loan.Interest(), loan.Currency)
		if err != nil {
			return err
		}

		loan.Status = models.ListingStatusSettled
		if txErr := tx.Save(&loan).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return releaseAsset(tx, loan.AssetID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(borrowerID, "loan", loan.ID, "REPAID", map[string]any{
		"lender_id": *loan.LenderID, "repayment_amount": loan.RepaymentAmount,
		"principal": loan.Principal, "interest_fees": breakdown,
	})
	return &loan, nil
}

// Liquidate forfeits the collateral to the lender once the due time has
// passed. A hard deadline: no quorum, no price test.
func (s *lendingService) Liquidate(lenderID, loanID string) (*models.Loan, error) {
	now := s.clk.Now()

	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadLoan(tx, loanID, &loan); err != nil {
			return err
		}
		switch loan.Status {
		case models.ListingStatusActive:
		case models.ListingStatusSettled, models.ListingStatusCancelled:
			return apperrors.ErrAlreadySettled
		default:
			return apperrors.ErrListingNotOpen
		}
		if loan.LenderID == nil || *loan.LenderID != lenderID {
			return apperrors.ErrNotLender
		}
		if now.Before(*loan.DueTime) {
			return apperrors.ErrLoanNotDue
		}

		loan.Status = models.ListingStatusSettled
		if txErr := tx.Save(&loan).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return transferAsset(tx, loan.AssetID, lenderID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(lenderID, "loan", loan.ID, "LIQUIDATED", map[string]any{
		"asset_id": loan.AssetID, "borrower_id": loan.BorrowerID,
	})
	return &loan, nil
}

// Cancel withdraws an open loan request before funding. Collateral returns
// unconditionally, no fee.
func (s *lendingService) Cancel(borrowerID, loanID string) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadLoan(tx, loanID, &loan); err != nil {
			return err
		}
		if loan.BorrowerID != borrowerID {
			return apperrors.ErrNotBorrower
		}
		if loan.Status != models.ListingStatusOpen {
			return apperrors.ErrListingNotOpen
		}

		loan.Status = models.ListingStatusCancelled
		if txErr := tx.Save(&loan).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		return releaseAsset(tx, loan.AssetID)
	})
	if err != nil {
		return nil, err
	}

	s.events.Emit(borrowerID, "loan", loan.ID, "CANCELLED", nil)
	return &loan, nil
}

// GetLoanByID returns one loan with its collateral asset.
func (s *lendingService) GetLoanByID(loanID string) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Asset").Where("id = ?", loanID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// GetOpenLoans returns a paginated list of unfunded loan requests.
func (s *lendingService) GetOpenLoans(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()

	base := s.db.Model(&models.Loan{}).Where("status = ?", models.ListingStatusOpen)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.Loan
	if err := s.db.Preload("Asset").Where("status = ?", models.ListingStatusOpen).
		Scopes(pagination.Paginate(page)).Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(loans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// loadLoan fetches a loan inside tx, mapping not-found to the loan error.
func loadLoan(tx *gorm.DB, loanID string, out *models.Loan) error {
	if err := tx.Where("id = ?", loanID).First(out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrLoanNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
