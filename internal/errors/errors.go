// Package errors provides custom error types for the Tessera API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrNotOwner           = &AppError{Code: "NOT_OWNER", Message: "Caller does not own this resource", StatusCode: http.StatusForbidden}
	ErrNotBorrower        = &AppError{Code: "NOT_BORROWER", Message: "Only the borrower may perform this action", StatusCode: http.StatusForbidden}
	ErrNotLender          = &AppError{Code: "NOT_LENDER", Message: "Only the lender may perform this action", StatusCode: http.StatusForbidden}
	ErrNotAdmin           = &AppError{Code: "NOT_ADMIN", Message: "Administrator privileges required", StatusCode: http.StatusForbidden}
	ErrSelfDeal           = &AppError{Code: "SELF_DEAL", Message: "Cannot fill your own listing", StatusCode: http.StatusBadRequest}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrAccountLocked  = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked due to repeated failed logins", StatusCode: http.StatusForbidden}
)

// Asset registry errors.
var (
	ErrAssetNotFound  = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrAssetEscrowed  = &AppError{Code: "ASSET_ESCROWED", Message: "Asset is held in escrow", StatusCode: http.StatusConflict}
	ErrAssetExpired   = &AppError{Code: "ASSET_EXPIRED", Message: "Asset has expired", StatusCode: http.StatusConflict}
	ErrNotWholeAsset  = &AppError{Code: "NOT_WHOLE_ASSET", Message: "Parent asset must be a whole collectible", StatusCode: http.StatusBadRequest}
	ErrInvalidRoyalty = &AppError{Code: "INVALID_ROYALTY", Message: "Royalty rate out of range", StatusCode: http.StatusBadRequest}
)

// Listing state errors, shared by the rental, lending, auction, and sale markets.
var (
	ErrListingNotFound = &AppError{Code: "LISTING_NOT_FOUND", Message: "Listing not found", StatusCode: http.StatusNotFound}
	ErrListingNotOpen  = &AppError{Code: "LISTING_NOT_OPEN", Message: "Listing is not open", StatusCode: http.StatusConflict}
	ErrAlreadyFilled   = &AppError{Code: "ALREADY_FILLED", Message: "Listing has already been filled", StatusCode: http.StatusConflict}
	ErrAlreadySettled  = &AppError{Code: "ALREADY_SETTLED", Message: "Listing has already been settled", StatusCode: http.StatusConflict}
	ErrNotExpired      = &AppError{Code: "NOT_EXPIRED", Message: "Time window has not elapsed yet", StatusCode: http.StatusConflict}
)

// Value errors.
var (
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient balance", StatusCode: http.StatusBadRequest}
	ErrCurrencyMismatch    = &AppError{Code: "CURRENCY_MISMATCH", Message: "Payment currency does not match the listing currency", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be positive", StatusCode: http.StatusBadRequest}
)

// Auction errors.
var (
	ErrAuctionNotFound = &AppError{Code: "AUCTION_NOT_FOUND", Message: "Auction not found", StatusCode: http.StatusNotFound}
	ErrAuctionEnded    = &AppError{Code: "AUCTION_ENDED", Message: "Auction has already ended", StatusCode: http.StatusConflict}
	ErrAuctionNotEnded = &AppError{Code: "AUCTION_NOT_ENDED", Message: "Auction has not ended yet", StatusCode: http.StatusConflict}
	ErrAuctionHasBids  = &AppError{Code: "AUCTION_HAS_BIDS", Message: "Auction already has a bid", StatusCode: http.StatusConflict}
	ErrBidTooLow       = &AppError{Code: "BID_TOO_LOW", Message: "Bid must exceed the current threshold", StatusCode: http.StatusBadRequest}
	ErrVaultNotEmpty   = &AppError{Code: "VAULT_NOT_EMPTY", Message: "Bid vault holds an unaccounted balance", StatusCode: http.StatusInternalServerError}
)

// Loan errors.
var (
	ErrLoanNotFound = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan not found", StatusCode: http.StatusNotFound}
	ErrLoanNotDue   = &AppError{Code: "LOAN_NOT_DUE", Message: "Loan is not past due", StatusCode: http.StatusConflict}
	ErrLoanPastDue  = &AppError{Code: "LOAN_PAST_DUE", Message: "Loan is past due and can no longer be repaid", StatusCode: http.StatusConflict}
)

// Staking errors.
var (
	ErrPositionNotFound   = &AppError{Code: "POSITION_NOT_FOUND", Message: "No staking position for this user", StatusCode: http.StatusNotFound}
	ErrZeroPendingReward  = &AppError{Code: "ZERO_PENDING_REWARD", Message: "No reward has accrued", StatusCode: http.StatusBadRequest}
	ErrRewardPoolDepleted = &AppError{Code: "REWARD_POOL_DEPLETED", Message: "Reward pool cannot cover the pending reward", StatusCode: http.StatusConflict}
	ErrInsufficientStake  = &AppError{Code: "INSUFFICIENT_STAKE", Message: "Staked amount is below the required minimum", StatusCode: http.StatusBadRequest}
)

// Governance errors.
var (
	ErrProposalNotFound = &AppError{Code: "PROPOSAL_NOT_FOUND", Message: "Proposal not found", StatusCode: http.StatusNotFound}
	ErrProposalEnded    = &AppError{Code: "PROPOSAL_ENDED", Message: "Voting period has ended", StatusCode: http.StatusConflict}
	ErrProposalNotEnded = &AppError{Code: "PROPOSAL_NOT_ENDED", Message: "Voting period has not ended yet", StatusCode: http.StatusConflict}
	ErrAlreadyExecuted  = &AppError{Code: "ALREADY_EXECUTED", Message: "Proposal has already been executed", StatusCode: http.StatusConflict}
	ErrAlreadyVoted     = &AppError{Code: "ALREADY_VOTED", Message: "Caller has already voted on this proposal", StatusCode: http.StatusConflict}
	ErrNoVotingPower    = &AppError{Code: "NO_VOTING_POWER", Message: "Caller has no staked tokens to vote with", StatusCode: http.StatusBadRequest}
)

// Parameter errors.
var (
	ErrUnknownParam     = &AppError{Code: "UNKNOWN_PARAM", Message: "Unrecognized governance parameter", StatusCode: http.StatusBadRequest}
	ErrParamOutOfRange  = &AppError{Code: "PARAM_OUT_OF_RANGE", Message: "Parameter value out of range", StatusCode: http.StatusBadRequest}
	ErrInvalidFeeShares = &AppError{Code: "INVALID_FEE_SHARES", Message: "Fee share percentages must not exceed 100", StatusCode: http.StatusBadRequest}
)
