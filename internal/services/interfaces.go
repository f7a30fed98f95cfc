package services

import (
	"time"

	"tessera/internal/models"
	"tessera/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, displayName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	Deposit(userID string, currency models.Currency, amount int64) (*models.User, error)
}

// AssetServicer defines the contract for the collectible registry.
type AssetServicer interface {
	MintWhole(ownerID, name string, expiresAt *time.Time, royaltyRecipientID *string, royaltyBps int64) (*models.Asset, error)
	MintFraction(ownerID, parentID, name string, units int64) (*models.Asset, error)
	GetAssetByID(assetID string) (*models.Asset, error)
	GetUserAssets(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.Asset], error)
	Transfer(ownerID, assetID, recipientID string) (*models.Asset, error)
}

// RentalServicer defines the contract for the rental market.
type RentalServicer interface {
	List(ownerID, assetID string, price int64, currency models.Currency, durationMs int64) (*models.RentalListing, error)
	Rent(renterID, listingID string, currency models.Currency) (*models.RentalListing, error)
	Reclaim(ownerID, listingID string) (*models.RentalListing, error)
	Cancel(ownerID, listingID string) (*models.RentalListing, error)
	GetListingByID(listingID string) (*models.RentalListing, error)
	GetOpenListings(page pagination.PageRequest) (*pagination.PageResponse[models.RentalListing], error)
}

// LendingServicer defines the contract for the collateralized lending market.
type LendingServicer interface {
	Request(borrowerID, assetID string, principal, repaymentAmount int64, currency models.Currency, durationMs int64) (*models.Loan, error)
	Fund(lenderID, loanID string, currency models.Currency) (*models.Loan, error)
	Repay(borrowerID, loanID string) (*models.Loan, error)
	Liquidate(lenderID, loanID string) (*models.Loan, error)
	Cancel(borrowerID, loanID string) (*models.Loan, error)
	GetLoanByID(loanID string) (*models.Loan, error)
	GetOpenLoans(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
}

// AuctionServicer defines the contract for the auction house.
type AuctionServicer interface {
	Create(sellerID, assetID string, startPrice, reservePrice int64, currency models.Currency, endTime time.Time) (*models.Auction, error)
	Bid(bidderID, auctionID string, amount int64, currency models.Currency) (*models.Auction, error)
	Settle(callerID, auctionID string) (*models.Auction, error)
	Cancel(sellerID, auctionID string) (*models.Auction, error)
	GetAuctionByID(auctionID string) (*models.Auction, error)
	GetOpenAuctions(page pagination.PageRequest) (*pagination.PageResponse[models.Auction], error)
}

// SaleServicer defines the contract for fixed-price sales.
type SaleServicer interface {
	List(sellerID, assetID string, price int64, currency models.Currency) (*models.SaleListing, error)
	Buy(buyerID, listingID string, currency models.Currency) (*models.SaleListing, error)
	Cancel(sellerID, listingID string) (*models.SaleListing, error)
	GetListingByID(listingID string) (*models.SaleListing, error)
	GetOpenListings(page pagination.PageRequest) (*pagination.PageResponse[models.SaleListing], error)
}

// PendingReward reports a staker's accrued but unclaimed reward.
type PendingReward struct {
	Staked  int64 `json:"staked"`
	Pending int64 `json:"pending"`
}

// StakingServicer defines the contract for the staking pool.
type StakingServicer interface {
	Stake(userID string, amount int64) (*models.StakePosition, error)
	Unstake(userID string) (paidOut int64, err error)
	Claim(userID string) (paidOut int64, err error)
	Pending(userID string) (*PendingReward, error)
	FundRewards(userID string, amount int64) (*models.StakePool, error)
	SetEmissionRate(callerID string, rate int64) (*models.StakePool, error)
	GetPool() (*models.StakePool, error)
	StakeOf(userID string) (int64, error)
}

// TreasuryServicer defines the contract for the treasury sink.
type TreasuryServicer interface {
	Deposit(userID string, currency models.Currency, amount int64) (*models.Treasury, error)
	Get() (*models.Treasury, error)
	GetBurnSink() (*models.BurnSink, error)
}

// ProposalInput carries the immutable action payload of a new proposal.
type ProposalInput struct {
	Title       string
	Description string
	Action      models.ProposalAction
	RecipientID *string
	Amount      int64
	Currency    models.Currency
	ParamKey    string
	ParamValue  int64
	VIPStatus   bool
}

// GovernanceServicer defines the contract for the DAO layer.
type GovernanceServicer interface {
	Propose(proposerID string, input ProposalInput) (*models.Proposal, error)
	CastVote(voterID, proposalID string, support bool) (*models.Vote, error)
	Execute(callerID, proposalID string) (*models.Proposal, error)
	GetProposalByID(proposalID string) (*models.Proposal, error)
	GetProposals(page pagination.PageRequest) (*pagination.PageResponse[models.Proposal], error)
	GetParams() (*models.GovParams, error)
}

// EventServicer defines the contract for the event history.
type EventServicer interface {
	Emit(actorID, entityType, entityID, kind string, quantities map[string]any)
	GetEntityEvents(entityType, entityID string, page pagination.PageRequest) (*pagination.PageResponse[models.Event], error)
}
