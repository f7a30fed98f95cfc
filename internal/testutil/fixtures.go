package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"tessera/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestUserWithBalances creates a user holding the given balances.
func CreateTestUserWithBalances(t *testing.T, db *gorm.DB, coin, token int64) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	user.CoinBalance = coin
	user.TokenBalance = token
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to set test user balances: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user with administrator privileges.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	user.IsAdmin = true
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to promote test admin: %v", err)
	}
	return user
}

// CreateTestAsset creates a whole collectible owned by the given user.
func CreateTestAsset(t *testing.T, db *gorm.DB, ownerID string) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Kind:    models.AssetKindWhole,
		Name:    fmt.Sprintf("Test Asset %d", nextID()),
		OwnerID: ownerID,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestAssetWithRoyalty creates a whole collectible with royalty terms.
func CreateTestAssetWithRoyalty(t *testing.T, db *gorm.DB, ownerID, recipientID string, royaltyBps int64) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Kind:               models.AssetKindWhole,
		Name:               fmt.Sprintf("Test Asset %d", nextID()),
		OwnerID:            ownerID,
		RoyaltyRecipientID: &recipientID,
		RoyaltyBps:         royaltyBps,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// SeedTestEconomy creates the singleton economy rows with the default
// governance parameters and returns the parameter row.
func SeedTestEconomy(t *testing.T, db *gorm.DB) *models.GovParams {
	t.Helper()

	params := &models.GovParams{
		QuorumPct:         20,
		ApprovalPct:       50,
		MinStakeToPropose: 1000,
		VotingPeriodMs:    3 * 24 * 60 * 60 * 1000,
		StandardFeeBps:    500,
		VIPFeeBps:         250,
		RewardSharePct:    40,
		TreasurySharePct:  30,
		AntiSnipeWindowMs: 300_000,
	}
	if err := db.Create(params).Error; err != nil {
		t.Fatalf("failed to seed gov params: %v", err)
	}
	if err := db.Create(&models.StakePool{}).Error; err != nil {
		t.Fatalf("failed to seed stake pool: %v", err)
	}
	if err := db.Create(&models.Treasury{}).Error; err != nil {
		t.Fatalf("failed to seed treasury: %v", err)
	}
	if err := db.Create(&models.BurnSink{}).Error; err != nil {
		t.Fatalf("failed to seed burn sink: %v", err)
	}
	return params
}
