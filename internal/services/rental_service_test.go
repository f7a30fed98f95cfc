package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"tessera/internal/clock"
	"tessera/internal/models"
	"tessera/internal/testutil"
)

func newRentalHarness(t *testing.T) (*gorm.DB, RentalServicer, *clock.Fake) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	testutil.SeedTestEconomy(t, db)
	clk := clock.NewFake(time.UnixMilli(1_700_000_000_000))
	return db, NewRentalService(db, clk, NewEventService(db)), clk
}

func reloadAsset(t *testing.T, db *gorm.DB, id string) *models.Asset {
	t.Helper()
	var asset models.Asset
	if err := db.First(&asset, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload asset: %v", err)
	}
	return &asset
}

func TestRentalList(t *testing.T) {
	t.Run("escrows_asset", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)

		if listing.Status != models.ListingStatusOpen {
			t.Errorf("expected open listing, got %s", listing.Status)
		}
		fresh := reloadAsset(t, db, asset.ID)
		if !fresh.Escrowed() {
			t.Error("expected asset held in escrow")
		}
		if fresh.EscrowRef != "rental:"+listing.ID {
			t.Errorf("expected escrow ref rental:%s, got %s", listing.ID, fresh.EscrowRef)
		}
	})

	t.Run("not_owner", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		_, err := svc.List(stranger.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertAppError(t, err, "NOT_OWNER")
	})

	t.Run("already_escrowed", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		_, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.List(owner.ID, asset.ID, 2000, models.CurrencyCoin, 3_600_000)
		testutil.AssertAppError(t, err, "ASSET_ESCROWED")
	})

	t.Run("expired_asset", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)
		past := clk.Now().Add(-time.Hour)
		asset.ExpiresAt = &past
		if err := db.Save(asset).Error; err != nil {
			t.Fatalf("failed to expire asset: %v", err)
		}

		_, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertAppError(t, err, "ASSET_EXPIRED")
	})

	t.Run("invalid_price_or_duration", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		_, err := svc.List(owner.ID, asset.ID, 0, models.CurrencyCoin, 3_600_000)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		_, err = svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 0)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})
}

func TestRent(t *testing.T) {
	t.Run("splits_payment", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)

		rented, err := svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		if rented.Status != models.ListingStatusActive {
			t.Errorf("expected active listing, got %s", rented.Status)
		}
		wantEnd := clk.Now().Add(time.Hour)
		if !rented.EndTime.Equal(wantEnd) {
			t.Errorf("expected end time %v, got %v", wantEnd, rented.EndTime)
		}

		// 1000 at 500 bps: fee 50 split 40/30/30, owner nets 950.
		if got := reloadUser(t, db, renter.ID).CoinBalance; got != 1000 {
			t.Errorf("expected renter balance 1000, got %d", got)
		}
		if got := reloadUser(t, db, owner.ID).CoinBalance; got != 950 {
			t.Errorf("expected owner balance 950, got %d", got)
		}
		var pool models.StakePool
		if err := db.First(&pool).Error; err != nil {
			t.Fatalf("failed to load pool: %v", err)
		}
		if pool.RewardCoinBalance != 20 {
			t.Errorf("expected reward share 20, got %d", pool.RewardCoinBalance)
		}
		var treasury models.Treasury
		if err := db.First(&treasury).Error; err != nil {
			t.Fatalf("failed to load treasury: %v", err)
		}
		if treasury.CoinBalance != 15 {
			t.Errorf("expected treasury share 15, got %d", treasury.CoinBalance)
		}
		var sink models.BurnSink
		if err := db.First(&sink).Error; err != nil {
			t.Fatalf("failed to load burn sink: %v", err)
		}
		if sink.CoinBurned != 15 {
			t.Errorf("expected burn share 15, got %d", sink.CoinBurned)
		}
	})

	t.Run("vip_owner_pays_discounted_fee", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		owner.IsVIP = true
		if err := db.Save(owner).Error; err != nil {
			t.Fatalf("failed to flag VIP: %v", err)
		}
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		// 250 bps for VIPs: fee 25, owner nets 975.
		if got := reloadUser(t, db, owner.ID).CoinBalance; got != 975 {
			t.Errorf("expected VIP owner balance 975, got %d", got)
		}
		// Shares 10/7, burn absorbs the remainder 8.
		var sink models.BurnSink
		if err := db.First(&sink).Error; err != nil {
			t.Fatalf("failed to load burn sink: %v", err)
		}
		if sink.CoinBurned != 8 {
			t.Errorf("expected burn share 8, got %d", sink.CoinBurned)
		}
	})

	t.Run("self_deal", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(owner.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertAppError(t, err, "SELF_DEAL")
	})

	t.Run("currency_mismatch", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 0, 2000)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyToken)
		testutil.AssertAppError(t, err, "CURRENCY_MISMATCH")
	})

	t.Run("insufficient_balance", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 500, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertAppError(t, err, "INSUFFICIENT_BALANCE")
	})

	t.Run("second_fill_rejected", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		second := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(first.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(second.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertAppError(t, err, "ALREADY_FILLED")
	})
}

func TestReclaim(t *testing.T) {
	t.Run("before_window_elapses", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		clk.Advance(30 * time.Minute)
		_, err = svc.Reclaim(owner.ID, listing.ID)
		testutil.AssertAppError(t, err, "NOT_EXPIRED")
	})

	t.Run("after_window_releases_asset", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		clk.Advance(time.Hour)
		reclaimed, err := svc.Reclaim(owner.ID, listing.ID)
		testutil.AssertNoError(t, err)
		if reclaimed.Status != models.ListingStatusSettled {
			t.Errorf("expected settled listing, got %s", reclaimed.Status)
		}

		fresh := reloadAsset(t, db, asset.ID)
		if fresh.Escrowed() {
			t.Error("expected asset released from escrow")
		}
		if fresh.OwnerID != owner.ID {
			t.Errorf("expected asset back with owner, got %s", fresh.OwnerID)
		}
	})

	t.Run("only_owner", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		clk.Advance(2 * time.Hour)
		_, err = svc.Reclaim(renter.ID, listing.ID)
		testutil.AssertAppError(t, err, "NOT_OWNER")
	})

	t.Run("double_reclaim", func(t *testing.T) {
		db, svc, clk := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		clk.Advance(2 * time.Hour)
		_, err = svc.Reclaim(owner.ID, listing.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.Reclaim(owner.ID, listing.ID)
		testutil.AssertAppError(t, err, "ALREADY_SETTLED")
	})
}

func TestRentalCancel(t *testing.T) {
	t.Run("open_listing", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)

		cancelled, err := svc.Cancel(owner.ID, listing.ID)
		testutil.AssertNoError(t, err)
		if cancelled.Status != models.ListingStatusCancelled {
			t.Errorf("expected cancelled listing, got %s", cancelled.Status)
		}
		if reloadAsset(t, db, asset.ID).Escrowed() {
			t.Error("expected asset released from escrow")
		}
	})

	t.Run("active_listing_rejected", func(t *testing.T) {
		db, svc, _ := newRentalHarness(t)
		owner := testutil.CreateTestUser(t, db)
		renter := testutil.CreateTestUserWithBalances(t, db, 2000, 0)
		asset := testutil.CreateTestAsset(t, db, owner.ID)

		listing, err := svc.List(owner.ID, asset.ID, 1000, models.CurrencyCoin, 3_600_000)
		testutil.AssertNoError(t, err)
		_, err = svc.Rent(renter.ID, listing.ID, models.CurrencyCoin)
		testutil.AssertNoError(t, err)

		_, err = svc.Cancel(owner.ID, listing.ID)
		testutil.AssertAppError(t, err, "LISTING_NOT_OPEN")
	})
}
