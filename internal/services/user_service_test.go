package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"tessera/internal/clock"
	"tessera/internal/models"
	"tessera/internal/testutil"
)

func newUserHarness(t *testing.T) (*gorm.DB, UserServicer, *clock.Fake) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	clk := clock.NewFake(time.UnixMilli(1_700_000_000_000))
	return db, NewUserService(db, clk, NewEventService(db)), clk
}

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		user, err := svc.CreateUser("New@Example.com", "secret123", "New User")
		testutil.AssertNoError(t, err)

		if user.Email != "new@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
		if user.Password == "secret123" {
			t.Error("expected password to be hashed")
		}
		if !user.IsActive {
			t.Error("expected new user to be active")
		}
		if user.CoinBalance != 0 || user.TokenBalance != 0 {
			t.Error("expected zero starting balances")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		_, err := svc.CreateUser("dup@example.com", "secret123", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateUser("DUP@example.com", "other456", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("missing_fields", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		_, err := svc.CreateUser("", "secret123", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		_, err = svc.CreateUser("a@b.com", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_resets_counters", func(t *testing.T) {
		db, svc, clk := newUserHarness(t)

		created, err := svc.CreateUser("login@example.com", "secret123", "")
		testutil.AssertNoError(t, err)

		// One failure, then a success.
		_, err = svc.AttemptLogin("login@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		user, err := svc.AttemptLogin("login@example.com", "secret123")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Error("expected the same user back")
		}

		fresh := reloadUser(t, db, created.ID)
		if fresh.FailedLoginAttempts != 0 {
			t.Errorf("expected failure counter reset, got %d", fresh.FailedLoginAttempts)
		}
		if fresh.LastLoginAt == nil || !fresh.LastLoginAt.Equal(clk.Now()) {
			t.Error("expected last login timestamp recorded")
		}
	})

	t.Run("unknown_email", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		_, err := svc.AttemptLogin("ghost@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("lockout_after_five_failures", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		_, err := svc.CreateUser("locked@example.com", "secret123", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < 5; i++ {
			_, err = svc.AttemptLogin("locked@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the correct password is rejected while locked.
		_, err = svc.AttemptLogin("locked@example.com", "secret123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("lock_expires", func(t *testing.T) {
		_, svc, clk := newUserHarness(t)

		_, err := svc.CreateUser("patient@example.com", "secret123", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < 5; i++ {
			_, _ = svc.AttemptLogin("patient@example.com", "wrong")
		}
		_, err = svc.AttemptLogin("patient@example.com", "secret123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")

		clk.Advance(16 * time.Minute)
		_, err = svc.AttemptLogin("patient@example.com", "secret123")
		testutil.AssertNoError(t, err)
	})
}

func TestRefreshTokenHash(t *testing.T) {
	t.Run("store_and_read_back", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		user, err := svc.CreateUser("token@example.com", "secret123", "")
		testutil.AssertNoError(t, err)

		err = svc.StoreRefreshTokenHash(user.ID, "abc123hash")
		testutil.AssertNoError(t, err)

		hash, err := svc.GetRefreshTokenHash(user.ID)
		testutil.AssertNoError(t, err)
		if hash != "abc123hash" {
			t.Errorf("expected stored hash back, got %s", hash)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		err := svc.StoreRefreshTokenHash("00000000-0000-0000-0000-000000000000", "x")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestDeposit(t *testing.T) {
	t.Run("credits_balance", func(t *testing.T) {
		db, svc, _ := newUserHarness(t)
		user := testutil.CreateTestUser(t, db)

		updated, err := svc.Deposit(user.ID, models.CurrencyCoin, 2500)
		testutil.AssertNoError(t, err)
		if updated.CoinBalance != 2500 {
			t.Errorf("expected coin balance 2500, got %d", updated.CoinBalance)
		}

		updated, err = svc.Deposit(user.ID, models.CurrencyToken, 100)
		testutil.AssertNoError(t, err)
		if updated.TokenBalance != 100 {
			t.Errorf("expected token balance 100, got %d", updated.TokenBalance)
		}
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		db, svc, _ := newUserHarness(t)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Deposit(user.ID, models.CurrencyCoin, 0)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, svc, _ := newUserHarness(t)

		_, err := svc.Deposit("00000000-0000-0000-0000-000000000000", models.CurrencyCoin, 100)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
