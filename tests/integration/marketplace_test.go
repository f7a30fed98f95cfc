package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestSaleFlow(t *testing.T) {
	t.Run("mint_list_buy", func(t *testing.T) {
		app := setupApp(t)
		sellerToken, _ := app.registerUser(t, "seller@example.com")
		buyerToken, buyerID := app.registerUser(t, "buyer@example.com")
		app.deposit(t, buyerToken, "coin", 10_000)

		assetID := app.mintAsset(t, sellerToken, "Midnight Gallery Pass")

		rec := app.request("POST", "/api/v1/sales",
			fmt.Sprintf(`{"asset_id":%q,"price":1000,"currency":"coin"}`, assetID), sellerToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
		}
		listing := parseJSON(t, rec)["listing"].(map[string]interface{})
		listingID := listing["id"].(string)

		// The escrowed asset cannot be listed a second time.
		rec = app.request("POST", "/api/v1/sales",
			fmt.Sprintf(`{"asset_id":%q,"price":500,"currency":"coin"}`, assetID), sellerToken)
		if code := errorCode(t, rec); code != "ASSET_ESCROWED" {
			t.Errorf("expected ASSET_ESCROWED, got %s", code)
		}

		rec = app.request("POST", "/api/v1/sales/"+listingID+"/buy",
			`{"currency":"coin"}`, buyerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("buy failed: %d %s", rec.Code, rec.Body.String())
		}
		listing = parseJSON(t, rec)["listing"].(map[string]interface{})
		if listing["status"] != "settled" {
			t.Errorf("expected settled listing, got %v", listing["status"])
		}

		// Price 1000 at the 500 bps standard fee: 950 to the seller, the 50
		// fee split 20/15/15 across reward pool, treasury, and burn sink.
		if got := app.coinBalance(t, sellerToken); got != 950 {
			t.Errorf("expected seller balance 950, got %d", got)
		}
		if got := app.coinBalance(t, buyerToken); got != 9000 {
			t.Errorf("expected buyer balance 9000, got %d", got)
		}

		rec = app.request("GET", "/api/v1/treasury", "", buyerToken)
		treasury := parseJSON(t, rec)["treasury"].(map[string]interface{})
		if treasury["coin_balance"].(float64) != 15 {
			t.Errorf("expected treasury coin balance 15, got %v", treasury["coin_balance"])
		}

		rec = app.request("GET", "/api/v1/treasury/burned", "", buyerToken)
		sink := parseJSON(t, rec)["burn_sink"].(map[string]interface{})
		if sink["coin_burned"].(float64) != 15 {
			t.Errorf("expected 15 coins burned, got %v", sink["coin_burned"])
		}

		// Ownership moved and escrow was released.
		rec = app.request("GET", "/api/v1/assets/"+assetID, "", buyerToken)
		asset := parseJSON(t, rec)["asset"].(map[string]interface{})
		if asset["owner_id"] != buyerID {
			t.Errorf("expected buyer to own the asset, got owner %v", asset["owner_id"])
		}
		if ref, ok := asset["escrow_ref"]; ok && ref != "" {
			t.Errorf("expected escrow released, got %v", ref)
		}
	})

	t.Run("purchase_history_recorded", func(t *testing.T) {
		app := setupApp(t)
		sellerToken, _ := app.registerUser(t, "seller@example.com")
		buyerToken, _ := app.registerUser(t, "buyer@example.com")
		app.deposit(t, buyerToken, "coin", 5000)

		assetID := app.mintAsset(t, sellerToken, "Arcade Night Ticket")
		rec := app.request("POST", "/api/v1/sales",
			fmt.Sprintf(`{"asset_id":%q,"price":1000,"currency":"coin"}`, assetID), sellerToken)
		listingID := parseJSON(t, rec)["listing"].(map[string]interface{})["id"].(string)

		app.request("POST", "/api/v1/sales/"+listingID+"/buy", `{"currency":"coin"}`, buyerToken)

		rec = app.request("GET", "/api/v1/events/sale/"+listingID, "", buyerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("events failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["total_items"].(float64) < 2 {
			t.Errorf("expected listing and purchase events, got %v", result["total_items"])
		}
	})
}

func TestRentalFlow(t *testing.T) {
	t.Run("list_rent_reclaim", func(t *testing.T) {
		app := setupApp(t)
		ownerToken, ownerID := app.registerUser(t, "owner@example.com")
		renterToken, _ := app.registerUser(t, "renter@example.com")
		app.deposit(t, renterToken, "coin", 2000)

		assetID := app.mintAsset(t, ownerToken, "Weekend Studio Slot")

		rec := app.request("POST", "/api/v1/rentals",
			fmt.Sprintf(`{"asset_id":%q,"price":1000,"currency":"coin","duration_ms":3600000}`, assetID), ownerToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("list failed: %d %s", rec.Code, rec.Body.String())
		}
		listingID := parseJSON(t, rec)["listing"].(map[string]interface{})["id"].(string)

		rec = app.request("POST", "/api/v1/rentals/"+listingID+"/rent",
			`{"currency":"coin"}`, renterToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("rent failed: %d %s", rec.Code, rec.Body.String())
		}
		listing := parseJSON(t, rec)["listing"].(map[string]interface{})
		if listing["status"] != "active" {
			t.Errorf("expected active listing, got %v", listing["status"])
		}
		if got := app.coinBalance(t, ownerToken); got != 950 {
			t.Errorf("expected owner balance 950, got %d", got)
		}

		// Reclaiming before the rental period has elapsed is rejected.
		rec = app.request("POST", "/api/v1/rentals/"+listingID+"/reclaim", "", ownerToken)
		if code := errorCode(t, rec); code != "NOT_EXPIRED" {
			t.Errorf("expected NOT_EXPIRED, got %s", code)
		}

		app.Clock.Advance(time.Hour)

		rec = app.request("POST", "/api/v1/rentals/"+listingID+"/reclaim", "", ownerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("reclaim failed: %d %s", rec.Code, rec.Body.String())
		}
		listing = parseJSON(t, rec)["listing"].(map[string]interface{})
		if listing["status"] != "settled" {
			t.Errorf("expected settled listing, got %v", listing["status"])
		}

		rec = app.request("GET", "/api/v1/assets/"+assetID, "", ownerToken)
		asset := parseJSON(t, rec)["asset"].(map[string]interface{})
		if asset["owner_id"] != ownerID {
			t.Errorf("expected owner unchanged, got %v", asset["owner_id"])
		}
		if ref, ok := asset["escrow_ref"]; ok && ref != "" {
			t.Errorf("expected escrow released, got %v", ref)
		}
	})
}

func TestAuctionFlow(t *testing.T) {
	t.Run("bid_outbid_settle", func(t *testing.T) {
		app := setupApp(t)
		sellerToken, _ := app.registerUser(t, "seller@example.com")
		aliceToken, _ := app.registerUser(t, "alice@example.com")
		bobToken, bobID := app.registerUser(t, "bob@example.com")
		app.deposit(t, aliceToken, "coin", 5000)
		app.deposit(t, bobToken, "coin", 5000)

		assetID := app.mintAsset(t, sellerToken, "Opening Night Box Seat")
		endTime := app.Clock.Now().Add(time.Hour).Format(time.RFC3339)

		rec := app.request("POST", "/api/v1/auctions",
			fmt.Sprintf(`{"asset_id":%q,"start_price":100,"reserve_price":500,"currency":"coin","end_time":%q}`,
				assetID, endTime), sellerToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
		}
		auctionID := parseJSON(t, rec)["auction"].(map[string]interface{})["id"].(string)

		// A bid equal to the start price does not clear the threshold.
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/bid",
			`{"amount":100,"currency":"coin"}`, aliceToken)
		if code := errorCode(t, rec); code != "BID_TOO_LOW" {
			t.Errorf("expected BID_TOO_LOW, got %s", code)
		}

		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/bid",
			`{"amount":600,"currency":"coin"}`, aliceToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("bid failed: %d %s", rec.Code, rec.Body.String())
		}

		// Bob outbids; Alice is refunded in full.
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/bid",
			`{"amount":1000,"currency":"coin"}`, bobToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("outbid failed: %d %s", rec.Code, rec.Body.String())
		}
		if got := app.coinBalance(t, aliceToken); got != 5000 {
			t.Errorf("expected alice refunded to 5000, got %d", got)
		}

		// Settling before the deadline is rejected.
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/settle", "", sellerToken)
		if code := errorCode(t, rec); code != "AUCTION_NOT_ENDED" {
			t.Errorf("expected AUCTION_NOT_ENDED, got %s", code)
		}

		app.Clock.Advance(2 * time.Hour)

		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/settle", "", sellerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("settle failed: %d %s", rec.Code, rec.Body.String())
		}
		auction := parseJSON(t, rec)["auction"].(map[string]interface{})
		if auction["status"] != "settled" {
			t.Errorf("expected settled auction, got %v", auction["status"])
		}
		if auction["vault_amount"].(float64) != 0 {
			t.Errorf("expected empty vault, got %v", auction["vault_amount"])
		}

		// Winning bid 1000 at the standard fee: 950 to the seller.
		if got := app.coinBalance(t, sellerToken); got != 950 {
			t.Errorf("expected seller balance 950, got %d", got)
		}
		rec = app.request("GET", "/api/v1/assets/"+assetID, "", bobToken)
		asset := parseJSON(t, rec)["asset"].(map[string]interface{})
		if asset["owner_id"] != bobID {
			t.Errorf("expected winner to own the asset, got %v", asset["owner_id"])
		}
	})

	t.Run("anti_snipe_extends_deadline", func(t *testing.T) {
		app := setupApp(t)
		sellerToken, _ := app.registerUser(t, "seller@example.com")
		bidderToken, _ := app.registerUser(t, "bidder@example.com")
		app.deposit(t, bidderToken, "coin", 2000)

		assetID := app.mintAsset(t, sellerToken, "Closing Ceremony Pass")
		endTime := app.Clock.Now().Add(time.Hour).Format(time.RFC3339)

		rec := app.request("POST", "/api/v1/auctions",
			fmt.Sprintf(`{"asset_id":%q,"start_price":100,"reserve_price":0,"currency":"coin","end_time":%q}`,
				assetID, endTime), sellerToken)
		auctionID := parseJSON(t, rec)["auction"].(map[string]interface{})["id"].(string)

		// Bid two minutes before the close, inside the five minute window.
		app.Clock.Advance(58 * time.Minute)
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/bid",
			`{"amount":200,"currency":"coin"}`, bidderToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("bid failed: %d %s", rec.Code, rec.Body.String())
		}

		// The original deadline has passed but the auction is still live.
		app.Clock.Advance(3 * time.Minute)
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/settle", "", sellerToken)
		if code := errorCode(t, rec); code != "AUCTION_NOT_ENDED" {
			t.Errorf("expected AUCTION_NOT_ENDED, got %s", code)
		}

		app.Clock.Advance(5 * time.Minute)
		rec = app.request("POST", "/api/v1/auctions/"+auctionID+"/settle", "", sellerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("settle after extension failed: %d %s", rec.Code, rec.Body.String())
		}
	})
}
