package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"tessera/internal/models"
)

// promoteToAdmin flips the admin flag directly; there is no API for it.
func (app *testApp) promoteToAdmin(t *testing.T, userID string) {
	t.Helper()
	if err := app.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("is_admin", true).Error; err != nil {
		t.Fatalf("failed to promote admin: %v", err)
	}
}

func TestStakingFlow(t *testing.T) {
	t.Run("stake_accrue_claim_unstake", func(t *testing.T) {
		app := setupApp(t)
		adminToken, adminID := app.registerUser(t, "admin@example.com")
		app.promoteToAdmin(t, adminID)
		app.deposit(t, adminToken, "token", 100_000)

		stakerToken, _ := app.registerUser(t, "staker@example.com")
		app.deposit(t, stakerToken, "token", 1000)

		rec := app.request("PUT", "/api/v1/staking/emission-rate", `{"rate":100}`, adminToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("emission rate failed: %d %s", rec.Code, rec.Body.String())
		}
		rec = app.request("POST", "/api/v1/staking/fund", `{"amount":50000}`, adminToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("fund failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("POST", "/api/v1/staking/stake", `{"amount":1000}`, stakerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("stake failed: %d %s", rec.Code, rec.Body.String())
		}
		position := parseJSON(t, rec)["position"].(map[string]interface{})
		if position["amount"].(float64) != 1000 {
			t.Errorf("expected position amount 1000, got %v", position["amount"])
		}

		// Sole staker at 100 tokens per second for ten seconds.
		app.Clock.Advance(10 * time.Second)

		rec = app.request("GET", "/api/v1/staking/pending", "", stakerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("pending failed: %d %s", rec.Code, rec.Body.String())
		}
		pending := parseJSON(t, rec)
		if pending["pending"].(float64) != 1000 {
			t.Errorf("expected pending 1000, got %v", pending["pending"])
		}

		rec = app.request("POST", "/api/v1/staking/claim", "", stakerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("claim failed: %d %s", rec.Code, rec.Body.String())
		}
		if got := parseJSON(t, rec)["reward_paid"].(float64); got != 1000 {
			t.Errorf("expected reward 1000, got %v", got)
		}

		// Another ten seconds, then unstake returns stake plus reward.
		app.Clock.Advance(10 * time.Second)
		rec = app.request("POST", "/api/v1/staking/unstake", "", stakerToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("unstake failed: %d %s", rec.Code, rec.Body.String())
		}
		if got := parseJSON(t, rec)["reward_paid"].(float64); got != 1000 {
			t.Errorf("expected reward 1000 on unstake, got %v", got)
		}

		rec = app.request("GET", "/api/v1/profile", "", stakerToken)
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["token_balance"].(float64) != 3000 {
			t.Errorf("expected token balance 3000, got %v", user["token_balance"])
		}
	})

	t.Run("emission_rate_requires_admin", func(t *testing.T) {
		app := setupApp(t)
		token, _ := app.registerUser(t, "pleb@example.com")

		rec := app.request("PUT", "/api/v1/staking/emission-rate", `{"rate":100}`, token)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "NOT_ADMIN" {
			t.Errorf("expected NOT_ADMIN, got %s", code)
		}
	})
}

func TestGovernanceFlow(t *testing.T) {
	t.Run("propose_vote_execute_param_change", func(t *testing.T) {
		app := setupApp(t)
		token, _ := app.registerUser(t, "voter@example.com")
		app.deposit(t, token, "token", 2000)

		rec := app.request("POST", "/api/v1/staking/stake", `{"amount":2000}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("stake failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("POST", "/api/v1/governance/proposals",
			`{"title":"Lower the standard fee","action":"update_param","param_key":"standard_fee_bps","param_value":300}`,
			token)
		if rec.Code != http.StatusCreated {
			t.Fatalf("propose failed: %d %s", rec.Code, rec.Body.String())
		}
		proposalID := parseJSON(t, rec)["proposal"].(map[string]interface{})["id"].(string)

		rec = app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/vote",
			`{"support":true}`, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("vote failed: %d %s", rec.Code, rec.Body.String())
		}
		vote := parseJSON(t, rec)["vote"].(map[string]interface{})
		if vote["weight"].(float64) != 2000 {
			t.Errorf("expected vote weight 2000, got %v", vote["weight"])
		}

		// One ballot per voter.
		rec = app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/vote",
			`{"support":true}`, token)
		if code := errorCode(t, rec); code != "ALREADY_VOTED" {
			t.Errorf("expected ALREADY_VOTED, got %s", code)
		}

		// Execution must wait for the voting period to close.
		rec = app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/execute", "", token)
		if code := errorCode(t, rec); code != "PROPOSAL_NOT_ENDED" {
			t.Errorf("expected PROPOSAL_NOT_ENDED, got %s", code)
		}

		app.Clock.Advance(73 * time.Hour)

		rec = app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/execute", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("execute failed: %d %s", rec.Code, rec.Body.String())
		}
		proposal := parseJSON(t, rec)["proposal"].(map[string]interface{})
		if proposal["executed"] != true || proposal["passed"] != true {
			t.Errorf("expected executed and passed, got %v / %v", proposal["executed"], proposal["passed"])
		}

		rec = app.request("GET", "/api/v1/governance/params", "", token)
		params := parseJSON(t, rec)["params"].(map[string]interface{})
		if params["standard_fee_bps"].(float64) != 300 {
			t.Errorf("expected standard fee 300 bps, got %v", params["standard_fee_bps"])
		}
	})

	t.Run("insufficient_stake_to_propose", func(t *testing.T) {
		app := setupApp(t)
		token, _ := app.registerUser(t, "smallfish@example.com")
		app.deposit(t, token, "token", 500)
		app.request("POST", "/api/v1/staking/stake", `{"amount":500}`, token)

		rec := app.request("POST", "/api/v1/governance/proposals",
			`{"title":"Just a thought","action":"signal"}`, token)
		if code := errorCode(t, rec); code != "INSUFFICIENT_STAKE" {
			t.Errorf("expected INSUFFICIENT_STAKE, got %s", code)
		}
	})

	t.Run("treasury_transfer_proposal", func(t *testing.T) {
		app := setupApp(t)
		voterToken, _ := app.registerUser(t, "voter@example.com")
		_, granteeID := app.registerUser(t, "grantee@example.com")
		app.deposit(t, voterToken, "token", 2000)
		app.deposit(t, voterToken, "coin", 5000)
		app.request("POST", "/api/v1/staking/stake", `{"amount":2000}`, voterToken)

		rec := app.request("POST", "/api/v1/treasury/deposit",
			`{"currency":"coin","amount":5000}`, voterToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("treasury deposit failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("POST", "/api/v1/governance/proposals",
			fmt.Sprintf(`{"title":"Fund the grantee","action":"transfer","recipient_id":%q,"amount":1200,"currency":"coin"}`, granteeID),
			voterToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("propose failed: %d %s", rec.Code, rec.Body.String())
		}
		proposalID := parseJSON(t, rec)["proposal"].(map[string]interface{})["id"].(string)

		app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/vote",
			`{"support":true}`, voterToken)
		app.Clock.Advance(73 * time.Hour)

		rec = app.request("POST", "/api/v1/governance/proposals/"+proposalID+"/execute", "", voterToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("execute failed: %d %s", rec.Code, rec.Body.String())
		}

		rec = app.request("GET", "/api/v1/treasury", "", voterToken)
		treasury := parseJSON(t, rec)["treasury"].(map[string]interface{})
		if treasury["coin_balance"].(float64) != 3800 {
			t.Errorf("expected treasury balance 3800, got %v", treasury["coin_balance"])
		}
	})
}
