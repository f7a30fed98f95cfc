package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow(t *testing.T) {
	t.Run("register_login_profile", func(t *testing.T) {
		app := setupApp(t)

		rec := app.request("POST", "/api/v1/auth/register",
			`{"email":"alice@example.com","password":"password123","display_name":"Alice"}`, "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["access_token"] == nil || result["refresh_token"] == nil {
			t.Fatal("expected tokens in register response")
		}
		user := result["user"].(map[string]interface{})
		if user["email"] != "alice@example.com" {
			t.Errorf("unexpected email: %v", user["email"])
		}

		rec = app.request("POST", "/api/v1/auth/login",
			`{"email":"alice@example.com","password":"password123"}`, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result = parseJSON(t, rec)
		token := result["access_token"].(string)

		rec = app.request("GET", "/api/v1/profile", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result = parseJSON(t, rec)
		user = result["user"].(map[string]interface{})
		if user["display_name"] != "Alice" {
			t.Errorf("unexpected display name: %v", user["display_name"])
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		app := setupApp(t)
		app.registerUser(t, "bob@example.com")

		rec := app.request("POST", "/api/v1/auth/register",
			`{"email":"BOB@example.com","password":"password123","display_name":"Bob Again"}`, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
			t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		app := setupApp(t)
		app.registerUser(t, "carol@example.com")

		rec := app.request("POST", "/api/v1/auth/login",
			`{"email":"carol@example.com","password":"not-the-password"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
			t.Errorf("expected INVALID_CREDENTIALS, got %s", code)
		}
	})

	t.Run("lockout_after_repeated_failures", func(t *testing.T) {
		app := setupApp(t)
		app.registerUser(t, "dave@example.com")

		for i := 0; i < 5; i++ {
			rec := app.request("POST", "/api/v1/auth/login",
				`{"email":"dave@example.com","password":"wrong-password"}`, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
			}
		}

		// Correct password is rejected while the account is locked.
		rec := app.request("POST", "/api/v1/auth/login",
			`{"email":"dave@example.com","password":"password123"}`, "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		if code := errorCode(t, rec); code != "ACCOUNT_LOCKED" {
			t.Errorf("expected ACCOUNT_LOCKED, got %s", code)
		}
	})

	t.Run("unauthorized_without_token", func(t *testing.T) {
		app := setupApp(t)

		rec := app.request("GET", "/api/v1/profile", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRefreshFlow(t *testing.T) {
	t.Run("rotates_tokens", func(t *testing.T) {
		app := setupApp(t)

		rec := app.request("POST", "/api/v1/auth/register",
			`{"email":"eve@example.com","password":"password123","display_name":"Eve"}`, "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		refreshToken := result["refresh_token"].(string)

		rec = app.request("POST", "/api/v1/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
		}
		result = parseJSON(t, rec)
		newAccess := result["access_token"].(string)
		newRefresh := result["refresh_token"].(string)
		if newAccess == "" || newRefresh == "" {
			t.Fatal("expected a fresh token pair")
		}

		// The rotated access token works against a protected endpoint.
		rec = app.request("GET", "/api/v1/profile", "", newAccess)
		if rec.Code != http.StatusOK {
			t.Fatalf("profile with rotated token failed: %d", rec.Code)
		}

		// The old refresh token was invalidated by rotation.
		rec = app.request("POST", "/api/v1/auth/refresh",
			fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for stale refresh token, got %d", rec.Code)
		}
	})

	t.Run("rejects_garbage_token", func(t *testing.T) {
		app := setupApp(t)

		rec := app.request("POST", "/api/v1/auth/refresh",
			`{"refresh_token":"not-a-jwt"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
