package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestAuthFlow_RegisterLoginProfileRefresh(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	accessToken, refreshToken, userID := app.registerUser(t, "auth@test.com", "password123", 2000)
	if accessToken == "" || refreshToken == "" {
		t.Fatal("expected non-empty tokens from registration")
	}
	if userID == "" {
		t.Fatal("expected a user ID")
	}

	// Step 2: Login with same credentials
	loginAccess, loginRefresh := app.loginUser(t, "auth@test.com", "password123")
	if loginAccess == "" || loginRefresh == "" {
		t.Fatal("expected non-empty tokens from login")
	}

	// Step 3: Access profile with login access token
	rec := app.request("GET", "/api/v1/auth/me", "", loginAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", user["email"])
	}
	if user["monthly_allowance"].(float64) != 2000 || user["budget_discipline_score"].(float64) != 100 {
		t.Errorf("unexpected profile %v", user)
	}

	// Step 4: Refresh token
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	newAccess := parseJSON(t, rec)["token"].(string)

	// Step 5: Access profile with new access token
	rec = app.request("GET", "/api/v1/auth/me", "", newAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with new token, got %d: %s", rec.Code, rec.Body.String())
	}

	// Step 6: The rotated-out refresh token no longer works
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused refresh token, got %d", rec.Code)
	}
}

func TestAuthFlow_RegisterDuplicateEmail(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "dup@test.com", "password123", 0)

	rec := app.request("POST", "/api/v1/auth/register",
		`{"name":"Again","email":"DUP@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %v", code)
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "wrong@test.com", "password123", 0)

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"wrong@test.com","password":"wrongpassword"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected INVALID_CREDENTIALS, got %v", code)
	}
}

func TestAuthFlow_AccountLockout(t *testing.T) {
	app := setupApp(t)

	app.registerUser(t, "lockout@test.com", "password123", 0)

	// Fail 5 times
	for i := 0; i < 5; i++ {
		rec := app.request("POST", "/api/v1/auth/login",
			`{"email":"lockout@test.com","password":"wrong"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	// Even with correct password, should still be locked
	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"lockout@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423 while locked, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "ACCOUNT_LOCKED" {
		t.Errorf("expected ACCOUNT_LOCKED, got %v", code)
	}

	// The lock lifts after 15 minutes
	app.clock.Set(appStart.Add(16 * time.Minute))
	app.loginUser(t, "lockout@test.com", "password123")
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "reset@test.com", "password123", 0)

	rec := app.request("POST", "/api/v1/auth/forgot-password", `{"email":"nobody@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown email, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/auth/forgot-password", `{"email":"reset@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot password failed: %d %s", rec.Code, rec.Body.String())
	}
	token, _ := parseJSON(t, rec)["reset_token"].(string)
	if token == "" {
		t.Fatal("expected reset token while email delivery is disabled")
	}

	rec = app.request("GET", "/api/v1/auth/reset-password/"+token, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected valid token, got %d", rec.Code)
	}

	rec = app.request("POST", "/api/v1/auth/reset-password/"+token, `{"password":"brandnew1"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}

	// Token is single use
	rec = app.request("POST", "/api/v1/auth/reset-password/"+token, `{"password":"another1"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", rec.Code)
	}

	app.loginUser(t, "reset@test.com", "brandnew1")
	rec = app.request("POST", "/api/v1/auth/login", `{"email":"reset@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password must stop working, got %d", rec.Code)
	}
}

func TestAuthFlow_ExpiredResetToken(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "expire@test.com", "password123", 0)

	rec := app.request("POST", "/api/v1/auth/forgot-password", `{"email":"expire@test.com"}`, "")
	token := parseJSON(t, rec)["reset_token"].(string)

	app.clock.Set(appStart.Add(11 * time.Minute))
	rec = app.request("GET", "/api/v1/auth/reset-password/"+token, "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for expired token, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "INVALID_RESET_TOKEN" {
		t.Errorf("expected INVALID_RESET_TOKEN, got %v", code)
	}
}

func TestAuthFlow_ProfileAndPassword(t *testing.T) {
	app := setupApp(t)
	access, _, _ := app.registerUser(t, "profile@test.com", "password123", 0)
	app.registerUser(t, "taken@test.com", "password123", 0)

	rec := app.request("PUT", "/api/v1/auth/profile", `{"name":"Renamed"}`, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile failed: %d %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["user"].(map[string]interface{})["name"] != "Renamed" {
		t.Error("expected renamed user")
	}

	rec = app.request("PUT", "/api/v1/auth/profile", `{"email":"taken@test.com"}`, access)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for taken email, got %d", rec.Code)
	}

	rec = app.request("PUT", "/api/v1/auth/password", `{"current_password":"nope123","new_password":"changed1"}`, access)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong current password, got %d", rec.Code)
	}

	rec = app.request("PUT", "/api/v1/auth/password", `{"current_password":"password123","new_password":"changed1"}`, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password failed: %d %s", rec.Code, rec.Body.String())
	}
	app.loginUser(t, "profile@test.com", "changed1")
}

func TestAuthFlow_ProfileWithoutAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthFlow_ProfileWithInvalidToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/auth/me", "", "invalid-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
