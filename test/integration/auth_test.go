package integration_test

import (
	"net/http"
	"testing"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmationCode(t *testing.T, ts *TestServer, email string) string {
	t.Helper()
	var code models.ConfirmationCode
	err := ts.DB.
		Joins("JOIN user_profiles ON user_profiles.id = confirmation_codes.profile_id").
		Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("users.email = ?", email).
		First(&code).Error
	require.NoError(t, err)
	return code.Code
}

// TestAuthFlow - регистрация, вход до и после подтверждения, refresh и logout
func TestAuthFlow(t *testing.T) {
	ts := NewTestServer(t)

	registerBody := map[string]interface{}{
		"email":            "client@test.kg",
		"password":         "secret123",
		"password_confirm": "secret123",
		"first_name":       "Айгуль",
		"last_name":        "Иванова",
	}
	res, body := ts.SendRequest(t, "POST", "/authorization/registration", "", registerBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)
	assert.Contains(t, body, "Registration successful")

	loginBody := map[string]interface{}{"email": "client@test.kg", "password": "secret123"}
	res, body = ts.SendRequest(t, "POST", "/authorization/login", "", loginBody)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, body, "NOT_VERIFIED")

	res, body = ts.SendRequest(t, "POST", "/authorization/verify", "", map[string]interface{}{
		"email": "client@test.kg",
		"code":  confirmationCode(t, ts, "client@test.kg"),
	})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	res, body = ts.SendRequest(t, "POST", "/authorization/login", "", loginBody)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var login dto.LoginResponse
	Decode(t, body, &login)
	assert.NotEmpty(t, login.Access)
	assert.NotEmpty(t, login.Data.Slug)

	res, body = ts.SendRequest(t, "GET", "/authorization/me", login.Access, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, "client@test.kg")

	res, body = ts.SendRequest(t, "POST", "/authorization/refresh-token", "", map[string]interface{}{"refresh": login.Refresh})
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var refreshed dto.RefreshResponse
	Decode(t, body, &refreshed)
	require.NotEmpty(t, refreshed.Refresh, "refresh токен ротируется")

	// старый refresh после ротации отозван
	res, _ = ts.SendRequest(t, "POST", "/authorization/refresh-token", "", map[string]interface{}{"refresh": login.Refresh})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, "POST", "/authorization/logout", "", map[string]interface{}{"refresh": refreshed.Refresh})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = ts.SendRequest(t, "POST", "/authorization/refresh-token", "", map[string]interface{}{"refresh": refreshed.Refresh})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ts := NewTestServer(t)
	helpers.CreateUser(t, ts.DB, "duplicate@test.kg", models.TierNone)

	res, body := ts.SendRequest(t, "POST", "/authorization/registration", "", map[string]interface{}{
		"email":            "duplicate@test.kg",
		"password":         "secret123",
		"password_confirm": "secret123",
		"first_name":       "Два",
		"last_name":        "Второй",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, body, "Email already in use")
}

func TestRegister_Validation(t *testing.T) {
	ts := NewTestServer(t)

	res, body := ts.SendRequest(t, "POST", "/authorization/registration", "", map[string]interface{}{
		"email":    "not-an-email",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "VALIDATION_FAILED")
}

func TestLogin_BadPassword(t *testing.T) {
	ts := NewTestServer(t)
	helpers.CreateUser(t, ts.DB, "user@test.kg", models.TierNone)

	res, body := ts.SendRequest(t, "POST", "/authorization/login", "", map[string]interface{}{
		"email":    "user@test.kg",
		"password": "wrong-password1",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Invalid email or password")
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	ts := NewTestServer(t)

	res, _ := ts.SendRequest(t, "GET", "/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = ts.SendRequest(t, "GET", "/profile/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	token, _, profile := ts.Login(t, "owner@test.kg", models.TierNone)
	res, body := ts.SendRequest(t, "GET", "/profile/", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, profile.Slug)
}
