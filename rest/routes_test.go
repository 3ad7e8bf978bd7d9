package rest_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/gemstone-system/gemauth"
	"github.com/gemstone-system/gemauth/rest"
)

type testServer struct {
	app    *fiber.App
	repo   gemauth.RepositoryManager
	svc    *gemauth.Service
	tokens gemauth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)
	require.NoError(t, gemauth.EnsureSchema(context.Background(), db))

	repo := gemauth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens, err := gemauth.NewTokenService([]byte("rest-test-signing-key"))
	require.NoError(t, err)

	svc := gemauth.NewService(repo, tokens, nil).
		WithBaseURL("https://gems.example.com")

	app := fiber.New(fiber.Config{
		ErrorHandler: rest.NewErrorHandler(nil, true),
	})
	rest.RegisterRoutes(app, rest.Deps{
		Service: svc,
		Repo:    repo,
		Tokens:  tokens,
	})

	return &testServer{app: app, repo: repo, svc: svc, tokens: tokens}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return resp, body
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	buf := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buf).Encode(payload))

	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func (s *testServer) register(t *testing.T, email, password string) map[string]any {
	t.Helper()

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":            "Beryl Stone",
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return body
}

func (s *testServer) registerAdmin(t *testing.T, email, password string) *gemauth.User {
	t.Helper()

	hash, err := gemauth.HashPassword(password)
	require.NoError(t, err)

	admin, err := s.repo.Users().Register(context.Background(), &gemauth.User{
		Name:     "Admin Stone",
		Email:    email,
		Password: hash,
		Role:     gemauth.RoleAdmin,
	})
	require.NoError(t, err)
	return admin
}

func accessToken(t *testing.T, body map[string]any) string {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data: %v", body)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("creates the account", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
			"name":            "Beryl Stone",
			"email":           "beryl@example.com",
			"password":        "password123",
			"confirmPassword": "password123",
			"phone":           "+1 212 555 0123",
		}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "success", body["status"])

		data := body["data"].(map[string]any)
		user := data["user"].(map[string]any)
		assert.Equal(t, "beryl@example.com", user["email"])
		assert.Equal(t, "user", user["role"])
		assert.NotContains(t, user, "password")
		assert.NotEmpty(t, data["token"])
		assert.NotEmpty(t, data["refreshToken"])

		session := responseCookie(resp, rest.SessionCookieName)
		require.NotNil(t, session)
		assert.True(t, session.HttpOnly)
		require.NotNil(t, responseCookie(resp, rest.RefreshCookieName))
	})

	t.Run("rejects mismatched passwords", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
			"name":            "Beryl Stone",
			"email":           "mismatch@example.com",
			"password":        "password123",
			"confirmPassword": "different456",
		}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Validation failed", body["message"])
		assert.Contains(t, body, "errors")
	})

	t.Run("rejects bad phone numbers", func(t *testing.T) {
		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
			"name":            "Beryl Stone",
			"email":           "badphone@example.com",
			"password":        "password123",
			"confirmPassword": "password123",
			"phone":           "not a phone",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
			"name":            "Beryl Stone",
			"email":           "beryl@example.com",
			"password":        "password123",
			"confirmPassword": "password123",
		}))

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "Email already registered", body["message"])
	})
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "pearl@example.com", "password123")

	t.Run("valid credentials", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "pearl@example.com",
			"password": "password123",
		}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Login successful", body["message"])
		assert.NotEmpty(t, accessToken(t, body))
		require.NotNil(t, responseCookie(resp, rest.SessionCookieName))
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "pearl@example.com",
			"password": "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", body["message"])
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "nobody@example.com",
			"password": "wrong",
		}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", body["message"])
	})
}

func TestMeEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s.register(t, "me@example.com", "password123"))

	t.Run("with bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		user := body["data"].(map[string]any)
		assert.Equal(t, "me@example.com", user["email"])
	})

	t.Run("with session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: rest.SessionCookieName, Value: token})

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("without a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Authentication required", body["message"])
	})
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := s.register(t, "refresh@example.com", "password123")
	refresh := body["data"].(map[string]any)["refreshToken"].(string)

	t.Run("from cookie", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]any{})
		req.AddCookie(&http.Cookie{Name: rest.RefreshCookieName, Value: refresh})

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, accessToken(t, body))
	})

	t.Run("from body", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": refresh,
		}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, accessToken(t, body))
	})

	t.Run("missing token", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]any{}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Refresh token is required", body["message"])
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": accessToken(t, body),
		}))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestVerifyEmailEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "verify@example.com", "password123")

	user, err := s.repo.Users().GetByEmail(context.Background(), "verify@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.EmailVerificationToken)
	token := *user.EmailVerificationToken

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/verify-email", map[string]any{
		"token": token,
	}))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Email verified successfully. You can now log in.", body["message"])

	t.Run("token cannot be replayed", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/verify-email", map[string]any{
			"token": token,
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid verification token", body["message"])
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "forgot@example.com", "password123")

	t.Run("forgot password is quiet about unknown emails", func(t *testing.T) {
		for _, email := range []string{"forgot@example.com", "stranger@example.com"} {
			resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/forgot-password", map[string]any{
				"email": email,
			}))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t,
				"If your email is registered, you will receive password reset instructions.",
				body["message"])
		}
	})

	t.Run("reset with the stored token", func(t *testing.T) {
		token := uuid.NewString()
		_, err := s.repo.Users().SetResetToken(context.Background(),
			"forgot@example.com", token, time.Now().Add(time.Hour))
		require.NoError(t, err)

		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/reset-password", map[string]any{
			"token":           token,
			"newPassword":     "freshpass456",
			"confirmPassword": "freshpass456",
		}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "forgot@example.com",
			"password": "freshpass456",
		}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown reset token", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/reset-password", map[string]any{
			"token":           "bogus",
			"newPassword":     "freshpass456",
			"confirmPassword": "freshpass456",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid or expired reset token", body["message"])
	})
}

func TestChangePasswordEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s.register(t, "change@example.com", "password123"))

	t.Run("requires a session", func(t *testing.T) {
		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/change-password", map[string]any{
			"currentPassword": "password123",
			"newPassword":     "newpass4567",
		}))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong current password", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/auth/change-password", map[string]any{
			"currentPassword": "wrong",
			"newPassword":     "newpass4567",
			"confirmPassword": "newpass4567",
		})
		req.Header.Set("Authorization", "Bearer "+token)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Current password is incorrect", body["message"])
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/auth/change-password", map[string]any{
			"currentPassword": "password123",
			"newPassword":     "newpass4567",
			"confirmPassword": "something-entirely-different",
		})
		req.Header.Set("Authorization", "Bearer "+token)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Validation failed", body["message"])
	})

	t.Run("missing confirmation", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/auth/change-password", map[string]any{
			"currentPassword": "password123",
			"newPassword":     "newpass4567",
		})
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("changes the password", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/api/auth/change-password", map[string]any{
			"currentPassword": "password123",
			"newPassword":     "newpass4567",
			"confirmPassword": "newpass4567",
		})
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "change@example.com",
			"password": "newpass4567",
		}))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPasswordPolicyMinimumLength(t *testing.T) {
	payload := rest.RegisterPayload{
		Name:            "Beryl Stone",
		Email:           "policy@example.com",
		Password:        "tenletters",
		ConfirmPassword: "tenletters",
	}

	assert.NoError(t, payload.Validate(rest.PasswordPolicy{}), "zero policy keeps the default minimum")
	assert.Error(t, payload.Validate(rest.PasswordPolicy{MinLength: 12}))

	change := rest.ChangePasswordPayload{
		CurrentPassword: "oldpassword",
		NewPassword:     "tenletters",
		ConfirmPassword: "tenletters",
	}

	assert.NoError(t, change.Validate(rest.PasswordPolicy{}))
	assert.Error(t, change.Validate(rest.PasswordPolicy{MinLength: 12}))
}

func TestLogoutEndpoint(t *testing.T) {
	s := newTestServer(t)
	token := accessToken(t, s.register(t, "bye@example.com", "password123"))

	req := jsonRequest(t, http.MethodPost, "/api/auth/logout", map[string]any{})
	req.Header.Set("Authorization", "Bearer "+token)

	resp, body := s.do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", body["message"])

	session := responseCookie(resp, rest.SessionCookieName)
	require.NotNil(t, session)
	assert.Empty(t, session.Value)
}

func TestProfessionalProfileEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register/professional", map[string]any{
		"name":             "Garnet Cole",
		"email":            "garnet@example.com",
		"password":         "password123",
		"confirmPassword":  "password123",
		"professionalType": "dealer",
		"businessName":     "Cole Fine Gems",
		"licenseNumber":    "GIA-2210",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dealerToken := accessToken(t, body)
	profile := body["data"].(map[string]any)["user"].(map[string]any)["profile"].(map[string]any)
	profileID := profile["id"].(string)
	assert.Equal(t, "pending", profile["verification_status"])

	otherToken := accessToken(t, s.register(t, "bystander@example.com", "password123"))

	t.Run("plain role cannot register professionally", func(t *testing.T) {
		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register/professional", map[string]any{
			"name":             "Sneaky Sam",
			"email":            "sam@example.com",
			"password":         "password123",
			"confirmPassword":  "password123",
			"professionalType": "admin",
			"businessName":     "Not A Shop",
		}))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("owner reads own profile via me", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/professional-profiles/me", nil)
		req.Header.Set("Authorization", "Bearer "+dealerToken)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data := body["data"].(map[string]any)
		assert.Equal(t, "Cole Fine Gems", data["business_name"])
	})

	t.Run("owner reads own profile by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/professional-profiles/"+profileID, nil)
		req.Header.Set("Authorization", "Bearer "+dealerToken)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("someone else is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/professional-profiles/"+profileID, nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "You do not own this resource", body["message"])
	})

	t.Run("unknown profile is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/professional-profiles/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", "Bearer "+dealerToken)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("account without a profile", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/professional-profiles/me", nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.registerAdmin(t, "admin@example.com", "admin-password")

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/auth/register/professional", map[string]any{
		"name":             "Citrine Ward",
		"email":            "citrine@example.com",
		"password":         "password123",
		"confirmPassword":  "password123",
		"professionalType": "appraiser",
		"businessName":     "Ward Appraisals",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profileID := body["data"].(map[string]any)["user"].(map[string]any)["profile"].(map[string]any)["id"].(string)
	dealerToken := accessToken(t, body)

	t.Run("non admin cannot log into the admin surface", func(t *testing.T) {
		resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/admin/auth/login", map[string]any{
			"email":    "citrine@example.com",
			"password": "password123",
		}))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", body["message"])
	})

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, "/admin/auth/login", map[string]any{
		"email":    "admin@example.com",
		"password": "admin-password",
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	adminCookie := responseCookie(resp, rest.AdminCookieName)
	require.NotNil(t, adminCookie)
	assert.Equal(t, "/admin", adminCookie.Path)
	adminToken := accessToken(t, body)

	t.Run("lists pending profiles", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/professional-profiles/pending", nil)
		req.AddCookie(&http.Cookie{Name: rest.AdminCookieName, Value: adminToken})

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		profiles := body["data"].([]any)
		require.Len(t, profiles, 1)
		assert.Equal(t, profileID, profiles[0].(map[string]any)["id"])
	})

	t.Run("non admin session is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/professional-profiles/pending", nil)
		req.Header.Set("Authorization", "Bearer "+dealerToken)

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("storefront session cookie does not reach admin routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/professional-profiles/pending", nil)
		req.AddCookie(&http.Cookie{Name: rest.SessionCookieName, Value: adminToken})

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("approves a profile", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/admin/professional-profiles/"+profileID, map[string]any{
			"status": "verified",
		})
		req.AddCookie(&http.Cookie{Name: rest.AdminCookieName, Value: adminToken})

		resp, body := s.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		data := body["data"].(map[string]any)
		assert.Equal(t, "verified", data["verification_status"])
	})

	t.Run("rejects an unknown review status", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPatch, "/admin/professional-profiles/"+profileID, map[string]any{
			"status": "super-verified",
		})
		req.AddCookie(&http.Cookie{Name: rest.AdminCookieName, Value: adminToken})

		resp, _ := s.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
