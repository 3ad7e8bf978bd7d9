package gemauth_test

import (
	"context"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemstone-system/gemauth"
)

var testSigningKey = []byte("test-signing-key")

func testUser() *gemauth.User {
	return &gemauth.User{
		ID:    uuid.New(),
		Name:  "Pepe Rone",
		Email: "pepe.rone@example.com",
		Role:  gemauth.RoleUser,
	}
}

func TestNewTokenService(t *testing.T) {
	t.Run("requires a signing key", func(t *testing.T) {
		_, err := gemauth.NewTokenService(nil)
		assert.Error(t, err)

		_, err = gemauth.NewTokenService([]byte{})
		assert.Error(t, err)
	})

	t.Run("creates service with defaults", func(t *testing.T) {
		ts, err := gemauth.NewTokenService(testSigningKey)
		require.NoError(t, err)
		assert.NotNil(t, ts)
	})
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	ts, err := gemauth.NewTokenService(testSigningKey, gemauth.WithTokenIssuer("gemstone-test"))
	require.NoError(t, err)

	user := testUser()
	token, err := ts.IssueAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
	assert.Equal(t, gemauth.TokenKindAccess, claims.Kind)
	assert.Equal(t, "gemstone-test", claims.Issuer)
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	ts, err := gemauth.NewTokenService(testSigningKey)
	require.NoError(t, err)

	user := testUser()
	token, err := ts.IssueRefreshToken(user)
	require.NoError(t, err)

	claims, err := ts.ValidateRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, gemauth.TokenKindRefresh, claims.Kind)
}

func TestTokenService_KindEnforcement(t *testing.T) {
	ts, err := gemauth.NewTokenService(testSigningKey)
	require.NoError(t, err)

	user := testUser()
	access, err := ts.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, err := ts.IssueRefreshToken(user)
	require.NoError(t, err)

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, err := ts.Validate(refresh)
		require.Error(t, err)
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, gemauth.TextCodeTokenInvalid, richErr.TextCode)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		_, err := ts.ValidateRefresh(access)
		require.Error(t, err)
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, gemauth.TextCodeTokenInvalid, richErr.TextCode)
	})
}

func TestTokenService_Expired(t *testing.T) {
	ts, err := gemauth.NewTokenService(testSigningKey,
		gemauth.WithTokenTTLs(-time.Minute, -time.Minute))
	require.NoError(t, err)

	token, err := ts.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = ts.Validate(token)
	assert.Equal(t, gemauth.ErrTokenExpired, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	ts1, err := gemauth.NewTokenService(testSigningKey)
	require.NoError(t, err)
	ts2, err := gemauth.NewTokenService([]byte("a-different-key"))
	require.NoError(t, err)

	token, err := ts1.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = ts2.Validate(token)
	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, gemauth.TextCodeTokenInvalid, richErr.TextCode)
}

func TestTokenService_Garbage(t *testing.T) {
	ts, err := gemauth.NewTokenService(testSigningKey)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := ts.Validate(token)
		assert.Error(t, err, token)
	}
}

func TestPrincipalFromClaims(t *testing.T) {
	validID := uuid.New()

	tests := []struct {
		name    string
		claims  *gemauth.SessionClaims
		wantErr bool
	}{
		{
			name: "valid claims",
			claims: &gemauth.SessionClaims{
				UserID: validID.String(),
				Email:  "a@example.com",
				Role:   gemauth.RoleDealer,
			},
		},
		{
			name:    "nil claims",
			claims:  nil,
			wantErr: true,
		},
		{
			name: "malformed user id",
			claims: &gemauth.SessionClaims{
				UserID: "not-a-uuid",
				Email:  "a@example.com",
				Role:   gemauth.RoleUser,
			},
			wantErr: true,
		},
		{
			name: "missing email",
			claims: &gemauth.SessionClaims{
				UserID: validID.String(),
				Role:   gemauth.RoleUser,
			},
			wantErr: true,
		},
		{
			name: "unknown role",
			claims: &gemauth.SessionClaims{
				UserID: validID.String(),
				Email:  "a@example.com",
				Role:   gemauth.Role("superuser"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := gemauth.PrincipalFromClaims(tt.claims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, validID, principal.UserID)
			assert.Equal(t, tt.claims.Email, principal.Email)
			assert.Equal(t, tt.claims.Role, principal.Role)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	principal := gemauth.Principal{
		UserID: uuid.New(),
		Email:  "a@example.com",
		Role:   gemauth.RoleAdmin,
	}

	ctx := gemauth.WithPrincipal(context.Background(), principal)

	got, ok := gemauth.PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, principal, got)
	assert.True(t, got.IsAdmin())

	_, ok = gemauth.PrincipalFromContext(context.Background())
	assert.False(t, ok)
}
