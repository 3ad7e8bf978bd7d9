package gemauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the two token flavors the service issues.
type TokenKind string

const (
	// TokenKindAccess is the short lived token used on every request.
	TokenKindAccess TokenKind = "access"
	// TokenKindRefresh is the long lived token exchanged for new sessions.
	TokenKindRefresh TokenKind = "refresh"
)

// SessionClaims is the fixed claim set carried by every token the service
// signs. Tokens with extra claims still parse, unknown fields are dropped.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string    `json:"id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	Kind   TokenKind `json:"kind,omitempty"`
}

// Expires returns the expiration time, zero when the claim is absent.
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issued-at time, zero when the claim is absent.
func (c *SessionClaims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Principal is the authenticated identity attached to a request once its
// token has been validated. It is what handlers and guards consume.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal bypasses ownership checks.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// PrincipalFromClaims converts validated claims into a Principal. It
// rejects claim sets whose identity fields do not hold a parseable user id,
// a known role, and a non empty email, even when the signature checked out.
func PrincipalFromClaims(claims *SessionClaims) (Principal, error) {
	if claims == nil {
		return Principal{}, ErrTokenInvalid
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Principal{}, tokenInvalid("malformed user id claim")
	}

	if claims.Email == "" {
		return Principal{}, tokenInvalid("missing email claim")
	}

	if !claims.Role.IsValid() {
		return Principal{}, tokenInvalid("unknown role claim")
	}

	return Principal{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}
