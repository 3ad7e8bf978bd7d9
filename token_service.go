package gemauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService signs and validates session tokens.
type TokenService interface {
	IssueAccessToken(user *User) (string, error)
	IssueRefreshToken(user *User) (string, error)
	Validate(token string) (*SessionClaims, error)
	ValidateRefresh(token string) (*SessionClaims, error)
}

// HSTokenService signs tokens with HMAC-SHA256.
type HSTokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// TokenOption configures an HSTokenService.
type TokenOption func(*HSTokenService)

// WithTokenTTLs overrides the default access and refresh lifetimes.
func WithTokenTTLs(access, refresh time.Duration) TokenOption {
	return func(ts *HSTokenService) {
		ts.accessTTL = access
		ts.refreshTTL = refresh
	}
}

// WithTokenIssuer sets the iss claim and enables issuer validation.
func WithTokenIssuer(issuer string) TokenOption {
	return func(ts *HSTokenService) {
		ts.issuer = issuer
	}
}

// WithTokenAudience sets the aud claim and enables audience validation.
func WithTokenAudience(audience ...string) TokenOption {
	return func(ts *HSTokenService) {
		ts.audience = audience
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(logger Logger) TokenOption {
	return func(ts *HSTokenService) {
		ts.logger = logger
	}
}

// NewTokenService creates a token service. The signing key must not be
// empty, there is no safe default for it.
func NewTokenService(signingKey []byte, opts ...TokenOption) (*HSTokenService, error) {
	if len(signingKey) == 0 {
		return nil, errors.New("token signing key cannot be empty", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	ts := &HSTokenService{
		signingKey: signingKey,
		accessTTL:  24 * time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts, nil
}

// IssueAccessToken signs a short lived token carrying the user's identity.
func (ts *HSTokenService) IssueAccessToken(user *User) (string, error) {
	return ts.issue(user, TokenKindAccess, ts.accessTTL)
}

// IssueRefreshToken signs a long lived token good only for minting new
// sessions.
func (ts *HSTokenService) IssueRefreshToken(user *User) (string, error) {
	return ts.issue(user, TokenKindRefresh, ts.refreshTTL)
}

func (ts *HSTokenService) issue(user *User, kind TokenKind, ttl time.Duration) (string, error) {
	if user == nil {
		return "", errors.New("cannot issue token without a user", errors.CategoryInternal)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		Kind:   kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}
	return signed, nil
}

// Validate parses and verifies an access token. Refresh tokens are
// rejected here, they only mint new sessions.
func (ts *HSTokenService) Validate(token string) (*SessionClaims, error) {
	claims, err := ts.parse(token)
	if err != nil {
		return nil, err
	}
	// Tokens from before kinds were introduced carry no kind claim and
	// count as access tokens.
	if claims.Kind != "" && claims.Kind != TokenKindAccess {
		return nil, tokenInvalid("refresh token used as access token")
	}
	return claims, nil
}

// ValidateRefresh parses and verifies a refresh token.
func (ts *HSTokenService) ValidateRefresh(token string) (*SessionClaims, error) {
	claims, err := ts.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != TokenKindRefresh {
		return nil, tokenInvalid("access token used as refresh token")
	}
	return claims, nil
}

func (ts *HSTokenService) parse(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, tokenInvalid(err.Error())
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token validate could not decode claims")
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
