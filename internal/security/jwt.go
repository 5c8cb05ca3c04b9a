package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/domain"
)

// TokenType separates access tokens from refresh tokens signed with the same key
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const defaultIssuer = "lingocode"

// Claims represents JWT claims
type Claims struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email,omitempty"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssuedPair is a freshly minted token pair. RefreshID is the jti that the
// server records so the refresh token can be rotated exactly once.
type IssuedPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshID        uuid.UUID
	RefreshExpiresAt time.Time
	ExpiresIn        int64
}

// JWTManager handles JWT token operations
type JWTManager struct {
	secret          []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// Option configures a JWTManager
type Option func(*JWTManager)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) {
		m.now = now
	}
}

// WithIssuer sets the iss claim
func WithIssuer(issuer string) Option {
	return func(m *JWTManager) {
		if issuer != "" {
			m.issuer = issuer
		}
	}
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *JWTManager {
	m := &JWTManager{
		secret:          []byte(secret),
		issuer:          defaultIssuer,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateAccessToken generates a new access token
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	return m.sign(claims)
}

// GenerateRefreshToken generates a new refresh token with a unique jti
func (m *JWTManager) GenerateRefreshToken(userID uuid.UUID) (string, uuid.UUID, time.Time, error) {
	now := m.now()
	id := uuid.New()
	expiresAt := now.Add(m.refreshTokenTTL)
	claims := Claims{
		UserID: userID,
		Type:   TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token, err := m.sign(claims)
	if err != nil {
		return "", uuid.Nil, time.Time{}, err
	}
	return token, id, expiresAt, nil
}

// GenerateTokenPair generates both access and refresh tokens
func (m *JWTManager) GenerateTokenPair(userID uuid.UUID, email string) (*IssuedPair, error) {
	accessToken, err := m.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, refreshID, refreshExpiresAt, err := m.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &IssuedPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshID:        refreshID,
		RefreshExpiresAt: refreshExpiresAt,
		ExpiresIn:        int64(m.accessTokenTTL.Seconds()),
	}, nil
}

// ValidateAccessToken validates an access token and returns the claims.
// Expired tokens yield domain.ErrTokenExpired; anything else that fails
// yields domain.ErrTokenInvalid.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.Type != TokenTypeAccess || claims.UserID == uuid.Nil {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns its claims.
// Every failure maps to domain.ErrInvalidRefreshToken.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}
	if claims.Type != TokenTypeRefresh || claims.UserID == uuid.Nil {
		return nil, domain.ErrInvalidRefreshToken
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, domain.ErrInvalidRefreshToken
	}
	return claims, nil
}

// AccessTokenTTL returns the access token TTL
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.accessTokenTTL
}

// RefreshTokenTTL returns the refresh token TTL
func (m *JWTManager) RefreshTokenTTL() time.Duration {
	return m.refreshTokenTTL
}

func (m *JWTManager) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
