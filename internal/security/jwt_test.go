package security_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/security"
)

const testSecret = "test-secret-key-with-at-least-32-chars"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(clock *fakeClock) *security.JWTManager {
	return security.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour, security.WithClock(clock.Now))
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	manager := newManager(clock)

	userID := uuid.New()
	email := "test@example.com"

	accessToken, err := manager.GenerateAccessToken(userID, email)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	claims, err := manager.ValidateAccessToken(accessToken)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID mismatch: got %v, want %v", claims.UserID, userID)
	}
	if claims.Email != email {
		t.Errorf("email mismatch: got %v, want %v", claims.Email, email)
	}
	if claims.Type != security.TokenTypeAccess {
		t.Errorf("token type mismatch: got %v, want %v", claims.Type, security.TokenTypeAccess)
	}
}

func TestJWTManager_GenerateTokenPair(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	manager := newManager(clock)

	userID := uuid.New()

	pair, err := manager.GenerateTokenPair(userID, "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair has an empty token")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Error("access and refresh tokens must differ")
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expires in mismatch: got %d, want %d", pair.ExpiresIn, int64((15 * time.Minute).Seconds()))
	}
	if !pair.RefreshExpiresAt.Equal(clock.t.Add(7 * 24 * time.Hour)) {
		t.Errorf("refresh expiry mismatch: got %v", pair.RefreshExpiresAt)
	}

	claims, err := manager.ValidateRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("failed to validate refresh token: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user ID from refresh token mismatch: got %v, want %v", claims.UserID, userID)
	}
	if claims.ID != pair.RefreshID.String() {
		t.Errorf("refresh jti mismatch: got %v, want %v", claims.ID, pair.RefreshID)
	}
}

func TestJWTManager_TokenTypesAreNotInterchangeable(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	manager := newManager(clock)

	pair, err := manager.GenerateTokenPair(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if _, err := manager.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
	if _, err := manager.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}
}

func TestJWTManager_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	manager := newManager(clock)

	token, err := manager.GenerateAccessToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	clock.Advance(15*time.Minute - time.Second)
	if _, err := manager.ValidateAccessToken(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}

	clock.Advance(2 * time.Second)
	_, err = manager.ValidateAccessToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
	if errors.Is(err, domain.ErrTokenInvalid) {
		t.Error("expired token must not be reported as invalid")
	}
}

func TestJWTManager_RefreshExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	manager := newManager(clock)

	token, _, _, err := manager.GenerateRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("failed to generate refresh token: %v", err)
	}

	clock.Advance(7*24*time.Hour + time.Second)
	if _, err := manager.ValidateRefreshToken(token); !errors.Is(err, domain.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	manager := newManager(clock)

	tests := []struct {
		name  string
		token func() string
	}{
		{"malformed", func() string { return "invalid-token" }},
		{"empty", func() string { return "" }},
		{"different secret", func() string {
			other := security.NewJWTManager("different-secret-key-with-32-chars!!", 15*time.Minute, time.Hour)
			token, _ := other.GenerateAccessToken(uuid.New(), "test@example.com")
			return token
		}},
		{"none algorithm", func() string {
			claims := security.Claims{
				UserID: uuid.New(),
				Type:   security.TokenTypeAccess,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
					Issuer:    "lingocode",
				},
			}
			token, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return token
		}},
		{"wrong issuer", func() string {
			other := security.NewJWTManager(testSecret, 15*time.Minute, time.Hour, security.WithIssuer("someone-else"))
			token, _ := other.GenerateAccessToken(uuid.New(), "test@example.com")
			return token
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ValidateAccessToken(tt.token())
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestJWTManager_TTLs(t *testing.T) {
	accessTTL := 30 * time.Minute
	refreshTTL := 48 * time.Hour
	manager := security.NewJWTManager(testSecret, accessTTL, refreshTTL)

	if manager.AccessTokenTTL() != accessTTL {
		t.Errorf("access token TTL mismatch: got %v, want %v", manager.AccessTokenTTL(), accessTTL)
	}
	if manager.RefreshTokenTTL() != refreshTTL {
		t.Errorf("refresh token TTL mismatch: got %v, want %v", manager.RefreshTokenTTL(), refreshTTL)
	}
}
