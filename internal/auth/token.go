package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/backend-starter/api/internal/config"
)

// Claims carried by an access token. Subject identity only; no custom
// claims beyond the registered set plus a jti.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService mints and verifies HS256 access tokens. It is stateless:
// a token's validity is fully determined by its signature and claims.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.AccessTokenTTL,
		leeway:   cfg.ClockSkew,
	}
}

// Issue signs a new access token for the given user id. The jti makes
// every token unique even when two are minted in the same instant.
func (s *TokenService) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Verify checks signature, expiry (with clock-skew leeway), issued-at,
// issuer, audience and subject, and returns the subject user id. Every
// failure maps to the same ErrTokenInvalid so the verifier cannot be
// used as an oracle for which check failed.
func (s *TokenService) Verify(tokenStr string) (uint, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithLeeway(s.leeway),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrTokenInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return 0, ErrTokenInvalid
	}
	if claims.IssuedAt == nil || claims.Subject == "" {
		return 0, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(userID), nil
}
