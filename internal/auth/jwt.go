package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"caller-agent/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and verifies access tokens for the owner console.
//
// This is a single-owner service: there is no user table and no roles.
// The configured owner API key is exchanged for a short-lived HS256 token;
// everything under /v1 (except the exchange itself) requires that token.
type Manager struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
	ownerKey  []byte
}

const subjectOwner = "owner"

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.OwnerAPIKey == "" {
		return nil, errors.New("OWNER_API_KEY is required")
	}

	return &Manager{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.JWTIssuer,
		audience:  cfg.JWTAudience,
		accessTTL: cfg.AccessTokenTTL,
		ownerKey:  []byte(cfg.OwnerAPIKey),
	}, nil
}

type Claims struct {
	jwt.RegisteredClaims
}

// ExchangeAPIKey validates the owner API key and issues an access token.
func (m *Manager) ExchangeAPIKey(now time.Time, apiKey string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), m.ownerKey) != 1 {
		return "", ErrInvalidCredentials
	}
	return m.issue(now)
}

func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	parser := jwt.NewParser(opts...)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.Subject != subjectOwner {
		return Claims{}, errors.New("unexpected subject")
	}
	return claims, nil
}

func (m *Manager) issue(now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectOwner,
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
