package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// Claims captures validated session token claims.
type Claims struct {
	Subject   string
	Issuer    string
	JWTID     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Signer issues and verifies HS256 session tokens with one symmetric key.
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a signer from cfg. now defaults to time.Now.
func NewSigner(cfg Config, now func() time.Time) (*Signer, error) {
	if len(cfg.SigningSecret) < minSigningSecret {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSigningSecret)
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{
		key:    []byte(cfg.SigningSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.tokenTTL(),
		now:    now,
	}, nil
}

// Issue signs a token for subject and returns it with its expiry.
func (s *Signer) Issue(subject string) (string, time.Time, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	jti, err := uuid.NewV7()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating token id: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expires, nil
}

// Verify checks the signature, algorithm, issuer and expiry of token.
func (s *Signer) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, types.NewError(types.CodeUnauthorized, "session token is required")
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	claims := Claims{
		Subject: parsed.Subject,
		Issuer:  parsed.Issuer,
		JWTID:   parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time.UTC()
	}
	return claims, nil
}

// mapJWTError translates jwt library errors to unauthorized errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return types.WrapError(types.CodeUnauthorized, "session token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return types.WrapError(types.CodeUnauthorized, "session token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return types.WrapError(types.CodeUnauthorized, "session token alg is invalid", err)
	default:
		return types.WrapError(types.CodeUnauthorized, "session token is invalid", err)
	}
}
