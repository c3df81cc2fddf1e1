package crypto

import (
	"errors"
	"fmt"
	"time"
	"wordrush/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped on every session token and required when verifying.
const Issuer = "wordrush"

// Session tokens carry the user id as the subject.
type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
	parser    *jwt.Parser
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
		parser: jwt.NewParser(
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (m *JWTManager) Generate(id string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}
	return signed, nil
}

// Verify returns the subject of a valid token.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := m.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidSigningAlg):
		return "", domain.ErrInvalidSigningAlg
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", domain.ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", domain.ErrInvalidTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "", domain.ErrCorruptedToken
	default:
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
	}

	if claims.Subject == "" {
		return "", domain.ErrCorruptedToken
	}
	return claims.Subject, nil
}
