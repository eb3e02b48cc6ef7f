package tokengenerator

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	huberrors "github.com/corpident/identity-hub/pkg/errors"
)

// TokenGenerator interface defines methods for token operations
type TokenGenerator interface {
	// GenerateToken generates a signed token with the given subject, expiry and extra claims
	GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error)

	// ParseToken parses and validates a token, returning its claims
	ParseToken(tokenStr string) (jwt.MapClaims, error)
}

// JwtTokenGenerator implements the TokenGenerator interface using HS256
type JwtTokenGenerator struct {
	Secret   string
	Issuer   string
	Audience string
}

// NewJwtTokenGenerator creates a new JwtTokenGenerator
func NewJwtTokenGenerator(secret, issuer, audience string) *JwtTokenGenerator {
	return &JwtTokenGenerator{
		Secret:   secret,
		Issuer:   issuer,
		Audience: audience,
	}
}

// GenerateToken creates a new signed token with the given subject and claims.
// Extra claims are laid out at the root of the payload so middleware can read
// them without unwrapping.
func (g *JwtTokenGenerator) GenerateToken(subject string, expiry time.Duration, extraClaims map[string]interface{}) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(expiry)

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": g.Issuer,
		"aud": g.Audience,
		"exp": jwt.NewNumericDate(expiresAt),
		"iat": jwt.NewNumericDate(now),
		"nbf": jwt.NewNumericDate(now.Add(-1 * time.Minute)),
		"jti": uuid.New().String(),
	}
	for k, v := range extraClaims {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(g.Secret))
	if err != nil {
		slog.Error("Failed to sign JWT claim string", "err", err)
		return "", time.Time{}, huberrors.Wrap(err, huberrors.ErrCodeInternal, "failed to sign token")
	}
	return ss, expiresAt, nil
}

// ParseToken parses and validates a token string. Failures are classified as
// expired, bad signature or malformed.
func (g *JwtTokenGenerator) ParseToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(g.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, huberrors.Wrap(err, huberrors.ErrCodeTokenExpired, "token expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, huberrors.Wrap(err, huberrors.ErrCodeTokenBadSignature, "token signature invalid")
		default:
			return nil, huberrors.Wrap(err, huberrors.ErrCodeTokenMalformed, "token malformed")
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, huberrors.New(huberrors.ErrCodeTokenMalformed, "token claims invalid")
	}
	return claims, nil
}
