package tokengenerator

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token class constants
const (
	ACCESS_TOKEN_NAME = "access_token"
	TEMP_TOKEN_NAME   = "temp_token"
)

// Token type claim values. A temp token carries identity only; a scoped token
// carries tenant context and resolved permissions.
const (
	TokenTypeClaim  = "token_type"
	TokenTypeTemp   = "temp"
	TokenTypeScoped = "scoped"
)

// Default token expiry durations. The scoped token covers a working session;
// the temp token only needs to survive the company-selection screen.
const (
	DefaultAccessTokenExpiry = 8 * time.Hour
	DefaultTempTokenExpiry   = 10 * time.Minute
)

// JwtService issues and verifies the hub's two token classes with a shared
// signing mechanism. Only the claim payload and lifetime differ per class.
type JwtService struct {
	TokenGenerators       map[string]TokenGenerator
	DefaultTokenGenerator TokenGenerator

	AccessTokenExpiry time.Duration
	TempTokenExpiry   time.Duration
}

// JwtServiceOption is a function that configures a JwtService
type JwtServiceOption func(*JwtService)

// WithTokenGenerator sets the token generator for a specific token name
func WithTokenGenerator(tokenName string, tokenGenerator TokenGenerator) JwtServiceOption {
	return func(js *JwtService) {
		if js.TokenGenerators == nil {
			js.TokenGenerators = make(map[string]TokenGenerator)
		}
		js.TokenGenerators[tokenName] = tokenGenerator
	}
}

// WithDefaultTokenGenerator sets the default token generator
func WithDefaultTokenGenerator(tokenGenerator TokenGenerator) JwtServiceOption {
	return func(js *JwtService) {
		js.DefaultTokenGenerator = tokenGenerator
	}
}

// WithAccessTokenExpiry sets the scoped token expiry duration
func WithAccessTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(js *JwtService) {
		js.AccessTokenExpiry = expiry
	}
}

// WithTempTokenExpiry sets the temporary token expiry duration
func WithTempTokenExpiry(expiry time.Duration) JwtServiceOption {
	return func(js *JwtService) {
		js.TempTokenExpiry = expiry
	}
}

// NewJwtService creates a new JwtService
func NewJwtService(options ...JwtServiceOption) *JwtService {
	js := &JwtService{
		TokenGenerators:   make(map[string]TokenGenerator),
		AccessTokenExpiry: DefaultAccessTokenExpiry,
		TempTokenExpiry:   DefaultTempTokenExpiry,
	}

	for _, option := range options {
		option(js)
	}

	return js
}

// GenerateToken generates a token of the given class. The token_type claim is
// stamped from the class so verification can reject cross-class use.
func (js *JwtService) GenerateToken(tokenName, subject string, extraClaims map[string]interface{}) (string, time.Time, error) {
	var expiry time.Duration
	var tokenType string

	switch tokenName {
	case TEMP_TOKEN_NAME:
		expiry = js.TempTokenExpiry
		tokenType = TokenTypeTemp
	default:
		expiry = js.AccessTokenExpiry
		tokenType = TokenTypeScoped
	}

	claims := make(map[string]interface{}, len(extraClaims)+1)
	for k, v := range extraClaims {
		claims[k] = v
	}
	claims[TokenTypeClaim] = tokenType

	return js.generator(tokenName).GenerateToken(subject, expiry, claims)
}

// ParseToken parses and validates a token of the given class
func (js *JwtService) ParseToken(tokenName, tokenStr string) (jwt.MapClaims, error) {
	return js.generator(tokenName).ParseToken(tokenStr)
}

func (js *JwtService) generator(tokenName string) TokenGenerator {
	if tg, ok := js.TokenGenerators[tokenName]; ok {
		return tg
	}
	return js.DefaultTokenGenerator
}
