package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

const defaultTokenTTL = 10 * time.Hour

// TokenEngine mints and verifies HS256-signed bearer tokens. Verification is
// stateless: validity is fully determined by signature, expiry and the
// subject claim, so the gateway scales horizontally without a session store.
type TokenEngine struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenEngine(secret string, ttl time.Duration) *TokenEngine {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenEngine{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate mints a token with subject and role claims, issued now and
// expiring after the configured TTL.
func (e *TokenEngine) Generate(subject, role string) (string, error) {
	now := e.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(e.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ExtractSubject parses the token, verifies its signature and returns the
// subject claim. Expiry is deliberately not enforced here; expiry is a
// verification concern, a distinct failure class from a malformed token.
func (e *TokenEngine) ExtractSubject(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := e.parser(jwt.WithoutClaimsValidation()).ParseWithClaims(token, claims, e.keyFunc)
	if err != nil || !parsed.Valid {
		return "", domain.ErrMalformedToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", domain.ErrMalformedToken
	}
	return sub, nil
}

// Verify reports whether the token carries a valid signature, has not
// expired, and binds the expected subject. Failures never escape as errors
// past this boundary.
func (e *TokenEngine) Verify(token, expectedSubject string) bool {
	claims := jwt.MapClaims{}
	parsed, err := e.parser().ParseWithClaims(token, claims, e.keyFunc)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims["sub"] == expectedSubject
}

func (e *TokenEngine) parser(opts ...jwt.ParserOption) *jwt.Parser {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return jwt.NewParser(opts...)
}

func (e *TokenEngine) keyFunc(*jwt.Token) (any, error) {
	return e.secret, nil
}
