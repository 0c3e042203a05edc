package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenInvalid covers bad signatures, foreign keys or algorithms and
	// malformed payloads.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string and is sent by clients in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// TokenIssuer mints and verifies HS256 session tokens.  Tokens carry the
// user id as subject and an expiry; verification needs only the secret, so
// sessions are stateless and cannot be revoked before they expire.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// Now returns the current time.  Tests replace it to simulate a clock.
	Now func() time.Time
}

// NewTokenIssuer returns an issuer signing with secret.  A non-positive ttl
// selects DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

func (t *TokenIssuer) now() time.Time {
	if t.Now == nil {
		return time.Now().UTC()
	}
	return t.Now().UTC()
}

// Issue builds and signs a token for userID valid for the issuer's TTL.
// The JWT includes the standard claims sub, exp and iat.
func (t *TokenIssuer) Issue(userID uint64) (AccessToken, error) {
	issued := t.now()
	exp := issued.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(issued),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: claims.ExpiresAt.Time}, nil
}

// Verify checks the signature and expiry of raw and returns the user id it
// was issued for.
func (t *TokenIssuer) Verify(raw string) (uint64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}
