package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidToken     = errors.New("invalid token")
)

// Identity is the carrier of the claims embedded into an access token
type Identity struct {
	ID       uuid.UUID
	Email    string
	Username string
	FullName string
}

// AccessClaims are the claims carried by an access token. The subject is the
// user id; the profile fields save a lookup for consumers that only render
type AccessClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the token subject back into a uuid
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// TokenCodec creates and verifies the two token kinds. Access tokens are
// short-lived and signed with the access secret; refresh tokens are long-lived,
// signed with a distinct secret and carry only the user id. Every issued token
// gets a unique jti, so two issues for the same user never collide even within
// the same second. The secrets are captured once at construction and never mutated
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (tc *TokenCodec) AccessTTL() time.Duration  { return tc.accessTTL }
func (tc *TokenCodec) RefreshTTL() time.Duration { return tc.refreshTTL }

// IssueAccess encodes the identity into a signed, short-lived access token
func (tc *TokenCodec) IssueAccess(id Identity) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Email:    id.Email,
		Username: id.Username,
		FullName: id.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tc.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefresh encodes the user id into a signed, long-lived refresh token
func (tc *TokenCodec) IssueRefresh(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tc.refreshTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccess checks signature and expiry against the access secret.
// A refresh token presented here fails the signature check
func (tc *TokenCodec) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, tc.keyfunc(tc.accessSecret))
	if err != nil {
		return nil, normalizeJWTError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// returns the embedded user id
func (tc *TokenCodec) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, tc.keyfunc(tc.refreshSecret))
	if err != nil {
		return uuid.Nil, normalizeJWTError(err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// keyfunc pins the algorithm to HS256 before handing out the secret
func (tc *TokenCodec) keyfunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok || token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// normalizeJWTError maps golang-jwt errors onto this package's sentinel errors,
// so callers never depend on the library's error values
func normalizeJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	default:
		return ErrInvalidToken
	}
}
