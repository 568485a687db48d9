// Package fingerprint seals telemetry snapshots into signed session
// fingerprints so the server can reject tampered or forged
// submissions.
package fingerprint

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/djjrip/gg-loop-platform-sub004/internal/domain/telemetry"
)

var (
	// ErrNoSecret indicates sealing or verification was attempted
	// without a shared secret.
	ErrNoSecret = errors.New("fingerprint secret not configured")

	// ErrInvalidFingerprint indicates the token failed signature or
	// claim validation.
	ErrInvalidFingerprint = errors.New("invalid session fingerprint")
)

// tokenTTL bounds how long a sealed snapshot stays presentable.
const tokenTTL = 2 * time.Minute

// Claims is the JWT payload carrying one telemetry snapshot.
type Claims struct {
	jwt.RegisteredClaims
	Snapshot telemetry.Snapshot `json:"snapshot"`
}

// Sealer signs and verifies session fingerprints with a shared
// HMAC-SHA256 secret.
type Sealer struct {
	secret []byte
}

// NewSealer creates a sealer for the given shared secret.
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Sealer{secret: []byte(secret)}, nil
}

// Seal signs the snapshot into a compact fingerprint token.
func (s *Sealer) Seal(snap telemetry.Snapshot) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   snap.UserID,
			ID:        snap.ReplayKey(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Snapshot: snap,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session fingerprint: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and freshness and returns the
// embedded snapshot.
func (s *Sealer) Verify(token string) (telemetry.Snapshot, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return telemetry.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidFingerprint, err)
	}
	if !parsed.Valid {
		return telemetry.Snapshot{}, ErrInvalidFingerprint
	}
	return claims.Snapshot, nil
}
