// Package token issues and verifies signed password-reset tokens.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// purposeReset marks a token as usable only for password resets, so a
// session JWT signed with the same algorithm can never be replayed here.
const purposeReset = "password_reset"

// ResetTokenService produces and verifies opaque signed tokens binding a
// user identity to an issuance time. Tokens are independent of any session
// state; the signing secret is injected once at construction and is not
// rotated at runtime.
type ResetTokenService struct {
	secret []byte
}

// NewResetTokenService creates a ResetTokenService with the given
// process-wide signing secret.
func NewResetTokenService(secret string) *ResetTokenService {
	return &ResetTokenService{secret: []byte(secret)}
}

// Issue creates a signed token embedding the user id and the issuance time.
func (s *ResetTokenService) Issue(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"iat":     time.Now().UTC().Unix(),
		"jti":     uuid.NewString(),
		"purpose": purposeReset,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign reset token: %w", err)
	}
	return signed, nil
}

// Verify decodes the token, checks its signature and age, and returns the
// embedded user id. It returns ok=false uniformly for malformed, tampered,
// wrong-signature, wrong-purpose and expired tokens; callers cannot tell
// the failure modes apart.
func (s *ResetTokenService) Verify(tokenStr string, maxAge time.Duration) (uint, bool) {
	t, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return 0, false
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposeReset {
		return 0, false
	}

	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return 0, false
	}
	if time.Now().UTC().After(issuedAt.Time.Add(maxAge)) {
		return 0, false
	}

	sub, ok := claims["sub"].(float64) // JWT numbers are decoded as float64
	if !ok || sub < 1 {
		return 0, false
	}
	return uint(sub), true
}
