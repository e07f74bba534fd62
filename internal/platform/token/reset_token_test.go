package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestResetTokenService_RoundTrip は発行したトークンの検証で同じユーザーIDが返ることを検証します。
func TestResetTokenService_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID uint
	}{
		{"small id", 1},
		{"large id", 999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := NewResetTokenService("test-secret")

			tok, err := svc.Issue(tt.userID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok == "" {
				t.Fatal("expected non-empty token")
			}

			got, ok := svc.Verify(tok, 1800*time.Second)
			if !ok {
				t.Fatal("expected token to verify")
			}
			if got != tt.userID {
				t.Errorf("expected user id %d, got %d", tt.userID, got)
			}
		})
	}
}

// TestResetTokenService_Verify_Failures は使用不能なトークンが一様に拒否されることを検証します。
func TestResetTokenService_Verify_Failures(t *testing.T) {
	t.Parallel()

	svc := NewResetTokenService("test-secret")
	valid, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tamperedSvc := NewResetTokenService("other-secret")
	tampered, err := tamperedSvc.Issue(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		maxAge time.Duration
	}{
		{"garbage string", "garbage-string", 1800 * time.Second},
		{"empty string", "", 1800 * time.Second},
		{"wrong signature", tampered, 1800 * time.Second},
		{"already expired", valid, -1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, ok := svc.Verify(tt.token, tt.maxAge); ok {
				t.Error("expected verification to fail")
			}
		})
	}
}

// TestResetTokenService_Verify_WrongPurpose は別用途のJWTが流用できないことを検証します。
func TestResetTokenService_Verify_WrongPurpose(t *testing.T) {
	t.Parallel()

	secret := "shared-secret"
	svc := NewResetTokenService(secret)

	// 同じシークレットで署名されたセッション風トークン（purposeクレームなし）
	claims := jwt.MapClaims{
		"sub": float64(42),
		"iat": time.Now().Unix(),
	}
	sessionLike, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := svc.Verify(sessionLike, 1800*time.Second); ok {
		t.Error("a token without the reset purpose must be rejected")
	}
}

// TestResetTokenService_UniqueJTI は発行ごとに異なるトークンが生成されることを検証します。
func TestResetTokenService_UniqueJTI(t *testing.T) {
	t.Parallel()

	svc := NewResetTokenService("test-secret")

	first, err := svc.Issue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Issue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("expected distinct tokens for distinct issuances")
	}
}
