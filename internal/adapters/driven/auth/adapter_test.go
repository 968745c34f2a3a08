package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

func TestAdapter_MintAndValidate(t *testing.T) {
	adapter := NewAdapter("test-secret")

	token, err := adapter.MintServiceToken("dashboard", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	subject, err := adapter.ValidateServiceToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if subject != "dashboard" {
		t.Errorf("subject = %q, want dashboard", subject)
	}
}

func TestAdapter_ExpiredToken(t *testing.T) {
	adapter := NewAdapter("test-secret")

	token, err := adapter.MintServiceToken("dashboard", -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = adapter.ValidateServiceToken(token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected token expired, got: %v", err)
	}
}

func TestAdapter_WrongSecret(t *testing.T) {
	token, err := NewAdapter("secret-a").MintServiceToken("dashboard", time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	_, err = NewAdapter("secret-b").ValidateServiceToken(token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got: %v", err)
	}
}

func TestAdapter_GarbageToken(t *testing.T) {
	_, err := NewAdapter("test-secret").ValidateServiceToken("not-a-jwt")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got: %v", err)
	}
}

func TestAdapter_VerifyAPIKey(t *testing.T) {
	adapter := NewAdapter("test-secret")

	hash, err := adapter.HashAPIKey("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if err := adapter.VerifyAPIKey(hash, "correct-horse"); err != nil {
		t.Errorf("matching key rejected: %v", err)
	}
	if err := adapter.VerifyAPIKey(hash, "battery-staple"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected unauthorized for wrong key, got: %v", err)
	}
}
