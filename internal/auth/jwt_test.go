package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 15*time.Minute)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "u-1", Name: "analyst"})
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}

	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.UserID != "u-1" || claims.Name != "analyst" {
		t.Errorf("claims mismatch: got %+v", claims)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", 15*time.Minute)
	other := NewJWTManager("secret-b", 15*time.Minute)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret", -1*time.Minute)

	token, err := manager.GenerateAccessToken(UserClaims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("GenerateAccessToken returned error: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 15*time.Minute)

	if _, err := manager.ValidateAccessToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for garbage input, got %v", err)
	}
}
