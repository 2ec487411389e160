package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/colemarsh/gatehouse/internal/models"
)

const testSecret = "unit-test-secret-32-characters!!"

func newTestTokenManager(accessExpiry time.Duration) *TokenManager {
	return NewTokenManager(testSecret, accessExpiry, 7*24*time.Hour)
}

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	tokenString, err := tm.GenerateAccessToken("user-1", "a@b.com", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() = %v, want nil", err)
	}

	claims, err := tm.ValidateAccessToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateAccessToken() = %v, want nil", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "a@b.com")
	}
	if claims.Role != models.RoleUser {
		t.Errorf("Role = %q, want %q", claims.Role, models.RoleUser)
	}
	if claims.ID == "" {
		t.Error("expected non-empty jti claim")
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	tm := newTestTokenManager(-1 * time.Second)

	tokenString, err := tm.GenerateAccessToken("user-1", "a@b.com", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() = %v, want nil", err)
	}

	_, err = tm.ValidateAccessToken(tokenString)
	if err != models.ErrUnauthorized {
		t.Errorf("ValidateAccessToken(expired) = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAccessToken_Tampered(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)

	tokenString, err := tm.GenerateAccessToken("user-1", "a@b.com", models.RoleUser)
	if err != nil {
		t.Fatalf("GenerateAccessToken() = %v, want nil", err)
	}

	// Flip a character in the payload segment
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 JWT segments, got %d", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = tm.ValidateAccessToken(tampered)
	if err != models.ErrUnauthorized {
		t.Errorf("ValidateAccessToken(tampered) = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	tm := newTestTokenManager(15 * time.Minute)
	other := NewTokenManager("another-secret-32-characters!!!!", 15*time.Minute, time.Hour)

	tokenString, err := tm.GenerateAccessToken("user-1", "a@b.com", models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateAccessToken() = %v, want nil", err)
	}

	if _, err := other.ValidateAccessToken(tokenString); err != models.ErrUnauthorized {
		t.Errorf("ValidateAccessToken(wrong secret) = %v, want ErrUnauthorized", err)
	}
}

func TestValidateAccessToken_ExpiredAndTamperedAreIndistinguishable(t *testing.T) {
	// Both failure modes must collapse into the same error so callers cannot
	// use verification as an oracle.
	expiredTM := newTestTokenManager(-1 * time.Second)
	expired, _ := expiredTM.GenerateAccessToken("user-1", "a@b.com", models.RoleUser)

	tm := newTestTokenManager(15 * time.Minute)
	_, errExpired := tm.ValidateAccessToken(expired)
	_, errGarbage := tm.ValidateAccessToken("not.a.token")

	if errExpired != errGarbage {
		t.Errorf("expired error %v != malformed error %v", errExpired, errGarbage)
	}
}

func TestGenerateOpaqueToken_UniqueAndHighEntropy(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateOpaqueToken()
		if err != nil {
			t.Fatalf("GenerateOpaqueToken() = %v, want nil", err)
		}
		if len(token) < 40 { // 32 bytes base64-encoded
			t.Fatalf("token too short: %d chars", len(token))
		}
		if strings.Count(token, ".") == 2 {
			t.Fatal("opaque token must not look like a structured token")
		}
		if seen[token] {
			t.Fatal("duplicate opaque token generated")
		}
		seen[token] = true
	}
}

func TestHashToken_DeterministicAndOneWay(t *testing.T) {
	token, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("GenerateOpaqueToken() = %v, want nil", err)
	}

	h1 := HashToken(token)
	h2 := HashToken(token)
	if h1 != h2 {
		t.Error("HashToken is not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if h1 == token {
		t.Error("hash must differ from the plain token")
	}
}
