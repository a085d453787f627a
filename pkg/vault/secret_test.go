package vault

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/codevault/codevault/pkg/domain"
)

func TestDeriveKey(t *testing.T) {
	key, err := deriveKey("test@example.com")
	if err != nil {
		t.Fatalf("deriveKey() error = %v", err)
	}

	raw, err := hex.DecodeString(key)
	if err != nil {
		t.Fatalf("deriveKey() returned non-hex output: %v", err)
	}
	if len(raw) != keyLen {
		t.Errorf("key length = %d bytes, want %d", len(raw), keyLen)
	}
}

func TestNewUser(t *testing.T) {
	name := "Test User"
	user, err := NewUser("  test@example.com  ", &name)
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("NewUser() should assign an ID")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want trimmed %q", user.Email, "test@example.com")
	}
	if user.CodeKeyVersion != 1 {
		t.Errorf("CodeKeyVersion = %d, want 1", user.CodeKeyVersion)
	}
	if raw, err := hex.DecodeString(user.CodeKey); err != nil || len(raw) != keyLen {
		t.Errorf("CodeKey = %q, want %d hex-encoded bytes", user.CodeKey, keyLen)
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Errorf("timestamps = %v / %v, want both set to the same instant", user.CreatedAt, user.UpdatedAt)
	}
	if user.DeletedAt != nil {
		t.Errorf("DeletedAt = %v, want nil", user.DeletedAt)
	}

	// The initial key must sign tokens that round-trip.
	token, err := EncodeCode("12345678", user.Key())
	if err != nil {
		t.Fatalf("EncodeCode() error = %v", err)
	}
	got, _, err := DecodeCode(token, user.Key())
	if err != nil {
		t.Fatalf("DecodeCode() error = %v", err)
	}
	if got != "12345678" {
		t.Errorf("DecodeCode() = %q, want %q", got, "12345678")
	}
}

func TestNewUser_EmptyEmail(t *testing.T) {
	for _, email := range []string{"", "   "} {
		if _, err := NewUser(email, nil); !errors.Is(err, domain.ErrEmptyEmail) {
			t.Errorf("NewUser(%q) error = %v, want ErrEmptyEmail", email, err)
		}
	}
}

func TestDeriveKey_Uniqueness(t *testing.T) {
	// Same identity attribute must still yield a fresh key every time.
	keys := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := deriveKey("test@example.com")
		if err != nil {
			t.Fatalf("deriveKey() error = %v", err)
		}
		if keys[key] {
			t.Fatalf("duplicate key derived: %s", key)
		}
		keys[key] = true
	}
}
