package vault

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/codevault/codevault/pkg/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	key := domain.CodeKey{Secret: "test-signing-key", Version: 1}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "digits only", raw: "12345678"},
		{name: "alphanumeric", raw: "AB12CD34"},
		{name: "with dash", raw: "1234-5678"},
		{name: "long code", raw: "123456789012345678901234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := EncodeCode(tt.raw, key)
			if err != nil {
				t.Fatalf("EncodeCode() error = %v", err)
			}
			if token == tt.raw {
				t.Error("token should not equal the raw code")
			}

			got, reason, err := DecodeCode(token, key)
			if err != nil {
				t.Fatalf("DecodeCode() error = %v", err)
			}
			if reason != "" {
				t.Errorf("DecodeCode() reason = %q, want empty", reason)
			}
			if got != tt.raw {
				t.Errorf("DecodeCode() = %q, want %q", got, tt.raw)
			}
		})
	}
}

func TestEncodeCode_EmptyCode(t *testing.T) {
	key := domain.CodeKey{Secret: "test-signing-key", Version: 1}

	if _, err := EncodeCode("", key); !errors.Is(err, domain.ErrEmptyCode) {
		t.Errorf("EncodeCode(\"\") error = %v, want ErrEmptyCode", err)
	}
}

func TestDecodeCode_RotatedKey(t *testing.T) {
	oldKey := domain.CodeKey{Secret: "old-signing-key", Version: 1}
	newKey := domain.CodeKey{Secret: "new-signing-key", Version: 2}

	token, err := EncodeCode("12345678", oldKey)
	if err != nil {
		t.Fatalf("EncodeCode() error = %v", err)
	}

	_, reason, err := DecodeCode(token, newKey)
	if err == nil {
		t.Fatal("DecodeCode() with rotated key should fail")
	}
	if reason != domain.DecodeFailRotated {
		t.Errorf("DecodeCode() reason = %q, want %q", reason, domain.DecodeFailRotated)
	}
}

func TestDecodeCode_WrongSecretSameVersion(t *testing.T) {
	// Same version but a different secret is not attributable to rotation.
	keyA := domain.CodeKey{Secret: "key-a", Version: 3}
	keyB := domain.CodeKey{Secret: "key-b", Version: 3}

	token, err := EncodeCode("12345678", keyA)
	if err != nil {
		t.Fatalf("EncodeCode() error = %v", err)
	}

	_, reason, err := DecodeCode(token, keyB)
	if err == nil {
		t.Fatal("DecodeCode() with wrong secret should fail")
	}
	if reason != domain.DecodeFailMalformed {
		t.Errorf("DecodeCode() reason = %q, want %q", reason, domain.DecodeFailMalformed)
	}
}

func TestDecodeCode_Expired(t *testing.T) {
	key := domain.CodeKey{Secret: "test-signing-key", Version: 1}

	claims := codeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
		},
		Code:       "12345678",
		KeyVersion: key.Version,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key.Secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	_, reason, err := DecodeCode(token, key)
	if err == nil {
		t.Fatal("DecodeCode() on expired token should fail")
	}
	if reason != domain.DecodeFailExpired {
		t.Errorf("DecodeCode() reason = %q, want %q", reason, domain.DecodeFailExpired)
	}
}

func TestDecodeCode_Garbage(t *testing.T) {
	key := domain.CodeKey{Secret: "test-signing-key", Version: 1}

	_, reason, err := DecodeCode("not-a-token", key)
	if err == nil {
		t.Fatal("DecodeCode() on garbage should fail")
	}
	if reason != domain.DecodeFailMalformed {
		t.Errorf("DecodeCode() reason = %q, want %q", reason, domain.DecodeFailMalformed)
	}
}

func TestDecodeCodes_PassThrough(t *testing.T) {
	oldKey := domain.CodeKey{Secret: "old-signing-key", Version: 1}
	newKey := domain.CodeKey{Secret: "new-signing-key", Version: 2}

	goodToken, err := EncodeCode("11112222", newKey)
	if err != nil {
		t.Fatalf("EncodeCode() error = %v", err)
	}
	staleToken, err := EncodeCode("33334444", oldKey)
	if err != nil {
		t.Fatalf("EncodeCode() error = %v", err)
	}

	codes := []domain.Code{
		{ID: uuid.New(), Slot: 1, Token: goodToken, Status: domain.CodeStatusActive},
		{ID: uuid.New(), Slot: 2, Token: staleToken, Status: domain.CodeStatusActive},
		{ID: uuid.New(), Slot: 3, Token: goodToken, Status: domain.CodeStatusActive},
	}

	decoded := DecodeCodes(nil, codes, newKey)

	if len(decoded) != len(codes) {
		t.Fatalf("DecodeCodes() returned %d entries, want %d", len(decoded), len(codes))
	}

	// Order and 1:1 correspondence preserved.
	for i := range codes {
		if decoded[i].ID != codes[i].ID {
			t.Errorf("entry %d: ID = %v, want %v", i, decoded[i].ID, codes[i].ID)
		}
		if decoded[i].Slot != codes[i].Slot {
			t.Errorf("entry %d: Slot = %d, want %d", i, decoded[i].Slot, codes[i].Slot)
		}
	}

	if !decoded[0].Decoded || decoded[0].Value != "11112222" {
		t.Errorf("entry 0 = %+v, want decoded value 11112222", decoded[0])
	}

	// The stale entry passes through with its token unchanged, tagged with
	// the failure reason. It must not equal the original raw code.
	if decoded[1].Decoded {
		t.Error("entry 1 should not be decoded")
	}
	if decoded[1].Value != staleToken {
		t.Errorf("entry 1 Value = %q, want the stored token unchanged", decoded[1].Value)
	}
	if decoded[1].Value == "33334444" {
		t.Error("entry 1 must not expose the raw code")
	}
	if decoded[1].FailReason != domain.DecodeFailRotated {
		t.Errorf("entry 1 FailReason = %q, want %q", decoded[1].FailReason, domain.DecodeFailRotated)
	}

	if !decoded[2].Decoded || decoded[2].Value != "11112222" {
		t.Errorf("entry 2 = %+v, want decoded value 11112222", decoded[2])
	}
}

func TestDecodeCodes_Empty(t *testing.T) {
	key := domain.CodeKey{Secret: "test-signing-key", Version: 1}

	decoded := DecodeCodes(nil, nil, key)
	if len(decoded) != 0 {
		t.Errorf("DecodeCodes(nil) returned %d entries, want 0", len(decoded))
	}
}
