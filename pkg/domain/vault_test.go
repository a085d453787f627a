package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCodeStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status CodeStatus
		want   bool
	}{
		{name: "active", status: CodeStatusActive, want: true},
		{name: "used", status: CodeStatusUsed, want: true},
		{name: "expired", status: CodeStatusExpired, want: true},
		{name: "unknown", status: CodeStatus("revoked"), want: false},
		{name: "empty", status: CodeStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode_IsUsed(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		code Code
		want bool
	}{
		{
			name: "active code",
			code: Code{Status: CodeStatusActive},
			want: false,
		},
		{
			name: "used code",
			code: Code{Status: CodeStatusUsed, UsedAt: &now},
			want: true,
		},
		{
			name: "expired code",
			code: Code{Status: CodeStatusExpired},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.IsUsed(); got != tt.want {
				t.Errorf("IsUsed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_Key(t *testing.T) {
	user := &User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		CodeKey:        "secret-value",
		CodeKeyVersion: 3,
	}

	key := user.Key()
	if key.Secret != "secret-value" {
		t.Errorf("Key().Secret = %q, want %q", key.Secret, "secret-value")
	}
	if key.Version != 3 {
		t.Errorf("Key().Version = %d, want 3", key.Version)
	}
}
