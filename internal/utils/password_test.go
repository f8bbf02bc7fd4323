package utils

import (
	"strings"
	"testing"
)

func TestHashPassword_Bcrypt(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Errorf("hash %q is not a default-cost bcrypt hash", hash)
	}
	if strings.Contains(hash, "admin123") {
		t.Error("hash leaks the plain password")
	}

	again, _ := HashPassword("admin123")
	if again == hash {
		t.Error("two hashes of the same password share a salt")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Pl@nning-2026")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"matching password", "Pl@nning-2026", hash, true},
		{"case differs", "pl@nning-2026", hash, false},
		{"trailing space", "Pl@nning-2026 ", hash, false},
		{"empty password", "", hash, false},
		{"stored hash empty", "Pl@nning-2026", "", false},
		{"stored value is plain text", "Pl@nning-2026", "Pl@nning-2026", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	// bcrypt refuses input past 72 bytes rather than truncating it
	if _, err := HashPassword(strings.Repeat("p", 73)); err == nil {
		t.Error("HashPassword() accepted a 73-byte password")
	}
}
