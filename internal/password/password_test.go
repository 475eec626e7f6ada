package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher() *Hasher {
	return NewHasher(bcrypt.MinCost)
}

func TestHash_FixedWidth(t *testing.T) {
	t.Parallel()

	hash, err := newTestHasher().Hash("123QWE")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if len(hash) != 60 {
		t.Errorf("hash length = %d, want 60", len(hash))
	}
	if !strings.HasPrefix(hash, "$2a$04$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}
}

func TestHash_Uniqueness(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	hash1, err := h.Hash("the_same_password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := h.Hash("the_same_password")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	h := newTestHasher()
	hash, err := h.Hash("123QWE")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	ok, err := h.Compare("123QWE", hash)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !ok {
		t.Error("Correct password should match")
	}

	ok, err = h.Compare("senha incorreta", hash)
	if err != nil {
		t.Fatalf("Compare should not error on mismatch: %v", err)
	}
	if ok {
		t.Error("Wrong password should not match")
	}
}

func TestCompare_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"too short", "$2a$04$abc"},
		{"argon2 hash", "$argon2id$v=19$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJlc29tZWhhc2hoZXJl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, err := newTestHasher().Compare("password", tt.hash)
			if err == nil {
				t.Errorf("expected error for %q", tt.name)
			}
			if ok {
				t.Error("invalid hash must never match")
			}
		})
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	if got := NewHasher(0).Cost(); got != bcrypt.MinCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MinCost)
	}
	if got := NewHasher(100).Cost(); got != bcrypt.MaxCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.MaxCost)
	}
}
