package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUserPatch_IsEmpty(t *testing.T) {
	name := "someone"

	tests := []struct {
		name  string
		patch UserPatch
		want  bool
	}{
		{"no fields", UserPatch{}, true},
		{"username only", UserPatch{Username: &name}, false},
		{"email only", UserPatch{Email: &name}, false},
		{"password only", UserPatch{Password: &name}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patch.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_JSONFields(t *testing.T) {
	u := User{
		ID:                 "5f8c6a52-4b6e-4d0e-9a8c-1f2e3d4c5b6a",
		Username:           "LucasAndrade",
		UsernameNormalized: "lucasandrade",
		Email:              "Meu.Email+x@Mail.com",
		EmailNormalized:    "meuemail@mail.com",
		Password:           "$2a$04$hash",
		CreatedAt:          time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt:          time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := []string{"id", "username", "username_normalized", "email", "email_normalized", "password", "created_at", "updated_at"}
	if len(body) != len(keys) {
		t.Errorf("expected %d keys, got %d: %v", len(keys), len(body), body)
	}
	for _, k := range keys {
		if _, ok := body[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
}
