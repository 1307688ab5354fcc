package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secure_password_456")
	if err != nil {
		t.Fatal("hash:", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash missing algorithm prefix: %q", hash)
	}

	ok, err := VerifyHash("secure_password_456", hash)
	if err != nil {
		t.Fatal("verify:", err)
	}
	if !ok {
		t.Error("correct password did not verify")
	}

	ok, err = VerifyHash("wrong_password", hash)
	if err != nil {
		t.Fatal("verify wrong:", err)
	}
	if ok {
		t.Error("wrong password verified")
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	t.Parallel()

	h1, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical (salt not random)")
	}
}

func TestVerifyHashRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"plain text", "hunter2"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$ZGlnZXN0"},
		{"missing fields", "$argon2id$v=19$m=65536"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$ZGlnZXN0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, err := VerifyHash("password", tt.encoded)
			if err == nil {
				t.Error("expected error for malformed hash")
			}
			if ok {
				t.Error("malformed hash verified")
			}
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	t.Parallel()

	p1, err := GeneratePassword(GeneratedPasswordLength)
	if err != nil {
		t.Fatal(err)
	}
	if len(p1) != GeneratedPasswordLength {
		t.Errorf("length = %d, want %d", len(p1), GeneratedPasswordLength)
	}
	for _, r := range p1 {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Errorf("character %q outside alphabet", r)
		}
	}

	p2, err := GeneratePassword(GeneratedPasswordLength)
	if err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Error("two generated passwords are identical")
	}
}
