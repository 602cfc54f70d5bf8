package security

import (
	"strings"
	"testing"
)

func TestPasswordHashers(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: 4},
		"argon2id": Argon2Hasher{Params: Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			encoded, err := h.Hash("Secret123!")
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			if strings.Contains(encoded, "Secret123!") {
				t.Fatalf("encoded credential contains the plaintext")
			}
			if !h.Verify("Secret123!", encoded) {
				t.Fatalf("expected verify to accept the right secret")
			}
			if h.Verify("Secret123?", encoded) {
				t.Fatalf("expected verify to reject a wrong secret")
			}
			if h.Verify("Secret123!", "garbage") {
				t.Fatalf("expected verify to reject a malformed credential")
			}
		})
	}
}

func TestNewPasswordHasher(t *testing.T) {
	for _, name := range []string{"", "bcrypt", "argon2id", "ARGON2"} {
		if _, err := NewPasswordHasher(name); err != nil {
			t.Fatalf("NewPasswordHasher(%q): %v", name, err)
		}
	}
	if _, err := NewPasswordHasher("md5"); err == nil {
		t.Fatalf("expected error for unknown hasher")
	}
}

func TestMigratingHasherAcceptsBothAlgorithms(t *testing.T) {
	bcryptHasher := BcryptHasher{Cost: 4}
	argonHasher := Argon2Hasher{Params: Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}}

	fromBcrypt, err := bcryptHasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	fromArgon, err := argonHasher.Hash("Secret123!")
	if err != nil {
		t.Fatalf("argon2 hash: %v", err)
	}

	for name, primary := range map[string]PasswordHasher{"bcrypt": bcryptHasher, "argon2id": argonHasher} {
		h := MigratingHasher{Primary: primary}
		for _, encoded := range []string{fromBcrypt, fromArgon} {
			if !h.Verify("Secret123!", encoded) {
				t.Fatalf("%s: rejected existing credential %.10s...", name, encoded)
			}
			if h.Verify("wrong", encoded) {
				t.Fatalf("%s: accepted a wrong secret", name)
			}
		}
		if h.Verify("Secret123!", "plain") {
			t.Fatalf("%s: accepted an unknown credential format", name)
		}
	}

	encoded, err := MigratingHasher{Primary: argonHasher}.Hash("Secret123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("new credentials should use the primary algorithm, got %.10s", encoded)
	}
}

func TestArgon2RejectsDegenerateParams(t *testing.T) {
	h := Argon2Hasher{}
	for _, params := range []string{"m=1024,t=1,p=0", "m=1024,t=0,p=1", "m=0,t=1,p=1"} {
		encoded := "$argon2id$v=19$" + params + "$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"
		if h.Verify("Secret123!", encoded) {
			t.Fatalf("%s: expected rejection", params)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	plain, hash, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(plain) < 40 {
		t.Fatalf("token too short: %q", plain)
	}
	if hash != HashToken(plain) {
		t.Fatalf("hash does not match plaintext")
	}
	other, _, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if other == plain {
		t.Fatalf("expected distinct tokens")
	}
}
