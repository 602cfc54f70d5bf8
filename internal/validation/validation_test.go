package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		is       error
	}{
		{name: "strong", password: "Secret123!"},
		{name: "long passphrase", password: "correct horse battery staple"},
		{name: "too short", password: "Ab1!", wantErr: true, is: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("aB3$", 19), wantErr: true, is: ErrPasswordTooLong},
		{name: "common pattern", password: "MyPassword!9", wantErr: true, is: ErrPasswordCommon},
		{name: "low entropy", password: "aaaaaaaaaa", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %q", tt.password)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.password, err)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@example.org"}
	for _, email := range valid {
		if err := ValidateEmail(email); err != nil {
			t.Fatalf("ValidateEmail(%q): %v", email, err)
		}
	}

	invalid := []string{"", "not-an-email", "Bob <bob@example.com>", strings.Repeat("a", 250) + "@x.com"}
	for _, email := range invalid {
		if err := ValidateEmail(email); err == nil {
			t.Fatalf("expected ValidateEmail(%q) to fail", email)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}
