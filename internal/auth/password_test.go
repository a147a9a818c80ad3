// Package auth tests cover password hashing and token generation.
package auth

import (
	"strings"
	"testing"
)

// fastParams keeps argon2 cheap in tests.
func fastParams() Params {
	p := DefaultParams()
	p.Memory = 8 * 1024
	p.Iterations = 1
	p.Parallelism = 1
	return p
}

// TestHashAndVerifyPassword validates positive and negative password checks.
func TestHashAndVerifyPassword(t *testing.T) {
	for _, pw := range []string{"secret", "correct horse battery staple", "ünïcødé-🔑"} {
		h, err := HashPassword(pw, fastParams())
		if err != nil {
			t.Fatalf("HashPassword(%q): %v", pw, err)
		}
		if strings.Contains(h, pw) {
			t.Fatalf("hash leaks plaintext: %s", h)
		}
		ok, err := VerifyPassword(pw, h)
		if err != nil {
			t.Fatalf("VerifyPassword: %v", err)
		}
		if !ok {
			t.Fatalf("expected %q to verify", pw)
		}
		for _, other := range []string{pw + "x", strings.ToUpper(pw), "", " " + pw} {
			if other == pw {
				continue
			}
			ok, err := VerifyPassword(other, h)
			if err != nil {
				t.Fatalf("VerifyPassword(%q): %v", other, err)
			}
			if ok {
				t.Fatalf("expected %q not to verify against hash of %q", other, pw)
			}
		}
	}
}

// TestHashPasswordSalts ensures two hashes of the same password differ.
func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same", fastParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same", fastParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}

// TestHashPasswordRejectsEmpty refuses to hash an empty password.
func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", fastParams()); err != ErrEmptyPassword {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

// TestVerifyPasswordMalformed returns an error for garbage hashes.
func TestVerifyPasswordMalformed(t *testing.T) {
	for _, h := range []string{
		"plain",
		"bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"argon2id$v=19$m=1024,t=1,p=1$c2FsdA$short",
	} {
		ok, err := VerifyPassword("pw", h)
		if err == nil || ok {
			t.Fatalf("expected error for %q, got ok=%v err=%v", h, ok, err)
		}
	}
}

func TestSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	b, _ := NewSessionToken()
	if a == b || !WellFormedSessionToken(a) || !WellFormedSessionToken(b) {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
	for _, bad := range []string{"", "short", a[:42], a + "A", strings.Repeat("!", 43)} {
		if WellFormedSessionToken(bad) {
			t.Fatalf("accepted malformed token %q", bad)
		}
	}
}
