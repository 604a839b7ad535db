package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssueVerify(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, err := tm.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, err := tm.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}
}

func TestTokenVerifyRejections(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	token, _ := tm.Issue(42)

	cases := []struct {
		name string
		fn   func() (uint, error)
	}{
		{"garbage", func() (uint, error) { return tm.Verify("not.a.jwt") }},
		{"empty", func() (uint, error) { return tm.Verify("") }},
		{"wrong secret", func() (uint, error) {
			other := NewTokenManager("different", time.Hour)
			return other.Verify(token)
		}},
		{"expired", func() (uint, error) {
			short := NewTokenManager("secret", -time.Minute)
			expired, err := short.Issue(42)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			return short.Verify(expired)
		}},
		{"zero user id", func() (uint, error) {
			zero, err := tm.Issue(0)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			return tm.Verify(zero)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.fn(); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("len = %d, want 8", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("character %q outside alphabet", r)
		}
	}

	// Non-positive lengths fall back to the default.
	code, err = GenerateCode(0)
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("default len = %d, want 6", len(code))
	}
}
