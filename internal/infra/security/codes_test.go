package security

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestRandomCodeGenerator_OTPRange(t *testing.T) {
	gen := NewRandomCodeGenerator()

	for i := 0; i < 500; i++ {
		code, err := gen.NewOTP()
		if err != nil {
			t.Fatalf("NewOTP returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil || n < 100000 || n > 999999 {
			t.Fatalf("code %q outside [100000, 999999]", code)
		}
	}
}

func TestRandomCodeGenerator_ZeroSourceFloors(t *testing.T) {
	gen := &RandomCodeGenerator{reader: bytes.NewReader(make([]byte, 64))}

	code, err := gen.NewOTP()
	if err != nil {
		t.Fatalf("NewOTP returned error: %v", err)
	}
	if code != "100000" {
		t.Fatalf("expected floor code 100000, got %s", code)
	}

	password, err := gen.TemporaryPassword()
	if err != nil {
		t.Fatalf("TemporaryPassword returned error: %v", err)
	}
	if password != "00000000" {
		t.Fatalf("expected zero password, got %s", password)
	}
}

func TestRandomCodeGenerator_TemporaryPasswordAlphabet(t *testing.T) {
	gen := NewRandomCodeGenerator()

	for i := 0; i < 100; i++ {
		password, err := gen.TemporaryPassword()
		if err != nil {
			t.Fatalf("TemporaryPassword returned error: %v", err)
		}
		if len(password) != 8 {
			t.Fatalf("expected 8 characters, got %q", password)
		}
		for _, r := range password {
			if !strings.ContainsRune(temporaryAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, password)
			}
		}
	}
}

func TestRandomCodeGenerator_ExhaustedSource(t *testing.T) {
	gen := &RandomCodeGenerator{reader: bytes.NewReader(nil)}

	if _, err := gen.NewOTP(); err == nil {
		t.Fatal("expected error from exhausted source")
	}
}
