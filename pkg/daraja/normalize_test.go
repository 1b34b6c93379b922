package daraja

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0712345678", "254712345678", true},
		{"0112345678", "254112345678", true},
		{"+254712345678", "254712345678", true},
		{"254712345678", "254712345678", true},
		{"254110000000", "254110000000", true},
		{"0812345678", "", false},  // not a 7xx/1xx prefix
		{"25471234567", "", false}, // too short
		{"2547123456789", "", false},
		{"712345678", "", false},
		{"", "", false},
		{"notaphone", "", false},
	}
	for _, tc := range cases {
		got, err := NormalizePhone(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("NormalizePhone(%q): unexpected error %v", tc.in, err)
				continue
			}
			if got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		} else {
			if err == nil {
				t.Errorf("NormalizePhone(%q) = %q, want error", tc.in, got)
				continue
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("NormalizePhone(%q): error %T, want *ValidationError", tc.in, err)
			}
		}
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	once, err := NormalizePhone("0708374149")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := NormalizePhone(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if once != twice {
		t.Errorf("normalization not idempotent: %q != %q", once, twice)
	}
}

func TestGenerateTimestamp(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 5, 3, 0, time.UTC)
	if got := generateTimestamp(at); got != "20240601090503" {
		t.Errorf("generateTimestamp = %q, want 20240601090503", got)
	}
	if got := generateTimestamp(at); len(got) != 14 {
		t.Errorf("timestamp length = %d, want 14", len(got))
	}
}

func TestGeneratePassword(t *testing.T) {
	got := generatePassword("174379", "passkey", "20240601090503")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20240601090503"))
	if got != want {
		t.Errorf("generatePassword = %q, want %q", got, want)
	}
	// Same inputs always produce the same password.
	if again := generatePassword("174379", "passkey", "20240601090503"); again != got {
		t.Errorf("password not deterministic: %q != %q", again, got)
	}
}

func TestBasicAuth(t *testing.T) {
	got := basicAuth("key", "secret")
	decoded, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("not valid base64: %v", err)
	}
	if string(decoded) != "key:secret" {
		t.Errorf("decoded = %q, want key:secret", decoded)
	}
}
