package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestShortHash(t *testing.T) {
	got := ShortHash("hello")
	if got != "2cf24dba5fb0" {
		t.Errorf("ShortHash(\"hello\") = %s, want 2cf24dba5fb0", got)
	}
}

func TestHMAC_RoundTrip(t *testing.T) {
	sig := HMACHex("s3cret", "user-1:admin")
	if len(sig) != 64 {
		t.Fatalf("signature length = %d, want 64", len(sig))
	}

	tests := []struct {
		name    string
		secret  string
		message string
		sig     string
		want    bool
	}{
		{"valid", "s3cret", "user-1:admin", sig, true},
		{"wrong secret", "other", "user-1:admin", sig, false},
		{"tampered role", "s3cret", "user-1:user", sig, false},
		{"not hex", "s3cret", "user-1:admin", "zzzz", false},
		{"empty", "s3cret", "user-1:admin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyHMAC(tt.secret, tt.message, tt.sig); got != tt.want {
				t.Errorf("VerifyHMAC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	a := DedupKey("actor", "verification_reward", "st-1")
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64", len(a))
	}
	if a != DedupKey("actor", "verification_reward", "st-1") {
		t.Error("DedupKey is not deterministic")
	}
	if DedupKey("ab", "c") == DedupKey("a", "bc") {
		t.Error("DedupKey should not collide on shifted boundaries")
	}
	if DedupKey("actor", "verification_reward", "") == DedupKey("actor", "verification_reward") {
		t.Error("empty trailing part should change the key")
	}
}
