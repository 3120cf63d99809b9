package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHash returns a 12-character, irreversible prefix of SHA256(input).
// Used to correlate IPs and actor IDs in logs without storing them.
func ShortHash(input string) string {
	return SHA256Hex(input)[:12]
}

// HMACHex returns the hex-encoded HMAC-SHA256 of message under secret.
func HMACHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC reports whether signature is the hex HMAC-SHA256 of message.
// The comparison is constant-time.
func VerifyHMAC(secret, message, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hmac.Equal(got, mac.Sum(nil))
}

// DedupKey derives the fixed-width key used to serialize and deduplicate
// trust events. Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func DedupKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
		b.WriteByte('|')
	}
	return SHA256Hex(b.String())
}
