package sheets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader carries the HMAC of the request body (POST) or the
// encoded query string (GET).
const SignatureHeader = "X-SafeChecks-Signature"

// Sign creates an HMAC-SHA256 signature for the payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the signature of payload under secret.
func Verify(payload []byte, secret, sig string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(sig))
}
