package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignWebhookBody computes the hub-style signature header value for a body:
// "sha256=<hex hmac-sha256>".
func SignWebhookBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks an X-Hub-Signature-256 header against the
// raw request body. Comparison is constant time.
func VerifyWebhookSignature(secret, header string, body []byte) bool {
	if !strings.HasPrefix(header, "sha256=") {
		return false
	}
	want := SignWebhookBody(secret, body)
	return hmac.Equal([]byte(header), []byte(want))
}
