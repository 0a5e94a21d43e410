// Package webhook implements C6: matching domain events against active
// subscriptions, signing and delivering the resulting payload, and the
// consecutive-failure circuit breaker that suspends a misbehaving webhook.
package webhook

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// NewSecret generates the 32 random bytes, hex-encoded, a webhook's secret
// is made of. It is revealed to the caller only on creation, the same way
// the teacher's auth package treats its CSRF tokens and session secrets.
func NewSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("webhook: generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Sign computes hex(hmac_sha256(secret, timestampMillis + "." + payloadJSON)),
// the exact scheme §4.C6 specifies and the one the webhook delivery request
// carries in X-Webhook-Signature.
func Sign(secret string, timestampMillis int64, payloadJSON []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestampMillis, 10)))
	mac.Write([]byte("."))
	mac.Write(payloadJSON)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is the expected signature for secret,
// timestampMillis and payloadJSON, in constant time.
func Verify(secret string, timestampMillis int64, payloadJSON []byte, sig string) bool {
	expected := Sign(secret, timestampMillis, payloadJSON)
	return hmac.Equal([]byte(expected), []byte(sig))
}
