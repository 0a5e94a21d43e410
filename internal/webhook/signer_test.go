package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecret(t *testing.T) {
	s1, err := NewSecret()
	require.NoError(t, err)
	s2, err := NewSecret()
	require.NoError(t, err)

	assert.Len(t, s1, 64) // 32 random bytes, hex-encoded
	assert.NotEqual(t, s1, s2)
}

func TestSignAndVerify(t *testing.T) {
	secret := "abc123"
	payload := []byte(`{"event":"job.completed"}`)

	sig := Sign(secret, 1700000000000, payload)
	assert.True(t, Verify(secret, 1700000000000, payload, sig))
	assert.False(t, Verify(secret, 1700000000001, payload, sig))
	assert.False(t, Verify("wrong-secret", 1700000000000, payload, sig))
	assert.False(t, Verify(secret, 1700000000000, []byte(`{"event":"tampered"}`), sig))
}
