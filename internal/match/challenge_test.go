package match

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func hashOf(nonce, password string) string {
	sum := sha256.Sum256([]byte(nonce + password))
	return hex.EncodeToString(sum[:])
}

func TestChallengeStore_ValidateSucceedsWithCorrectHash(t *testing.T) {
	c := NewChallengeStore()
	nonce := c.Create(42)
	assert.True(t, c.Validate(42, hashOf(nonce, "secret"), "secret"))
}

func TestChallengeStore_ValidateFailsWithWrongPassword(t *testing.T) {
	c := NewChallengeStore()
	nonce := c.Create(42)
	assert.False(t, c.Validate(42, hashOf(nonce, "wrong"), "secret"))
}

func TestChallengeStore_SingleUse(t *testing.T) {
	c := NewChallengeStore()
	nonce := c.Create(42)
	hash := hashOf(nonce, "secret")

	assert.True(t, c.Validate(42, hash, "secret"))
	assert.False(t, c.Validate(42, hash, "secret"), "a challenge can only be validated once")
}

func TestChallengeStore_UnknownPlayerFails(t *testing.T) {
	c := NewChallengeStore()
	assert.False(t, c.Validate(99, "whatever", "secret"))
}

func TestChallengeStore_ExpiresAfterTTL(t *testing.T) {
	c := NewChallengeStore()
	nonce := c.Create(42)
	c.mu.Lock()
	entry := c.challenges[42]
	entry.issued = time.Now().Add(-ChallengeTimeout - time.Second)
	c.challenges[42] = entry
	c.mu.Unlock()

	assert.False(t, c.Validate(42, hashOf(nonce, "secret"), "secret"))
}

func TestChallengeStore_Sweep(t *testing.T) {
	c := NewChallengeStore()
	c.Create(1)
	c.mu.Lock()
	entry := c.challenges[1]
	entry.issued = time.Now().Add(-ChallengeTimeout - time.Second)
	c.challenges[1] = entry
	c.mu.Unlock()

	c.Create(2) // fresh, should survive the sweep

	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	_, stillThere := c.challenges[2]
	assert.True(t, stillThere)
}
