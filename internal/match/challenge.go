// Package match implements room lifecycle and matchmaking: the state
// machine a room moves through, its client roster and broadcast
// helpers, and the manager that finds or creates rooms for incoming
// players.
package match

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// ChallengeTimeout is how long an issued challenge remains valid
// before it must be re-requested, ported from server/src/game/Challenge.hpp.
const ChallengeTimeout = 30 * time.Second

type challengeEntry struct {
	nonce  string
	issued time.Time
}

// ChallengeStore issues and validates private-room join challenges:
// a hex nonce the client must hash with the room password before
// joining, so the password itself never crosses the wire. Keyed by
// player ID, single-use, 30s TTL.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[uint32]challengeEntry
}

// NewChallengeStore returns an empty store.
func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{challenges: make(map[uint32]challengeEntry)}
}

// Create issues a fresh nonce for playerID, replacing any prior
// unused challenge for that player.
func (c *ChallengeStore) Create(playerID uint32) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	nonce := hex.EncodeToString(buf)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.challenges[playerID] = challengeEntry{nonce: nonce, issued: time.Now()}
	return nonce
}

// Validate checks providedHash against SHA256(nonce || password) for
// the challenge previously issued to playerID. The challenge is
// consumed whether or not validation succeeds: single-use, per
// Challenge.hpp's contract.
func (c *ChallengeStore) Validate(playerID uint32, providedHash, password string) bool {
	c.mu.Lock()
	entry, ok := c.challenges[playerID]
	if ok {
		delete(c.challenges, playerID)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	if time.Since(entry.issued) > ChallengeTimeout {
		return false
	}

	sum := sha256.Sum256([]byte(entry.nonce + password))
	expected := hex.EncodeToString(sum[:])
	return expected == providedHash
}

// Sweep drops expired, never-validated challenges. Intended to be
// called periodically alongside Matchmaker.CleanupEmptyRooms.
func (c *ChallengeStore) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, entry := range c.challenges {
		if now.Sub(entry.issued) > ChallengeTimeout {
			delete(c.challenges, id)
			removed++
		}
	}
	return removed
}
