package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratedIDsAreUniqueUUIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateGameID()
		assert.True(t, Valid(id))
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.True(t, Valid(GeneratePlayerID()))
	assert.False(t, Valid("not-a-uuid"))
}
