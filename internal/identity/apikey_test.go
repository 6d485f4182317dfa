package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKey(t *testing.T) {
	key, hash, hint, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "bot_"))
	assert.Len(t, key, len("bot_")+32)
	assert.True(t, ValidKeyFormat(key))

	assert.Equal(t, HashAPIKey(key), hash)
	assert.NotContains(t, hash, key, "hash must not embed the plaintext")

	assert.Equal(t, key[len(key)-4:], hint)
	assert.Len(t, hint, 4)
}

func TestGenerateAPIKeyUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, _, _, err := GenerateAPIKey()
		require.NoError(t, err)
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestValidKeyFormat(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"bot_0123456789abcdef0123456789abcdef", true},
		{"bot_0123456789ABCDEF0123456789ABCDEF", false}, // uppercase hex
		{"bot_0123456789abcdef", false},                 // too short
		{"bot_0123456789abcdef0123456789abcdef00", false},
		{"bot_0123456789abcdef0123456789abcdeg", false}, // non-hex
		{"key_0123456789abcdef0123456789abcdef", false},
		{"bot_", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidKeyFormat(tt.key), "key %q", tt.key)
	}
}

func TestIsBotToken(t *testing.T) {
	assert.True(t, IsBotToken("bot_anything"))
	assert.False(t, IsBotToken("eyJhbGciOiJIUzI1NiJ9.x.y"))
	assert.False(t, IsBotToken(""))
}

func TestHashAPIKeyDeterministic(t *testing.T) {
	assert.Equal(t, HashAPIKey("bot_aaaa"), HashAPIKey("bot_aaaa"))
	assert.NotEqual(t, HashAPIKey("bot_aaaa"), HashAPIKey("bot_aaab"))
	assert.Len(t, HashAPIKey("bot_aaaa"), 64)
}
