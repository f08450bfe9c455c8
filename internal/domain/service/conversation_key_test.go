package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sewahome/pkg/errors"
)

func TestResolveConversationKeyIsCommutative(t *testing.T) {
	key1, err := ResolveConversationKey("anita", "bram", "")
	require.NoError(t, err)

	key2, err := ResolveConversationKey("bram", "anita", "")
	require.NoError(t, err)

	assert.Equal(t, key1, key2)
	assert.Equal(t, "anita_bram", key1)
}

func TestResolveConversationKeyListingSuffix(t *testing.T) {
	key, err := ResolveConversationKey("bram", "anita", "l42")
	require.NoError(t, err)
	assert.Equal(t, "anita_bram_l42", key)

	// The same pair without a listing is a different thread.
	plain, err := ResolveConversationKey("bram", "anita", "")
	require.NoError(t, err)
	assert.NotEqual(t, key, plain)

	// And a different listing is a third one.
	other, err := ResolveConversationKey("bram", "anita", "l43")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestResolveConversationKeyRejectsSelf(t *testing.T) {
	_, err := ResolveConversationKey("anita", "anita", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INVALID_PARTICIPANTS"))
}

func TestResolveConversationKeyRejectsBadIDs(t *testing.T) {
	cases := []struct {
		name    string
		a, b    string
		listing string
	}{
		{"empty first", "", "bram", ""},
		{"empty second", "anita", "", ""},
		{"underscore in id", "an_ita", "bram", ""},
		{"underscore in listing", "anita", "bram", "l_42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveConversationKey(tc.a, tc.b, tc.listing)
			require.Error(t, err)
			assert.True(t, errors.Is(err, "INVALID_PARTICIPANTS"))
		})
	}
}

func TestParticipantsFromKeyRoundTrip(t *testing.T) {
	key, err := ResolveConversationKey("bram", "anita", "l42")
	require.NoError(t, err)

	a, b, listingID, err := ParticipantsFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, "anita", a)
	assert.Equal(t, "bram", b)
	assert.Equal(t, "l42", listingID)

	a, b, listingID, err = ParticipantsFromKey("anita_bram")
	require.NoError(t, err)
	assert.Equal(t, "anita", a)
	assert.Equal(t, "bram", b)
	assert.Empty(t, listingID)
}

func TestParticipantsFromKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "anita", "anita_bram_l42_extra", "anita_anita", "_bram"} {
		_, _, _, err := ParticipantsFromKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestIsParticipant(t *testing.T) {
	assert.True(t, IsParticipant("anita_bram_l42", "anita"))
	assert.True(t, IsParticipant("anita_bram_l42", "bram"))
	assert.False(t, IsParticipant("anita_bram_l42", "l42"))
	assert.False(t, IsParticipant("anita_bram_l42", "citra"))
	assert.False(t, IsParticipant("garbage", "anita"))
}
