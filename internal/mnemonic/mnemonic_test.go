package mnemonic_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/wallet-core/internal/mnemonic"
)

// Known-good 12-word BIP-39 vector (all-zero entropy).
const validPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerate_ProducesValidPhrase(t *testing.T) {
	phrase, err := mnemonic.Generate()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(phrase), 12)
	assert.True(t, mnemonic.Validate(phrase))
}

func TestGenerate_PhrasesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		phrase, err := mnemonic.Generate()
		require.NoError(t, err)
		require.False(t, seen[phrase], "duplicate mnemonic generated")
		seen[phrase] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"known good vector", validPhrase, true},
		{"leading and trailing spaces", "  " + validPhrase + "  ", true},
		{"empty string", "", false},
		{"garbage", "not a mnemonic at all", false},
		{"wrong word count", "abandon abandon abandon", false},
		{"bad checksum", "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon", false},
		{"word outside list", strings.Replace(validPhrase, "about", "zzzzz", 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mnemonic.Validate(tt.candidate))
		})
	}
}

func TestToSeed_Deterministic(t *testing.T) {
	first, err := mnemonic.ToSeed(validPhrase)
	require.NoError(t, err)
	require.Len(t, first, mnemonic.SeedSize)

	second, err := mnemonic.ToSeed(validPhrase)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestToSeed_RejectsInvalidPhrase(t *testing.T) {
	_, err := mnemonic.ToSeed("definitely not a seed phrase")
	require.ErrorIs(t, err, mnemonic.ErrInvalidMnemonic)
}
