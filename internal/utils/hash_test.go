package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := map[string]string{
		"  Grace.Hopper@NAVY.Mil ": "Grace.Hopper@navy.mil",
		"user@example.com":         "user@example.com",
		"no-at-sign":               "no-at-sign",
		"odd@local@Example.ORG":    "odd@local@example.org",
	}
	for input, want := range tests {
		assert.Equal(t, want, NormalizeEmail(input), input)
	}
}

func TestHashToken(t *testing.T) {
	token, err := GenerateRandomToken(32)
	require.NoError(t, err)
	other, err := GenerateRandomToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, token, other)
	assert.Equal(t, HashToken(token), HashToken(token))
	assert.NotEqual(t, HashToken(token), HashToken(other))
}
