package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckToken(t *testing.T) {
	token, err := GenerateSecureToken(24)
	require.NoError(t, err)
	assert.Len(t, token, 32)

	hash, err := HashToken(token)
	require.NoError(t, err)
	assert.True(t, CheckToken(hash, token))
	assert.False(t, CheckToken(hash, token+"x"))
	assert.False(t, CheckToken("", token))
	assert.False(t, CheckToken(hash, ""))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}
