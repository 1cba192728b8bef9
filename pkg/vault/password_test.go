package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword(HashPasswordOpts{Password: "Str0ngP@ss!"})
	require.NoError(t, err)
	require.NotEmpty(t, hash.Hash)
	require.NotEmpty(t, hash.Salt)

	ok, err := VerifyPassword("Str0ngP@ss!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("Wr0ngP@ss!!", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordWithFixedSaltIsDeterministic(t *testing.T) {
	first, err := HashPassword(HashPasswordOpts{Password: "Str0ngP@ss!"})
	require.NoError(t, err)

	second, err := HashPassword(HashPasswordOpts{
		Password: "Str0ngP@ss!",
		Salt:     first.Salt,
	})
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare([]byte("same"), []byte("same")))
	assert.False(t, SecureCompare([]byte("same"), []byte("different")))
	assert.False(t, SecureCompare([]byte("same"), []byte("sam")))
	assert.True(t, SecureCompare([]byte{}, []byte{}))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{password: "Str0ngP@ss!", valid: true},
		{password: "short", valid: false},
		{password: "alllowercase1", valid: false},
		{password: "Password123", valid: false},
		{password: "aaaaBBBB1111", valid: false},
		{password: "Tr1cky&Uniqu3", valid: true},
	}
	for _, tt := range tests {
		report := ValidatePasswordStrength(tt.password)
		assert.Equal(t, tt.valid, report.IsValid, "password %q score %d errors %v",
			tt.password, report.Score, report.Errors)
	}
}
