package softaculous

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := GeneratePassword(16)
		require.NoError(t, err)
		assert.Len(t, pw, 16)
		assert.True(t, strings.ContainsAny(pw, lowerChars), pw)
		assert.True(t, strings.ContainsAny(pw, upperChars), pw)
		assert.True(t, strings.ContainsAny(pw, digitChars), pw)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(passwordChars, r), "unexpected char %q", r)
		}
	}
}

func TestGeneratePassword_MinimumLength(t *testing.T) {
	pw, err := GeneratePassword(4)
	require.NoError(t, err)
	assert.Len(t, pw, minPasswordLength)
}

func TestGeneratePassword_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		pw, err := GeneratePassword(12)
		require.NoError(t, err)
		assert.False(t, seen[pw])
		seen[pw] = true
	}
}

var usernamePattern = regexp.MustCompile(`^(wp|user|site|web|mgr)_[0-9a-f]{6}$`)

func TestGenerateUsername(t *testing.T) {
	for i := 0; i < 50; i++ {
		u, err := GenerateUsername()
		require.NoError(t, err)
		assert.Regexp(t, usernamePattern, u)
		assert.NotContains(t, u, "admin")
	}
}

func TestGenerateInstallCredentials(t *testing.T) {
	creds, err := generateInstallCredentials()
	require.NoError(t, err)

	assert.Regexp(t, usernamePattern, creds.AdminUsername)
	assert.Len(t, creds.AdminPassword, minPasswordLength)
	assert.Len(t, creds.DBPassword, 16)
	assert.Regexp(t, `^wp[0-9a-f]{5}$`, creds.DBName)
	assert.Equal(t, creds.DBName, creds.DBUser)
}
