package softaculous

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	lowerChars    = "abcdefghijklmnopqrstuvwxyz"
	upperChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars    = "0123456789"
	symbolChars   = "!@#$%"
	passwordChars = lowerChars + upperChars + digitChars + symbolChars

	minPasswordLength = 12
)

// usernamePrefixes never include "admin"; scanners hammer that name on every
// WordPress login page.
var usernamePrefixes = []string{"wp", "user", "site", "web", "mgr"}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}

// GeneratePassword returns a random password from the fixed alphabet with at
// least one lowercase letter, uppercase letter and digit. Lengths below 12 are
// raised to 12.
func GeneratePassword(length int) (string, error) {
	if length < minPasswordLength {
		length = minPasswordLength
	}
	out := make([]byte, length)
	for i, set := range []string{lowerChars, upperChars, digitChars} {
		idx, err := randIndex(len(set))
		if err != nil {
			return "", err
		}
		out[i] = set[idx]
	}
	for i := 3; i < length; i++ {
		idx, err := randIndex(len(passwordChars))
		if err != nil {
			return "", err
		}
		out[i] = passwordChars[idx]
	}
	// Shuffle so the guaranteed classes are not always in front.
	for i := length - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b)[:n], nil
}

// GenerateUsername returns "<prefix>_<6 hex>", e.g. "site_3fa9c1".
func GenerateUsername() (string, error) {
	idx, err := randIndex(len(usernamePrefixes))
	if err != nil {
		return "", err
	}
	suffix, err := randomHex(6)
	if err != nil {
		return "", err
	}
	return usernamePrefixes[idx] + "_" + suffix, nil
}

// installCredentials is the generated secret material for one install.
type installCredentials struct {
	AdminUsername string
	AdminPassword string
	DBName        string
	DBUser        string
	DBPassword    string
}

func generateInstallCredentials() (installCredentials, error) {
	var creds installCredentials
	var err error
	if creds.AdminUsername, err = GenerateUsername(); err != nil {
		return creds, err
	}
	if creds.AdminPassword, err = GeneratePassword(minPasswordLength); err != nil {
		return creds, err
	}
	if creds.DBPassword, err = GeneratePassword(16); err != nil {
		return creds, err
	}
	// Softaculous caps database names at 7 alphanumeric characters.
	suffix, err := randomHex(5)
	if err != nil {
		return creds, err
	}
	creds.DBName = "wp" + suffix
	creds.DBUser = "wp" + suffix
	return creds, nil
}
