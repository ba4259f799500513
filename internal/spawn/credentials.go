package spawn

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"os/user"
)

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GeneratePassword returns a random alphanumeric password of n
// characters. Ambiguous characters (0/O, 1/l/I) are left out.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// DefaultCredentials mirrors the invoking user into the container:
// same username, same uid/gid, fresh random password.
func DefaultCredentials() (Credentials, error) {
	current, err := user.Current()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to resolve current user: %w", err)
	}

	password, err := GeneratePassword(8)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		Username: current.Username,
		Password: password,
		UID:      os.Getuid(),
		GID:      os.Getgid(),
	}, nil
}
