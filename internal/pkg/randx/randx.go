/*
Package randx provides cryptographically secure random identifier generation.

It is used to mint the ephemeral Base62 tokens that identify live websocket
connections for the duration of a session. Tokens are never persisted or
reused, so collision probability is accepted rather than guarded against.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62Chars is the character set used for token generation (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// ConnectionTokenLength is the fixed length of a connection token.
	ConnectionTokenLength = 9
)

// ConnectionToken generates a Base62 token of ConnectionTokenLength characters
// using crypto/rand.
func ConnectionToken() (string, error) {
	result := make([]byte, ConnectionTokenLength)

	for i := 0; i < ConnectionTokenLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for connection token: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsValidConnectionToken reports whether the given string has the shape of a
// connection token: correct length, all characters from the Base62 set.
func IsValidConnectionToken(token string) bool {
	if len(token) != ConnectionTokenLength {
		return false
	}

	for _, char := range token {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
