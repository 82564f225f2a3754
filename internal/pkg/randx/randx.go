/*
Package randx generates identifiers: Base62 room ids for rooms created without an
explicit id, and UUIDs for transport connections.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the Base62 alphabet (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 alphabet.
	Base62Len = int64(len(Base62Chars))

	// RoomIDLength is the length of generated room ids.
	RoomIDLength = 6
)

// RoomID returns a random Base62 room id of RoomIDLength characters from crypto/rand.
func RoomID() (string, error) {
	result := make([]byte, RoomIDLength)

	for i := range RoomIDLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for room id: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// IsBase62 reports whether s is non-empty and drawn only from the Base62 alphabet.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}

	for _, char := range s {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// ConnectionID returns a fresh UUID v4 string for a transport connection.
func ConnectionID() string {
	return uuid.New().String()
}
