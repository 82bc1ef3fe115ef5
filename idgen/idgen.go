// Package idgen provides the ID strategies used across cadkeys: short
// NanoIDs for journal rows, UUIDv7 for anything that needs time-sortable
// global uniqueness.
package idgen

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

const nanoAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
const nanoLength = 12

// NanoID returns a base-36 ID of 12 characters. Short, URL-safe, fast.
func NanoID() string {
	b := make([]byte, nanoLength)
	buf := make([]byte, nanoLength)
	if _, err := rand.Read(buf); err != nil {
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = nanoAlphabet[int(buf[i])%len(nanoAlphabet)]
	}
	return string(b)
}

// UUIDv7 returns an RFC 9562 UUID v7 string. Time-sortable, globally unique.
func UUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Parse validates a UUID string and returns it normalised, or an error.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
