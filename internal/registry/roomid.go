package registry

import (
	"crypto/rand"
	"fmt"
)

const (
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomIDLength   = 8
)

// generateRoomID - produces a human-shareable 8-character uppercase
// alphanumeric room token from crypto/rand.
func generateRoomID() (string, error) {
	buf := make([]byte, roomIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	token := make([]byte, roomIDLength)
	for i, b := range buf {
		token[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}

	return string(token), nil
}
