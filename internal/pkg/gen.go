package pkg

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const gameIDLength = 6

// URL-safe alphabet without look-alike characters, so a room id can
// be read off one screen and typed into another.
const gameIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateGameID - generates a short URL-safe identifier for a room.
func GenerateGameID() string {
	b := make([]byte, gameIDLength)
	if _, err := rand.Read(b); err != nil {
		return ""
	}

	for i, c := range b {
		b[i] = gameIDAlphabet[c%byte(len(gameIDAlphabet))]
	}

	return string(b)
}

// GeneratePlayerID - generates a new unique player identifier.
func GeneratePlayerID() string {
	return uuid.NewString()
}
