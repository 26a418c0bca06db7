package pkg

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// roomIDChars skips ambiguous characters so room codes survive being read aloud.
const roomIDChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	roomIDLength    = 6
	sessionIDLength = 16
)

// GenerateRoomID - returns a short room code like "K4PW2Q".
func GenerateRoomID() string {
	buf := make([]byte, roomIDLength)
	max := big.NewInt(int64(len(roomIDChars)))

	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		buf[i] = roomIDChars[n.Int64()]
	}

	return string(buf)
}

// GenerateNewSessionID - returns a random hex session identifier for a player.
func GenerateNewSessionID() string {
	buf := make([]byte, sessionIDLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}

	return hex.EncodeToString(buf)
}

// HashPassword - returns the hex SHA-256 digest used for room passwords.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
