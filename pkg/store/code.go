package store

import (
	"crypto/rand"

	"github.com/tinyland-inc/vectocart/pkg/protocol"
)

// CodeRetryAttempts bounds how many times an implementation retries room code
// generation when it collides with an existing room.
const CodeRetryAttempts = 5

// GenerateRoomCode returns a 6-character join code from the unambiguous
// alphabet (no 0/O or 1/I).
func GenerateRoomCode() string {
	buf := make([]byte, protocol.RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms; a zeroed buffer
		// still yields a valid (if predictable) code.
		for i := range buf {
			buf[i] = byte(i * 7)
		}
	}
	code := make([]byte, protocol.RoomCodeLength)
	for i, b := range buf {
		code[i] = protocol.RoomCodeAlphabet[int(b)%len(protocol.RoomCodeAlphabet)]
	}
	return string(code)
}
