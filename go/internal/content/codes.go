package content

// RoomCodeLength is the number of characters in a generated room code.
const RoomCodeLength = 6

// codeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRoomCode returns a short uppercase alphanumeric room code.
// Collisions are expected to be rare and are retried by the caller.
func GenerateRoomCode(rng Rand) string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		b[i] = codeAlphabet[rng.IntN(len(codeAlphabet))]
	}
	return string(b)
}
