package uid

import "github.com/google/uuid"

// GenerateGameID returns a random UUIDv4 for a new game.
func GenerateGameID() string {
	return uuid.NewString()
}

// GeneratePlayerID returns a random UUIDv4 for a new player.
func GeneratePlayerID() string {
	return uuid.NewString()
}

// Valid reports whether id parses as a UUID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
