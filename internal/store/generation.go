package store

import (
	"github.com/google/uuid"
)

// GenerationSource produces the token stamped on each save. Readers compare
// tokens to tell whether the file changed since they loaded it.
type GenerationSource interface {
	Generate() string
}

// UUIDv7Generator stamps saves with UUIDv7 tokens, which sort by creation
// time. It holds no state.
type UUIDv7Generator struct{}

// Generate returns a fresh hyphenated UUIDv7. It panics only if the system
// random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
