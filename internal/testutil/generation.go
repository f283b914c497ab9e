package testutil

import (
	"fmt"
	"sync"
)

// FixedGeneration stamps every save with the same generation token. Use it
// where the number of saves is not the point of the test, such as golden
// output.
type FixedGeneration struct {
	token string
}

// NewFixedGeneration creates a source that always returns token.
// An empty token becomes "test-generation-default".
func NewFixedGeneration(token string) *FixedGeneration {
	if token == "" {
		token = "test-generation-default"
	}
	return &FixedGeneration{token: token}
}

// Generate returns the fixed token.
func (g *FixedGeneration) Generate() string {
	return g.token
}

// GenerationSequence hands out a scripted list of tokens, one per save, so
// a test can assert exactly which save produced the file on disk. It is
// safe for concurrent use.
type GenerationSequence struct {
	mu     sync.Mutex
	tokens []string
	used   int
}

// NewGenerationSequence creates a source returning tokens in order.
func NewGenerationSequence(tokens ...string) *GenerationSequence {
	return &GenerationSequence{tokens: tokens}
}

// Generate returns the next token. A save beyond the script panics, which
// fails a test that writes more often than it expects.
func (g *GenerationSequence) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.used == len(g.tokens) {
		panic(fmt.Sprintf("generation sequence exhausted after %d save(s)", g.used))
	}
	token := g.tokens[g.used]
	g.used++
	return token
}
