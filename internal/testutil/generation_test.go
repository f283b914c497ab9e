package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationSequence(t *testing.T) {
	g := NewGenerationSequence("g1", "g2")
	assert.Equal(t, "g1", g.Generate())
	assert.Equal(t, "g2", g.Generate())
	assert.PanicsWithValue(t, "generation sequence exhausted after 2 save(s)", func() { g.Generate() })
}

func TestFixedGeneration_SeedAndDefault(t *testing.T) {
	assert.Equal(t, "seed", NewFixedGeneration("seed").Generate())
	assert.Equal(t, "test-generation-default", NewFixedGeneration("").Generate())
}
