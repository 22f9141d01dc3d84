package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	chunks := chunkText("hello world", 512, 64)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestChunkTextEmptyInput(t *testing.T) {
	assert.Empty(t, chunkText("", 512, 64))
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("a", 8) + strings.Repeat("b", 8)
	chunks := chunkText(text, 10, 4)

	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaaaaabb", chunks[0])
	// second chunk starts size-overlap runes in, repeating the tail of the first
	assert.Equal(t, "aabbbbbbbb", chunks[1])
}

func TestChunkTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 1200)
	chunks := chunkText(text, 512, 64)

	require.NotEmpty(t, chunks)
	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))

	total := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 512)
		total += len(c)
	}
	assert.GreaterOrEqual(t, total, len(text))
}

func TestChunkTextRuneBoundaries(t *testing.T) {
	text := strings.Repeat("世", 20)
	chunks := chunkText(text, 8, 2)

	for _, c := range chunks {
		for _, r := range c {
			assert.Equal(t, '世', r)
		}
	}
}

func TestChunkTextGuardsBadOverlap(t *testing.T) {
	// overlap >= size would never advance; it gets clamped instead
	chunks := chunkText(strings.Repeat("z", 30), 10, 10)
	require.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 30)
}
