package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunkShortTextSingleFragment(t *testing.T) {
	got := Chunk("alice: hello there", 1000, 200)
	require.Equal(t, []string{"alice: hello there"}, got)
}

func TestChunkEmptyText(t *testing.T) {
	require.Nil(t, Chunk("", 1000, 200))
	require.Nil(t, Chunk("   \n\t  ", 1000, 200))
}

func TestChunkRespectsMaxLenAndOverlaps(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma. ", 20))
	chunks := Chunk(text, 100, 30)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 100)
		require.NotEmpty(t, chunk)
		require.Contains(t, text, chunk)
	}
	// consecutive fragments share text at the seam
	for i := 1; i < len(chunks); i++ {
		probe := chunks[i]
		if len(probe) > 10 {
			probe = probe[:10]
		}
		require.Contains(t, chunks[i-1], probe)
	}
}

func TestChunkPrefersSentenceBoundaries(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma. ", 20))
	chunks := Chunk(text, 100, 30)
	require.True(t, strings.HasSuffix(chunks[0], "."))
}

func TestChunkHardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := Chunk(text, 100, 0)
	require.Equal(t, []string{
		strings.Repeat("a", 100),
		strings.Repeat("a", 100),
		strings.Repeat("a", 50),
	}, chunks)
}

func TestChunkHardCutKeepsRunesIntact(t *testing.T) {
	text := strings.Repeat("é", 100)
	chunks := Chunk(text, 33, 0)
	require.Greater(t, len(chunks), 1)
	var rebuilt strings.Builder
	for _, chunk := range chunks {
		require.True(t, utf8.ValidString(chunk))
		require.LessOrEqual(t, len(chunk), 33)
		rebuilt.WriteString(chunk)
	}
	require.Equal(t, text, rebuilt.String())
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("one two three four five. ", 50)
	first := Chunk(text, 120, 40)
	second := Chunk(text, 120, 40)
	require.Equal(t, first, second)
}

func TestChunkDefaultsOnBadArgs(t *testing.T) {
	text := strings.Repeat("x y z. ", 400)
	chunks := Chunk(text, 0, -1)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), DefaultMaxChunkLen)
	}
	// overlap >= maxLen would never make progress, so it gets clamped
	chunks = Chunk(text, 100, 100)
	require.Greater(t, len(chunks), 1)
}
