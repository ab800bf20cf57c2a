package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{1, 2, 3}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting"
}

func TestLruEmbedderCachesByTextAndTaskType(t *testing.T) {
	next := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(next, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)

	// a different task type is a different cache entry
	_, err = cached.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLruEmbedderReturnsCopies(t *testing.T) {
	cached := WrapLruCacheToEmbedder(&countingEmbedder{}, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = 999

	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestWrapLruCacheToEmbedderDisabled(t *testing.T) {
	next := &countingEmbedder{}
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 16, 0))
	require.Nil(t, WrapLruCacheToEmbedder(nil, 16, time.Minute))
}
