package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupEmbedderFailover(t *testing.T) {
	broken := &stubEmbedder{name: "model-a", embedFn: func(ctx context.Context, text string, taskType string) ([]float32, error) {
		return nil, fmt.Errorf("provider down")
	}}
	healthy := &stubEmbedder{name: "model-b", embedFn: func(ctx context.Context, text string, taskType string) ([]float32, error) {
		return []float32{1, 2}, nil
	}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: broken},
		{Name: "secondary", Embedder: healthy},
	})

	vec, err := group.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, vec)
}

func TestGroupEmbedderModelNameTracksSucceedingEntry(t *testing.T) {
	broken := &stubEmbedder{name: "model-a", embedFn: func(ctx context.Context, text string, taskType string) ([]float32, error) {
		return nil, fmt.Errorf("provider down")
	}}
	healthy := &stubEmbedder{name: "model-b", embedFn: func(ctx context.Context, text string, taskType string) ([]float32, error) {
		return []float32{1}, nil
	}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: broken},
		{Name: "secondary", Embedder: healthy},
	})

	// before any call, attribution defaults to the first configured entry
	require.Equal(t, "model-a", group.ModelName())

	_, err := group.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, "model-b", group.ModelName())
}

func TestGroupEmbedderAllFail(t *testing.T) {
	broken := &stubEmbedder{name: "model-a", embedFn: func(ctx context.Context, text string, taskType string) ([]float32, error) {
		return nil, fmt.Errorf("provider down")
	}}
	group := NewGroupEmbedder([]EmbedderEntry{{Name: "primary", Embedder: broken}})

	_, err := group.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.Error(t, err)
}

func TestGroupGeneratorFailover(t *testing.T) {
	group := NewGroupGenerator([]GeneratorEntry{
		{Name: "primary", Generator: &stubGenerator{err: fmt.Errorf("provider down")}},
		{Name: "secondary", Generator: &stubGenerator{reply: "answer"}},
	})

	got, err := group.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "answer", got)
}

func TestNewGroupEmptyIsNil(t *testing.T) {
	require.Nil(t, NewGroupEmbedder(nil))
	require.Nil(t, NewGroupGenerator(nil))
}
