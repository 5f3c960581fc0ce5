package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestChunkOf(t *testing.T) {
	res := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "Hello "},
						{Text: "world."},
					},
				},
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{Web: &genai.GroundingChunkWeb{Title: "Example", URI: "https://example.com"}},
						{RetrievedContext: &genai.GroundingChunkRetrievedContext{Title: "Doc", URI: "https://docs.example.com"}},
						{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
					},
				},
			},
		},
	}

	chunk := chunkOf(res)
	assert.Equal(t, "Hello world.", chunk.Text)
	require.Len(t, chunk.Grounding, 2)
	assert.Equal(t, "https://example.com", chunk.Grounding[0].URI)
	assert.Equal(t, "Example", chunk.Grounding[0].Title)
	assert.Equal(t, "https://docs.example.com", chunk.Grounding[1].URI)
}

func TestChunkOfEmpty(t *testing.T) {
	chunk := chunkOf(&genai.GenerateContentResponse{})
	assert.Empty(t, chunk.Text)
	assert.Empty(t, chunk.Grounding)
}
