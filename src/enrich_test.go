package bedtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichIdeaTrimsResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"\n  \"A curious dog named Biscuit digs up a tiny door under the oak tree.\"  \n",
	}}

	enriched, err := EnrichIdea(context.Background(), gen, "dog")

	require.NoError(t, err)
	assert.Equal(t, "A curious dog named Biscuit digs up a tiny door under the oak tree.", enriched)
}

func TestEnrichIdeaEmptyInput(t *testing.T) {
	_, err := EnrichIdea(context.Background(), failGenerator, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestEnrichIdeaEmptyResponse(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"  \"\"  "}}

	_, err := EnrichIdea(context.Background(), gen, "dog")
	assert.Error(t, err)
}

func TestNeedsEnrichment(t *testing.T) {
	assert.True(t, needsEnrichment("dog"))
	assert.True(t, needsEnrichment("space with mom"))
	assert.False(t, needsEnrichment("a dragon who loves cookies"))
}
