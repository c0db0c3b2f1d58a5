package bedtime

import (
	"context"
	"fmt"
	"strings"
)

// enrichThreshold is the word count below which an idea is considered too
// terse to seed a whole story.
const enrichThreshold = 4

// EnrichIdea expands a terse premise ("dog", "space with mom") into one
// or two lively, age-appropriate sentences via a single model call.
func EnrichIdea(ctx context.Context, gen Generator, rawIdea string) (string, error) {
	rawIdea = strings.TrimSpace(rawIdea)
	if rawIdea == "" {
		return "", fmt.Errorf("%w: idea is empty", ErrInvalidInput)
	}

	enriched, err := gen.Generate(ctx, DefaultPrompts().enrichPrompt(rawIdea))
	if err != nil {
		return "", fmt.Errorf("enriching idea: %w", err)
	}

	enriched = strings.TrimSpace(strings.Trim(strings.TrimSpace(enriched), `"`))
	if enriched == "" {
		return "", fmt.Errorf("enriching idea: empty response")
	}
	return enriched, nil
}

func needsEnrichment(idea string) bool {
	return len(strings.Fields(idea)) < enrichThreshold
}
