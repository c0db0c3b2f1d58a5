package bedtime

import (
	"context"
	"fmt"
	"strings"
)

// FetchChildFact asks the model for a three-line, kid-friendly
// explanation of a term.
func FetchChildFact(ctx context.Context, gen Generator, term string) (string, error) {
	fact, err := gen.Generate(ctx, DefaultPrompts().factPrompt(term))
	if err != nil {
		return "", fmt.Errorf("fetching fact for %q: %w", term, err)
	}
	return strings.TrimSpace(fact), nil
}
