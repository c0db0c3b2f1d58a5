package bedtime

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultTerm is the last-resort teachable word when both the heuristic
// and the model fallback come up empty.
const DefaultTerm = "rainbow"

// termPrefixLength bounds how much story text the model fallback sees.
const termPrefixLength = 1200

var termToken = regexp.MustCompile(`\b[A-Za-z']{4,}\b`)

// ExtractLearningTerm picks one word from the story a young reader could
// learn about. Rare words beat common ones, adverbs ("-ly") and past
// tense ("-ed") are skipped, and tokens that appear capitalized more than
// half the time are treated as proper nouns and skipped too.
//
// When no candidate survives, a single model call picks a word from the
// story's opening instead; that branch is the only non-deterministic one.
func ExtractLearningTerm(ctx context.Context, gen Generator, story string) (string, error) {
	tokens := termToken.FindAllString(story, -1)

	counts := make(map[string]int, len(tokens))
	caps := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		counts[lower]++
		if unicode.IsUpper(rune(tok[0])) {
			caps[lower]++
		}
	}

	var cands []string
	for tok, n := range counts {
		if strings.HasSuffix(tok, "ly") || strings.HasSuffix(tok, "ed") {
			continue
		}
		if float64(caps[tok])/float64(n) > 0.5 {
			continue
		}
		cands = append(cands, tok)
	}

	if len(cands) > 0 {
		// Rarest first, longest breaks ties, alphabetical keeps the
		// ordering deterministic.
		sort.Slice(cands, func(i, j int) bool {
			a, b := cands[i], cands[j]
			if counts[a] != counts[b] {
				return counts[a] < counts[b]
			}
			if len(a) != len(b) {
				return len(a) > len(b)
			}
			return a < b
		})
		return cands[0], nil
	}

	return fallbackTerm(ctx, gen, story)
}

func fallbackTerm(ctx context.Context, gen Generator, story string) (string, error) {
	prefix := story
	if runes := []rune(prefix); len(runes) > termPrefixLength {
		prefix = string(runes[:termPrefixLength])
	}

	resp, err := gen.Generate(ctx, DefaultPrompts().termPrompt(prefix))
	if err != nil {
		return "", fmt.Errorf("term fallback: %w", err)
	}

	term := strings.TrimFunc(resp, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r) || r == '"' || r == '\''
	})
	if term == "" {
		return DefaultTerm, nil
	}
	return term, nil
}
