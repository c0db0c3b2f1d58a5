package bedtime

import (
	"regexp"
	"strings"
)

// maxNarrationLength matches the input limit of the speech API.
const maxNarrationLength = 4096

var narrationMarkup = regexp.MustCompile("[*_`#🌟]")

// CleanForNarration prepares scene text for text-to-speech: markdown
// emphasis and heading markers go, numbered option lines go (nobody wants
// the menu read aloud), and the result is truncated to the speech API
// limit. Idempotent on already-clean text.
func CleanForNarration(raw string) string {
	noMarkup := narrationMarkup.ReplaceAllString(raw, "")

	var kept []string
	for _, line := range strings.Split(noMarkup, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "1.") || strings.HasPrefix(trimmed, "2.") {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")

	runes := []rune(out)
	if len(runes) > maxNarrationLength {
		out = string(runes[:maxNarrationLength])
	}
	return out
}
