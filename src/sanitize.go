package bedtime

import (
	"regexp"
	"strings"
)

var earlyEnding = regexp.MustCompile(`(?i)^the\s+end\.?$`)

// StripEarlyEnding removes whole lines reading "The end." (any casing)
// from scenes before the final one. The generation prompt already forbids
// premature endings; this is a defensive post-filter for the times the
// model ignores it. Terminal scenes pass through untouched.
func StripEarlyEnding(text string, sceneNo int) string {
	if sceneNo >= TotalScenes {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if earlyEnding.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
