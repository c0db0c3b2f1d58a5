package bedtime

import (
	"regexp"
	"strings"
)

// FallbackOptions is returned whenever the model fails to produce exactly
// two numbered choices. The extractor never errors: the upstream model is
// not guaranteed to follow format instructions.
var FallbackOptions = [2]string{
	"1. Continue bravely 🌟",
	"2. Take a quiet turn 💤",
}

var emphasisMarkers = regexp.MustCompile("[*_`]+")

// ExtractOptions scans scene text for the two numbered choice lines.
// Emphasis markup is stripped before prefix detection only; the returned
// options keep the model's original formatting. Anything other than
// exactly two matches yields the fallback pair.
func ExtractOptions(sceneText string) [2]string {
	var opts []string
	for _, line := range strings.Split(sceneText, "\n") {
		stripped := strings.TrimSpace(line)
		clean := emphasisMarkers.ReplaceAllString(stripped, "")
		if strings.HasPrefix(clean, "1.") || strings.HasPrefix(clean, "2.") {
			opts = append(opts, stripped)
		}
	}
	if len(opts) == 2 {
		return [2]string{opts[0], opts[1]}
	}
	return FallbackOptions
}
