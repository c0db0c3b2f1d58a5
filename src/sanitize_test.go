package bedtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripEarlyEndingRemovesWholeLine(t *testing.T) {
	text := "The fox found the key.\nThe end.\n1. Open the gate\n2. Keep the key"

	got := StripEarlyEnding(text, 2)

	assert.Equal(t, "The fox found the key.\n1. Open the gate\n2. Keep the key", got)
}

func TestStripEarlyEndingCasingAndSpacing(t *testing.T) {
	cases := []string{"THE END.", "the end", "The   End.", "  The End  "}

	for _, line := range cases {
		got := StripEarlyEnding("Scene text.\n"+line, 1)
		assert.Equal(t, "Scene text.", got, "line %q should be removed", line)
	}
}

func TestStripEarlyEndingKeepsMidSentenceMention(t *testing.T) {
	text := "And that was the end of the chase, but not of the story."

	assert.Equal(t, text, StripEarlyEnding(text, 2))
}

func TestStripEarlyEndingTerminalSceneUntouched(t *testing.T) {
	text := "They hugged goodnight.\nThe end."

	assert.Equal(t, text, StripEarlyEnding(text, 3))
}
