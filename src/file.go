package bedtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveStory writes a finished (or in-progress) story to disk: one
// markdown file per scene, a combined Story.md, and the poster image when
// one was generated.
func SaveStory(session *Session, poster []byte, outputDir string) error {
	if !session.Active() {
		return ErrNoActiveStory
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var full strings.Builder
	full.WriteString("# " + session.Idea + "\n\n")
	full.WriteString("Category: " + session.Category + "\n\n")

	for i, scene := range session.Scenes {
		scenePath := filepath.Join(outputDir, fmt.Sprintf("Scene_%02d.md", i+1))
		if err := os.WriteFile(scenePath, []byte(scene), 0o644); err != nil {
			return fmt.Errorf("saving scene %d: %w", i+1, err)
		}
		full.WriteString(scene + "\n\n")
	}
	if session.Complete() {
		full.WriteString("🌟 **The End!** 🌟\n")
	}

	storyPath := filepath.Join(outputDir, "Story.md")
	if err := os.WriteFile(storyPath, []byte(full.String()), 0o644); err != nil {
		return fmt.Errorf("saving story: %w", err)
	}

	if len(poster) > 0 {
		posterPath := filepath.Join(outputDir, "Poster.png")
		if err := os.WriteFile(posterPath, poster, 0o644); err != nil {
			return fmt.Errorf("saving poster: %w", err)
		}
	}
	return nil
}
