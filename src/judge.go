package bedtime

import (
	"context"
	"fmt"
	"strings"
)

// JudgeStory evaluates a finished three-scene story against bedtime-story
// standards for ages 5-10. It needs every scene; judging a half-told
// story is meaningless.
func JudgeStory(ctx context.Context, gen Generator, scenes []string) (string, error) {
	if len(scenes) < TotalScenes {
		return "", ErrStoryIncomplete
	}

	evaluation, err := gen.Generate(ctx, DefaultPrompts().judgePrompt(joinScenes(scenes)))
	if err != nil {
		return "", fmt.Errorf("judging story: %w", err)
	}
	return strings.TrimSpace(evaluation), nil
}
