package bedtime

import (
	"context"
	"errors"
)

// Generator is the single capability the story engine consumes: a fully
// composed prompt in, generated text out. Implementations wrap a hosted
// model API and may fail; the engine never retries on its own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrInvalidInput marks empty ideas and empty feedback. Surfaced to
	// the user as-is, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoActiveStory is returned when choose/revise runs without a
	// started story.
	ErrNoActiveStory = errors.New("no active story")

	// ErrStoryComplete is returned when choose runs after the final scene.
	ErrStoryComplete = errors.New("story is already complete")

	// ErrStoryIncomplete is returned by features that need all scenes,
	// such as the judge and the poster.
	ErrStoryIncomplete = errors.New("story is not complete yet")
)
