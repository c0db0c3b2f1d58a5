package bedtime

import (
	"context"
	"fmt"
	"strings"
)

// Engine drives one story at a time through its three scenes. It owns no
// session state itself: every transition takes the Session it should act
// on, performs at most one blocking model call, and either commits fully
// or leaves the session untouched. Callers must serialize transitions per
// session.
type Engine struct {
	gen     Generator
	prompts Prompts
	// enrich controls whether terse ideas get a model-expanded premise
	// before scene 1.
	enrich bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPrompts overrides the stock templates. Zero fields keep defaults.
func WithPrompts(p Prompts) EngineOption {
	return func(e *Engine) { e.prompts = p.withDefaults() }
}

// WithoutEnrichment disables the idea-expansion call before scene 1.
func WithoutEnrichment() EngineOption {
	return func(e *Engine) { e.enrich = false }
}

// NewEngine builds an Engine around the given generation gateway.
func NewEngine(gen Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		gen:     gen,
		prompts: DefaultPrompts(),
		enrich:  true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a new story from the child's idea, overwriting whatever
// the session held before. Ideas shorter than a few words are enriched
// first; if enrichment fails the raw idea is used as-is. An unknown
// category falls back to the default rather than failing, since the UI
// presents a fixed menu anyway.
func (e *Engine) Start(ctx context.Context, session *Session, idea, category string) (Scene, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return Scene{}, fmt.Errorf("%w: please type a story idea first", ErrInvalidInput)
	}
	if !isKnownCategory(category) {
		category = DefaultCategory
	}

	if e.enrich && needsEnrichment(idea) {
		if enriched, err := EnrichIdea(ctx, e.gen, idea); err == nil {
			idea = enriched
		}
	}

	prompt := e.prompts.scenePrompt(1, category, idea, "", NoChoice)
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return Scene{}, fmt.Errorf("generating scene 1: %w", err)
	}
	scene := StripEarlyEnding(text, 1)

	*session = Session{
		SceneIndex: 1,
		Scenes:     []string{scene},
		Idea:       idea,
		Category:   category,
		LastChoice: NoChoice,
	}
	opts := ExtractOptions(scene)
	return Scene{Text: scene, Options: opts[:]}, nil
}

// Choose commits the child's pick and generates the next scene with the
// full story so far as context. It is only valid while options are
// pending; the scene count is capped at TotalScenes. A failed generation
// leaves the session exactly as it was.
func (e *Engine) Choose(ctx context.Context, session *Session, optionText string) (Scene, error) {
	if !session.Active() {
		return Scene{}, ErrNoActiveStory
	}
	if session.Complete() {
		return Scene{}, ErrStoryComplete
	}

	next := session.SceneIndex + 1
	prompt := e.prompts.scenePrompt(next, session.Category, session.Idea, session.StoryText(), optionText)
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return Scene{}, fmt.Errorf("generating scene %d: %w", next, err)
	}
	scene := StripEarlyEnding(text, next)

	session.Scenes = append(session.Scenes, scene)
	session.SceneIndex = next
	session.LastChoice = optionText

	if next < TotalScenes {
		opts := ExtractOptions(scene)
		return Scene{Text: scene, Options: opts[:]}, nil
	}
	return Scene{Text: scene, Complete: true}, nil
}

// Revise rewrites the current scene in place to satisfy the child's
// feedback. The scene index never moves and no scene is appended; on a
// non-terminal scene the options are re-extracted from the revised text.
func (e *Engine) Revise(ctx context.Context, session *Session, feedback string) (Scene, error) {
	if !session.Active() {
		return Scene{}, ErrNoActiveStory
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return Scene{}, fmt.Errorf("%w: please type feedback", ErrInvalidInput)
	}

	idx := session.SceneIndex - 1
	prompt := e.prompts.revisionPrompt(session.SceneIndex, feedback, session.Scenes[idx])
	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return Scene{}, fmt.Errorf("revising scene %d: %w", session.SceneIndex, err)
	}
	scene := StripEarlyEnding(text, session.SceneIndex)

	session.Scenes[idx] = scene

	if session.Complete() {
		return Scene{Text: scene, Complete: true}, nil
	}
	opts := ExtractOptions(scene)
	return Scene{Text: scene, Options: opts[:]}, nil
}

// Reset clears the session back to the no-story state.
func (e *Engine) Reset(session *Session) {
	*session = Session{}
}

// LearnSomething picks a teachable word from the story so far and fetches
// a kid-friendly fact about it. Nothing is cached on the session; each
// call recomputes from the text.
func (e *Engine) LearnSomething(ctx context.Context, session *Session) (term, fact string, err error) {
	if !session.Active() {
		return "", "", ErrNoActiveStory
	}
	term, err = ExtractLearningTerm(ctx, e.gen, session.StoryText())
	if err != nil {
		return "", "", err
	}
	fact, err = FetchChildFact(ctx, e.gen, term)
	if err != nil {
		return "", "", err
	}
	return term, fact, nil
}

// Judge evaluates the completed story.
func (e *Engine) Judge(ctx context.Context, session *Session) (string, error) {
	if !session.Active() {
		return "", ErrNoActiveStory
	}
	return JudgeStory(ctx, e.gen, session.Scenes)
}
