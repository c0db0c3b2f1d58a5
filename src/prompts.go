package bedtime

import (
	"fmt"
	"strings"
)

// The scene and revision templates carry the full prompt contract:
// scene number, category, idea, story-so-far and last choice for scenes,
// and scene number, feedback and the untouched original for revisions.
// The wording is configuration; the field set is not.

const defaultSceneTemplate = `
You are a children's storyteller. Write **SCENE %d/3** of an
age-5-to-10 bedtime story (about 150 words).

**Category:** %s
**Child's idea:** "%s"
Work the idea into the first two sentences.

### Story-Arc Requirements
- **Scene 1** - introduce the main character and their WANT/PROBLEM.
- **Scene 2** - raise the stakes; a challenge appears.
- **Scene 3** - climax and satisfying resolution. No numbered choices.

### Style Rules
1. Use vivid language and **relevant emojis** (😀🐉🍪🌟🚀 ...).
2. Keep sentences short and clear.
3. Leave a blank line between paragraphs.
4. **Scenes 1 & 2:** end with *exactly two* **bold** numbered choices ("1." & "2.").
5. **Scene 3:** wrap up the tale (no choices). Do **not** write "The end." before Scene 3.
6. Each scene should clearly advance the arc.

Story so far:
"""%s"""

last_choice = "%s"
If last_choice is "N/A" this is the opening scene, otherwise nod to the
child's choice in one friendly sentence before continuing.
`

const defaultRevisionTemplate = `
You previously wrote SCENE %d/3 of a bedtime story.

Rewrite the scene so it satisfies the feedback below. **Change at least
two sentences visibly** and keep to the style rules (including **bold**
choice text, and exactly two numbered choices unless this is scene 3).

Feedback: "%s"

Original scene:
"""%s"""
`

const defaultEnrichTemplate = `
You are a children's creative-writing assistant.
The child's idea is: "%s"

Expand it into ONE or TWO sentences that:
- keep the core topic intact,
- add colourful, child-friendly details (who, where, why),
- remain suitable for a 5-10-year-old,
- end with a period.

Return ONLY the enriched idea - no bullet points, prefixes, or quotes.
`

const defaultTermTemplate = "From the story below, name ONE interesting action, object, or animal " +
	"that a 7-year-old could learn about (just the single word, no quotes):\n\"\"\"\n%s\n\"\"\""

const defaultFactTemplate = `Explain "%s" to a 7-year-old in **three short lines**.
Use friendly language and finish with a question to make them curious.`

const defaultJudgeTemplate = `
You are an expert in children's literature and child development.
Evaluate this bedtime story for ages 5-10.

Story to evaluate:
"""
%s
"""

Please evaluate the story on these 3 key criteria (score 1-10 for each):

1. **Age Appropriateness**: Is the vocabulary, themes, and content suitable for ages 5-10?
2. **Ease of Reading**: How easy is it for children to follow and understand?
3. **Clarity of Moral/Takeaway**: Is there a clear, positive lesson or message?

For each criterion give a score (1-10) and a brief explanation.
End with an Overall Score (average of the 3) and a Final Verdict
(2-3 sentences on the story's quality as a bedtime story).
`

// Prompts collects the template strings the engine interpolates. Zero
// fields fall back to the defaults, so callers only override what they
// want reworded.
type Prompts struct {
	Scene    string
	Revision string
	Enrich   string
	Term     string
	Fact     string
	Judge    string
}

// DefaultPrompts returns the stock bedtime-story templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Scene:    defaultSceneTemplate,
		Revision: defaultRevisionTemplate,
		Enrich:   defaultEnrichTemplate,
		Term:     defaultTermTemplate,
		Fact:     defaultFactTemplate,
		Judge:    defaultJudgeTemplate,
	}
}

func (p Prompts) withDefaults() Prompts {
	d := DefaultPrompts()
	if p.Scene == "" {
		p.Scene = d.Scene
	}
	if p.Revision == "" {
		p.Revision = d.Revision
	}
	if p.Enrich == "" {
		p.Enrich = d.Enrich
	}
	if p.Term == "" {
		p.Term = d.Term
	}
	if p.Fact == "" {
		p.Fact = d.Fact
	}
	if p.Judge == "" {
		p.Judge = d.Judge
	}
	return p
}

func (p Prompts) scenePrompt(sceneNo int, category, idea, storySoFar, lastChoice string) string {
	return fmt.Sprintf(p.Scene, sceneNo, category, idea, storySoFar, lastChoice)
}

func (p Prompts) revisionPrompt(sceneNo int, feedback, originalScene string) string {
	return fmt.Sprintf(p.Revision, sceneNo, feedback, originalScene)
}

func (p Prompts) enrichPrompt(idea string) string {
	return fmt.Sprintf(p.Enrich, idea)
}

func (p Prompts) termPrompt(storyPrefix string) string {
	return fmt.Sprintf(p.Term, storyPrefix)
}

func (p Prompts) factPrompt(term string) string {
	return fmt.Sprintf(p.Fact, term)
}

func (p Prompts) judgePrompt(story string) string {
	return fmt.Sprintf(p.Judge, story)
}

func joinScenes(scenes []string) string {
	return strings.Join(scenes, "\n\n")
}
