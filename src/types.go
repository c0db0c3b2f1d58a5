package bedtime

// TotalScenes is the hard cap on story length. Scenes 1 and 2 end with
// two numbered choices; scene 3 wraps the tale up.
const TotalScenes = 3

// NoChoice is the last_choice sentinel embedded in the opening scene's
// prompt, before the child has picked anything.
const NoChoice = "N/A"

// Categories is the closed set of genre tags a story can be started with.
var Categories = []string{
	"Animal Adventures",
	"Fantasy & Magic",
	"Friendship & Emotional Growth",
	"Mystery & Problem-Solving",
	"Humor & Silly Situations",
	"Science & Space Exploration",
	"Values & Morals (Fables)",
}

// DefaultCategory is used when a caller hands in a label outside the set.
var DefaultCategory = Categories[0]

// Session holds one story's progress. It is a plain value: the engine
// mutates it only inside a successfully completing transition, and the
// caller is responsible for serializing access to it.
type Session struct {
	// SceneIndex is 1-based and counts committed scenes. Zero means no
	// active story.
	SceneIndex int
	// Scenes holds one entry per committed scene. Entries are appended
	// by Choose and replaced in place by Revise, never reordered.
	Scenes []string
	// Idea is the child's premise, fixed at Start.
	Idea string
	// Category is the genre tag, fixed at Start.
	Category string
	// LastChoice is the literal text of the most recent option, or
	// NoChoice before the first branch.
	LastChoice string
}

// Active reports whether a story has been started and not reset.
func (s *Session) Active() bool {
	return s != nil && s.SceneIndex >= 1
}

// Complete reports whether the final scene has been committed.
func (s *Session) Complete() bool {
	return s != nil && s.SceneIndex >= TotalScenes
}

// StoryText joins all committed scenes with the paragraph separator used
// for story-so-far prompt context and full-story features.
func (s *Session) StoryText() string {
	return joinScenes(s.Scenes)
}

// Scene represents the outcome of one engine transition: the text of the
// scene that is now current, the pending options (nil on the terminal
// scene), and whether the story has finished.
type Scene struct {
	Text     string
	Options  []string
	Complete bool
}

func isKnownCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
