package ui

import (
	"sync"
	"time"

	bedtime "github.com/opd-ai/bedtime/src"
)

// storySession pairs one story with the bookkeeping the HTTP layer needs:
// a mutex serializing engine transitions, the pending options, a memoized
// poster, and an idle timestamp for eviction.
type storySession struct {
	mu sync.Mutex

	story    bedtime.Session
	options  []string
	complete bool
	poster   []byte

	seenMu sync.Mutex
	seen   time.Time
}

func newStorySession() *storySession {
	return &storySession{seen: time.Now()}
}

func (ss *storySession) touch() {
	ss.seenMu.Lock()
	ss.seen = time.Now()
	ss.seenMu.Unlock()
}

func (ss *storySession) lastSeen() time.Time {
	ss.seenMu.Lock()
	defer ss.seenMu.Unlock()
	return ss.seen
}

func (ss *storySession) isComplete() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.complete
}

// snapshot copies the story for use outside ss.mu. The scene slice is
// cloned because Revise rewrites entries in place; a shallow copy would
// share the backing array with a concurrent revision.
func (ss *storySession) snapshot() bedtime.Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	story := ss.story
	story.Scenes = append([]string(nil), ss.story.Scenes...)
	return story
}

// applyScene commits a transition result. Callers hold ss.mu.
func (ss *storySession) applyScene(scene bedtime.Scene) {
	ss.options = scene.Options
	ss.complete = scene.Complete
	if scene.Complete {
		// A revision of the final scene invalidates any memoized poster.
		ss.poster = nil
	}
}

// lookup finds the live session for an ID, falling back to the
// finished-story cache.
func (ui *StoryUI) lookup(sessionID string) (*storySession, bool) {
	ui.sessionsM.RLock()
	ss, ok := ui.sessions[sessionID]
	ui.sessionsM.RUnlock()
	if ok {
		return ss, true
	}
	if hit, found := ui.finished.Get(sessionID); found {
		return hit.(*storySession), true
	}
	return nil, false
}

// lookupOrCreate returns the live session for an ID, promoting a
// finished-cache hit back into the live map or creating an empty one.
func (ui *StoryUI) lookupOrCreate(sessionID string) *storySession {
	ui.sessionsM.Lock()
	defer ui.sessionsM.Unlock()
	if ss, ok := ui.sessions[sessionID]; ok {
		return ss
	}
	if hit, found := ui.finished.Get(sessionID); found {
		ss := hit.(*storySession)
		ui.sessions[sessionID] = ss
		ui.finished.Delete(sessionID)
		return ss
	}
	ss := newStorySession()
	ui.sessions[sessionID] = ss
	return ss
}

func (ui *StoryUI) drop(sessionID string) {
	ui.sessionsM.Lock()
	delete(ui.sessions, sessionID)
	ui.sessionsM.Unlock()
	ui.finished.Delete(sessionID)
}
