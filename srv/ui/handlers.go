package ui

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opd-ai/bedtime/bookcompiler"
	bedtime "github.com/opd-ai/bedtime/src"
)

type startRequest struct {
	Idea     string `json:"idea"`
	Category string `json:"category"`
}

type chooseRequest struct {
	Option string `json:"option"`
}

type reviseRequest struct {
	Feedback string `json:"feedback"`
}

type narrateRequest struct {
	Voice string `json:"voice"`
}

type storyView struct {
	SceneIndex int      `json:"scene_index"`
	Scene      string   `json:"scene,omitempty"`
	Story      string   `json:"story,omitempty"`
	Options    []string `json:"options,omitempty"`
	Complete   bool     `json:"complete"`
}

type learnView struct {
	Term string `json:"term"`
	Fact string `json:"fact"`
}

type judgeView struct {
	Evaluation string `json:"evaluation"`
}

func (ui *StoryUI) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ui *StoryUI) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID := ui.sessionID(r)
	ss := ui.lookupOrCreate(sessionID)
	if !ss.mu.TryLock() {
		http.Error(w, "a story step is already in progress", http.StatusTooManyRequests)
		return
	}
	defer ss.mu.Unlock()
	ss.touch()

	scene, err := ui.engine.Start(r.Context(), &ss.story, req.Idea, req.Category)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	ss.applyScene(scene)
	ss.poster = nil
	ui.finished.Delete(sessionID)

	writeJSON(w, http.StatusOK, storyView{
		SceneIndex: ss.story.SceneIndex,
		Scene:      scene.Text,
		Story:      ss.story.StoryText(),
		Options:    scene.Options,
		Complete:   scene.Complete,
	})
}

func (ui *StoryUI) handleChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	if !ss.mu.TryLock() {
		http.Error(w, "a story step is already in progress", http.StatusTooManyRequests)
		return
	}
	defer ss.mu.Unlock()
	ss.touch()

	scene, err := ui.engine.Choose(r.Context(), &ss.story, req.Option)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	ss.applyScene(scene)

	writeJSON(w, http.StatusOK, storyView{
		SceneIndex: ss.story.SceneIndex,
		Scene:      scene.Text,
		Story:      ss.story.StoryText(),
		Options:    scene.Options,
		Complete:   scene.Complete,
	})
}

func (ui *StoryUI) handleRevise(w http.ResponseWriter, r *http.Request) {
	var req reviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	if !ss.mu.TryLock() {
		http.Error(w, "a story step is already in progress", http.StatusTooManyRequests)
		return
	}
	defer ss.mu.Unlock()
	ss.touch()

	scene, err := ui.engine.Revise(r.Context(), &ss.story, req.Feedback)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	ss.applyScene(scene)

	writeJSON(w, http.StatusOK, storyView{
		SceneIndex: ss.story.SceneIndex,
		Scene:      scene.Text,
		Story:      ss.story.StoryText(),
		Options:    scene.Options,
		Complete:   scene.Complete,
	})
}

func (ui *StoryUI) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := ui.sessionID(r)
	if ss, ok := ui.lookup(sessionID); ok {
		ss.mu.Lock()
		ui.engine.Reset(&ss.story)
		ss.options = nil
		ss.complete = false
		ss.poster = nil
		ss.mu.Unlock()
	}
	ui.drop(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (ui *StoryUI) handleView(w http.ResponseWriter, r *http.Request) {
	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.story.Active() {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	ss.touch()

	current := ss.story.Scenes[ss.story.SceneIndex-1]
	writeJSON(w, http.StatusOK, storyView{
		SceneIndex: ss.story.SceneIndex,
		Scene:      current,
		Story:      ss.story.StoryText(),
		Options:    ss.options,
		Complete:   ss.complete,
	})
}

func (ui *StoryUI) handleNarrate(w http.ResponseWriter, r *http.Request) {
	if ui.narrator == nil {
		http.Error(w, "narration is not configured", http.StatusNotImplemented)
		return
	}
	var req narrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	ss.mu.Lock()
	if !ss.story.Active() {
		ss.mu.Unlock()
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	scene := ss.story.Scenes[ss.story.SceneIndex-1]
	ss.mu.Unlock()
	ss.touch()

	audio, err := ui.narrator.Narrate(r.Context(), scene, req.Voice)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(audio)
}

func (ui *StoryUI) handlePoster(w http.ResponseWriter, r *http.Request) {
	if ui.images == nil {
		http.Error(w, "posters are not configured", http.StatusNotImplemented)
		return
	}

	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.touch()

	if !ss.story.Complete() {
		ui.writeError(w, bedtime.ErrStoryIncomplete)
		return
	}
	if ss.poster == nil {
		poster, err := ui.images.GeneratePoster(r.Context(), bedtime.PosterPrompt(ss.story.Scenes))
		if err != nil {
			ui.writeError(w, err)
			return
		}
		ss.poster = poster
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(ss.poster)
}

func (ui *StoryUI) handleLearn(w http.ResponseWriter, r *http.Request) {
	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	story := ss.snapshot()
	ss.touch()

	term, fact, err := ui.engine.LearnSomething(r.Context(), &story)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, learnView{Term: term, Fact: fact})
}

func (ui *StoryUI) handleJudge(w http.ResponseWriter, r *http.Request) {
	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	story := ss.snapshot()
	ss.touch()

	evaluation, err := ui.engine.Judge(r.Context(), &story)
	if err != nil {
		ui.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, judgeView{Evaluation: evaluation})
}

func (ui *StoryUI) handleDownload(w http.ResponseWriter, r *http.Request) {
	ss, ok := ui.lookup(ui.sessionID(r))
	if !ok {
		ui.writeError(w, bedtime.ErrNoActiveStory)
		return
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.touch()

	compiler := bookcompiler.NewStorybookCompiler()
	if err := compiler.Compile(&ss.story, ss.poster); err != nil {
		ui.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="story.pdf"`)
	if err := compiler.WriteTo(w); err != nil {
		ui.log.Error().Err(err).Msg("streaming pdf")
	}
}

// sessionID returns the caller's session ID as established by the
// session middleware.
func (ui *StoryUI) sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

func (ui *StoryUI) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bedtime.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, bedtime.ErrNoActiveStory):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, bedtime.ErrStoryComplete), errors.Is(err, bedtime.ErrStoryIncomplete):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		ui.log.Error().Err(err).Msg("generation failed")
		http.Error(w, "story generation failed, please try again", http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
