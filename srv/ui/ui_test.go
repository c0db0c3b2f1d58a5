package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bedtime "github.com/opd-ai/bedtime/src"
)

const testScene = `Pip the penguin found a glowing pebble. 🐧✨

It hummed a tiny lullaby in his flipper.

1. **Follow the hum**
2. **Show the colony**`

const testSceneTwo = `The hum led Pip to a frozen waterfall. ❄️

Behind the ice something sparkled back at him.

1. **Melt a peephole**
2. **Slide around the side**`

const testFinale = `Pip tucked the pebble into the colony's nest, and its lullaby
sang every chick to sleep under the southern stars. 🌙`

// queueGenerator hands out canned scene texts in order.
type queueGenerator struct {
	responses []string
	err       error
}

func (g *queueGenerator) Generate(context.Context, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", errors.New("queue exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

type fakePoster struct {
	data []byte
	err  error
}

func (f *fakePoster) GeneratePoster(context.Context, string) ([]byte, error) {
	return f.data, f.err
}

func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decodeView(t *testing.T, resp *http.Response) storyView {
	t.Helper()
	defer resp.Body.Close()
	var view storyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestHealthz(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp, err := newTestClient(t).Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStoryFlow(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene, testSceneTwo, testFinale}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea:     "a penguin who finds a singing pebble",
		Category: "Animal Adventures",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	assert.Equal(t, 1, view.SceneIndex)
	require.Len(t, view.Options, 2)
	assert.False(t, view.Complete)

	resp = postJSON(t, client, srv.URL+"/story/choose", chooseRequest{Option: view.Options[0]})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeView(t, resp)
	assert.Equal(t, 2, view.SceneIndex)
	require.Len(t, view.Options, 2)

	resp = postJSON(t, client, srv.URL+"/story/choose", chooseRequest{Option: view.Options[1]})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decodeView(t, resp)
	assert.Equal(t, 3, view.SceneIndex)
	assert.True(t, view.Complete)
	assert.Empty(t, view.Options)

	// The story view reflects the finished state.
	getResp, err := client.Get(srv.URL + "/story/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	view = decodeView(t, getResp)
	assert.True(t, view.Complete)
	assert.Contains(t, view.Story, "southern stars")

	// Choosing past the end conflicts.
	resp = postJSON(t, client, srv.URL+"/story/choose", chooseRequest{Option: "1. Again"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestStartRejectsEmptyIdea(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp := postJSON(t, newTestClient(t), srv.URL+"/story/start", startRequest{Idea: "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChooseWithoutSession(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp := postJSON(t, newTestClient(t), srv.URL+"/story/choose", chooseRequest{Option: "1. Go"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerationFailureIsBadGateway(t *testing.T) {
	gen := &queueGenerator{err: errors.New("upstream down")}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp := postJSON(t, newTestClient(t), srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestReviseKeepsSceneCount(t *testing.T) {
	revised := strings.Replace(testScene, "glowing", "shimmering", 1)
	gen := &queueGenerator{responses: []string{testScene, revised}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, client, srv.URL+"/story/revise", reviseRequest{Feedback: "make the pebble shimmer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	assert.Equal(t, 1, view.SceneIndex)
	assert.Contains(t, view.Scene, "shimmering")
	require.Len(t, view.Options, 2)
}

func TestResetClearsSession(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := client.Post(srv.URL+"/story/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	getResp, err := client.Get(srv.URL + "/story/")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestPosterRequiresCompleteStory(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene}}
	ui := NewStoryUI(
		bedtime.NewEngine(gen, bedtime.WithoutEnrichment()),
		WithImages(&fakePoster{data: []byte("png-bytes")}),
	)
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	getResp, err := client.Get(srv.URL + "/story/poster")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusConflict, getResp.StatusCode)
}

func TestPosterServedOnceComplete(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene, testSceneTwo, testFinale}}
	ui := NewStoryUI(
		bedtime.NewEngine(gen, bedtime.WithoutEnrichment()),
		WithImages(&fakePoster{data: []byte("png-bytes")}),
	)
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	for !view.Complete {
		resp = postJSON(t, client, srv.URL+"/story/choose", chooseRequest{Option: view.Options[0]})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view = decodeView(t, resp)
	}

	getResp, err := client.Get(srv.URL + "/story/poster")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, "image/png", getResp.Header.Get("Content-Type"))
	body, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), body)
}

func TestPosterNotConfigured(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp, err := newTestClient(t).Get(srv.URL + "/story/poster")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestNarrateNotConfigured(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp := postJSON(t, newTestClient(t), srv.URL+"/story/narrate", narrateRequest{Voice: "dad"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestLearnReturnsTermAndFact(t *testing.T) {
	gen := &queueGenerator{responses: []string{
		testScene,
		"A pebble is a tiny smooth rock!\nWater rolls it round and round.\nCan you find one outside?",
	}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	getResp, err := client.Get(srv.URL + "/story/learn")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var view learnView
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&view))
	assert.NotEmpty(t, view.Term)
	assert.Contains(t, view.Fact, "tiny smooth rock")
}

func TestDownloadStreamsPDF(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene, testSceneTwo, testFinale}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	for !view.Complete {
		resp = postJSON(t, client, srv.URL+"/story/choose", chooseRequest{Option: view.Options[0]})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		view = decodeView(t, resp)
	}

	getResp, err := client.Get(srv.URL + "/story/download")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	assert.Equal(t, "application/pdf", getResp.Header.Get("Content-Type"))

	body, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")), "body should be a PDF document")
}

func TestSessionCookieIsMinted(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "response should set a session cookie")
}

func TestStartIssuesSingleSessionCookie(t *testing.T) {
	gen := &queueGenerator{responses: []string{testScene}}
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()

	// No cookie jar: the first request arrives without a session cookie.
	body, err := json.Marshal(startRequest{Idea: "a penguin who finds a singing pebble"})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/story/start", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var minted []*http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			minted = append(minted, c)
		}
	}
	require.Len(t, minted, 1, "exactly one session cookie should be set")

	// The one minted ID resolves to the started story.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/story/", nil)
	require.NoError(t, err)
	req.AddCookie(minted[0])
	getResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestLearnSnapshotIsStableUnderRevision(t *testing.T) {
	factStarted := make(chan struct{})
	factRelease := make(chan struct{})
	revised := strings.Replace(testScene, "glowing", "glimmering", 1)
	gen := bedtime.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Explain"):
			close(factStarted)
			<-factRelease
			return "A pebble is a tiny smooth rock!", nil
		case strings.Contains(prompt, "Rewrite the scene"):
			return revised, nil
		default:
			return testScene, nil
		}
	})
	ui := NewStoryUI(bedtime.NewEngine(gen, bedtime.WithoutEnrichment()))
	srv := httptest.NewServer(ui)
	defer srv.Close()
	client := newTestClient(t)

	resp := postJSON(t, client, srv.URL+"/story/start", startRequest{
		Idea: "a penguin who finds a singing pebble",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Hold the learn handler open on its fact call and revise the scene
	// underneath it. The handler works on its own copy, so the in-place
	// rewrite must not touch the text it is reading.
	learnStatus := make(chan int, 1)
	go func() {
		learnResp, err := client.Get(srv.URL + "/story/learn")
		if err != nil {
			learnStatus <- 0
			return
		}
		learnResp.Body.Close()
		learnStatus <- learnResp.StatusCode
	}()

	<-factStarted
	resp = postJSON(t, client, srv.URL+"/story/revise", reviseRequest{Feedback: "make the pebble glimmer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeView(t, resp)
	assert.Contains(t, view.Scene, "glimmering")

	close(factRelease)
	assert.Equal(t, http.StatusOK, <-learnStatus)
}

func TestEvictIdleSessions(t *testing.T) {
	ui := NewStoryUI(bedtime.NewEngine(&queueGenerator{}, bedtime.WithoutEnrichment()))

	stale := ui.lookupOrCreate("stale")
	stale.complete = true
	stale.seenMu.Lock()
	stale.seen = time.Now().Add(-2 * sessionIdleMax)
	stale.seenMu.Unlock()

	abandoned := ui.lookupOrCreate("abandoned")
	abandoned.seenMu.Lock()
	abandoned.seen = time.Now().Add(-2 * sessionIdleMax)
	abandoned.seenMu.Unlock()

	fresh := ui.lookupOrCreate("fresh")

	ui.evictIdleSessions()

	ui.sessionsM.RLock()
	_, staleLive := ui.sessions["stale"]
	_, abandonedLive := ui.sessions["abandoned"]
	cur, freshLive := ui.sessions["fresh"]
	ui.sessionsM.RUnlock()

	assert.False(t, staleLive, "idle session should leave the live map")
	assert.False(t, abandonedLive)
	assert.True(t, freshLive)
	assert.Same(t, fresh, cur)

	// Finished stories stay reachable for posters and downloads;
	// unfinished ones are gone for good.
	_, kept := ui.finished.Get("stale")
	assert.True(t, kept)
	_, kept = ui.finished.Get("abandoned")
	assert.False(t, kept)
}
