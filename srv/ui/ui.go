// Package ui exposes the story engine over HTTP. One browser session
// maps to one story; transitions are serialized per session and idle
// stories are evicted on a timer, with finished ones retained a while
// longer so posters and downloads keep working.
package ui

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	bedtime "github.com/opd-ai/bedtime/src"
)

const (
	sessionCookie   = "session_id"
	sessionIdleMax  = time.Hour
	cleanupInterval = 10 * time.Minute
	finishedTTL     = 24 * time.Hour
)

// StoryUI routes HTTP requests to the story engine.
type StoryUI struct {
	router   chi.Router
	engine   *bedtime.Engine
	narrator *bedtime.Narrator
	images   bedtime.ImageClient

	sessions  map[string]*storySession
	sessionsM sync.RWMutex
	// finished retains completed stories after live-session eviction so
	// poster and PDF requests still resolve.
	finished *cache.Cache

	log zerolog.Logger
}

// Option configures a StoryUI.
type Option func(*StoryUI)

// WithNarrator enables the narration endpoint.
func WithNarrator(n *bedtime.Narrator) Option {
	return func(ui *StoryUI) { ui.narrator = n }
}

// WithImages enables the poster endpoint.
func WithImages(c bedtime.ImageClient) Option {
	return func(ui *StoryUI) { ui.images = c }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(ui *StoryUI) { ui.log = log }
}

// NewStoryUI wires routes, middleware and the session store.
func NewStoryUI(engine *bedtime.Engine, opts ...Option) *StoryUI {
	ui := &StoryUI{
		router:   chi.NewRouter(),
		engine:   engine,
		sessions: make(map[string]*storySession),
		finished: cache.New(finishedTTL, cleanupInterval),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ui)
	}
	ui.setupRoutes()
	ui.startCleanup()
	return ui
}

func (ui *StoryUI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ui.router.ServeHTTP(w, r)
}

func (ui *StoryUI) setupRoutes() {
	ui.router.Use(middleware.RealIP)
	ui.router.Use(ui.requestLogger)
	ui.router.Use(middleware.Recoverer)
	ui.router.Use(httprate.LimitByIP(30, time.Minute))
	ui.router.Use(ui.sessionMiddleware)

	ui.router.Get("/healthz", ui.handleHealth)

	ui.router.Route("/story", func(r chi.Router) {
		r.Get("/", ui.handleView)
		r.Post("/start", ui.handleStart)
		r.Post("/choose", ui.handleChoose)
		r.Post("/revise", ui.handleRevise)
		r.Post("/reset", ui.handleReset)
		r.Post("/narrate", ui.handleNarrate)
		r.Get("/poster", ui.handlePoster)
		r.Get("/learn", ui.handleLearn)
		r.Get("/judge", ui.handleJudge)
		r.Get("/download", ui.handleDownload)
	})
}

func (ui *StoryUI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		ui.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type ctxKey int

const sessionIDKey ctxKey = iota

// sessionMiddleware guarantees every caller carries a session ID: an
// existing cookie is reused, otherwise one is minted and set exactly
// once. Handlers read the ID from the request context so the minted
// value survives the rest of the request.
func (ui *StoryUI) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookie); err == nil && isValidSession(cookie.Value) {
			id = cookie.Value
		} else {
			id = uuid.New().String()
			setSessionCookie(w, id)
		}
		ctx := context.WithValue(r.Context(), sessionIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func isValidSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	_, err := uuid.Parse(sessionID)
	return err == nil
}

func (ui *StoryUI) startCleanup() {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			ui.evictIdleSessions()
		}
	}()
}

// evictIdleSessions sweeps stale sessions out of the live map. Candidate
// collection and the completion check never overlap with the map lock:
// isComplete waits on a session mid-generation, and holding sessionsM
// there would stall every other session's lookups for the duration of a
// model call.
func (ui *StoryUI) evictIdleSessions() {
	candidates := make(map[string]*storySession)
	ui.sessionsM.RLock()
	for id, ss := range ui.sessions {
		if time.Since(ss.lastSeen()) > sessionIdleMax {
			candidates[id] = ss
		}
	}
	ui.sessionsM.RUnlock()

	for id, ss := range candidates {
		complete := ss.isComplete()

		ui.sessionsM.Lock()
		// A request may have touched or replaced the session meanwhile.
		if cur, ok := ui.sessions[id]; !ok || cur != ss || time.Since(ss.lastSeen()) <= sessionIdleMax {
			ui.sessionsM.Unlock()
			continue
		}
		if complete {
			ui.finished.Set(id, ss, cache.DefaultExpiration)
		}
		delete(ui.sessions, id)
		ui.sessionsM.Unlock()
		ui.log.Debug().Str("session", id).Msg("evicted idle session")
	}
}
