package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// Blender is the subset of the blend engine the pages use.
type Blender interface {
	CreateBlend(ctx context.Context, token string) (*models.Session, error)
	Session(ctx context.Context, id string) (*models.Session, error)
	SavePlaylist(ctx context.Context, token, sessionID string) (*models.Playlist, error)
}

// TokenFunc returns the provider token for a request or an error when the visitor is not logged in.
type TokenFunc func(*http.Request) (string, error)

// PollOpts bounds the waiting page's self refresh.
type PollOpts struct {
	Interval    time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// Opts configures [Pages].
type Opts struct {
	Engine Blender
	Token  TokenFunc
	Logger *log.Logger
	Poll   PollOpts
}

// Page-level error codes shown through ?error=.
const (
	ErrCodeNotLoggedIn  = "not_logged_in"
	ErrCodeCreateFailed = "create_failed"
	ErrCodeSaveFailed   = "save_failed"
)

var errorMessages = map[string]string{
	"state_mismatch":    "Login failed because the request could not be verified. Please try again.",
	"access_denied":     "Spotify access was denied.",
	"invalid_token":     "Spotify login failed. Please try again.",
	"join_failed":       "We could not add your tracks to this blend. Please try again.",
	ErrCodeNotLoggedIn:  "Please log in with Spotify first.",
	ErrCodeCreateFailed: "Failed to create blend session.",
	ErrCodeSaveFailed:   "Failed to save playlist.",
}

// ErrorMessage returns the text shown for an ?error= code, or "" for an empty code.
func ErrorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Something went wrong."
}

// Pages serves the HTML pages. It implements the server's Handler interface.
type Pages struct {
	engine    Blender
	token     TokenFunc
	logger    *log.Logger
	poll      PollOpts
	templates map[string]*template.Template
	mux       *http.ServeMux
}

var funcs = template.FuncMap{
	"duration": shared.FormatDuration,
	"inc":      func(i int) int { return i + 1 },
}

// NewPages parses the embedded templates and builds the page handler.
func NewPages(opts Opts) (*Pages, error) {
	if opts.Engine == nil || opts.Token == nil {
		return nil, fmt.Errorf("%w: pages need an engine and a token func", shared.ErrInvalidConfig)
	}

	poll := opts.Poll
	if poll.Interval <= 0 {
		poll.Interval = tasks.DefaultWatchInterval
	}
	if poll.MaxDelay < poll.Interval {
		poll.MaxDelay = max(tasks.DefaultWatchMaxDelay, poll.Interval)
	}
	if poll.MaxAttempts <= 0 {
		poll.MaxAttempts = tasks.DefaultWatchMaxAttempts
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &Pages{
		engine:    opts.Engine,
		token:     opts.Token,
		logger:    logger.With("handler", "pages"),
		poll:      poll,
		templates: make(map[string]*template.Template),
		mux:       http.NewServeMux(),
	}

	for _, page := range []string{"home.html", "blend.html", "not_found.html"} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		p.templates[page] = t
	}

	p.mux.HandleFunc("GET /{$}", p.home)
	p.mux.HandleFunc("POST /blend", p.createBlend)
	p.mux.HandleFunc("GET /blend/{sessionId}", p.blend)
	p.mux.HandleFunc("POST /blend/{sessionId}/save", p.save)
	return p, nil
}

// Routes returns the HTTP routes this handler serves.
func (p *Pages) Routes() []string {
	return []string{"GET /{$}", "POST /blend", "GET /blend/{sessionId}", "POST /blend/{sessionId}/save"}
}

func (p *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// render executes page into a buffer first so template errors never produce half a page.
func (p *Pages) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := p.templates[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error("template failed", "page", page, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (p *Pages) loggedIn(r *http.Request) bool {
	_, err := p.token(r)
	return err == nil
}

type homeData struct {
	LoggedIn bool
	Error    string
}

func (p *Pages) home(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "home.html", homeData{
		LoggedIn: p.loggedIn(r),
		Error:    ErrorMessage(r.URL.Query().Get("error")),
	})
}

func (p *Pages) createBlend(w http.ResponseWriter, r *http.Request) {
	token, err := p.token(r)
	if err != nil {
		http.Redirect(w, r, "/?error="+ErrCodeNotLoggedIn, http.StatusSeeOther)
		return
	}

	session, err := p.engine.CreateBlend(r.Context(), token)
	if err != nil {
		p.logger.Error("create blend failed", "err", err)
		http.Redirect(w, r, "/?error="+ErrCodeCreateFailed, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, blendPath(session.ID), http.StatusSeeOther)
}

type blendData struct {
	Session  *models.Session
	Tracks   []models.Track
	Complete bool
	ShareURL string
	JoinURL  string
	LoggedIn bool
	Error    string

	Attempt     int
	MaxAttempts int
	Refresh     int    // seconds until the next refresh, 0 when not refreshing
	RefreshURL  string // target of the next refresh
	GaveUp      bool
}

func (p *Pages) blend(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")

	session, err := p.engine.Session(r.Context(), id)
	if errors.Is(err, shared.ErrSessionNotFound) || errors.Is(err, shared.ErrInvalidInput) {
		p.render(w, http.StatusNotFound, "not_found.html", nil)
		return
	}
	if err != nil {
		p.logger.Error("session read failed", "session", id, "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	attempt, _ := strconv.Atoi(r.URL.Query().Get("attempt"))
	attempt = max(attempt, 0)

	data := blendData{
		Session:     session,
		Complete:    session.HasPeer(),
		ShareURL:    absoluteURL(r, blendPath(id)),
		JoinURL:     "/login?" + url.Values{"sessionId": {id}}.Encode(),
		LoggedIn:    p.loggedIn(r),
		Error:       ErrorMessage(r.URL.Query().Get("error")),
		Attempt:     attempt,
		MaxAttempts: p.poll.MaxAttempts,
	}

	switch {
	case data.Complete:
		data.Tracks = session.Merged()
	case attempt >= p.poll.MaxAttempts:
		data.GaveUp = true
	default:
		data.Refresh = refreshSeconds(p.poll, attempt)
		data.RefreshURL = blendPath(id) + "?attempt=" + strconv.Itoa(attempt+1)
	}

	p.render(w, http.StatusOK, "blend.html", data)
}

func (p *Pages) save(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")

	token, err := p.token(r)
	if err != nil {
		http.Redirect(w, r, blendPath(id)+"?error="+ErrCodeNotLoggedIn, http.StatusSeeOther)
		return
	}

	playlist, err := p.engine.SavePlaylist(r.Context(), token, id)
	if err != nil {
		p.logger.Error("save playlist failed", "session", id, "err", err)
		http.Redirect(w, r, blendPath(id)+"?error="+ErrCodeSaveFailed, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, playlist.ExternalURLs.Spotify, http.StatusSeeOther)
}

func blendPath(id string) string {
	return "/blend/" + url.PathEscape(id)
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

// refreshSeconds is the delay before refresh attempt+1: the interval doubled per attempt, capped at the maximum delay.
func refreshSeconds(poll PollOpts, attempt int) int {
	delay := poll.Interval
	for range attempt {
		delay *= 2
		if delay >= poll.MaxDelay {
			delay = poll.MaxDelay
			break
		}
	}
	return max(int((delay+time.Second-1)/time.Second), 1)
}
