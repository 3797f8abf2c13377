package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/services"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
)

const (
	// StateCookie holds the random part of the OAuth state between /login and /callback.
	StateCookie = "spotify_auth_state"
	// SessionCookie holds the credential id issued after a successful login.
	SessionCookie = "blendify_session"
	// StateSeparator joins the random state and an optional blend session id.
	StateSeparator = "--"

	stateCookieMaxAge = 10 * time.Minute
)

// Redirect error codes appended as ?error= on failed logins.
const (
	ErrCodeStateMismatch = "state_mismatch"
	ErrCodeAccessDenied  = "access_denied"
	ErrCodeInvalidToken  = "invalid_token"
	ErrCodeJoinFailed    = "join_failed"
)

// AuthOpts configures an [AuthHandler].
type AuthOpts struct {
	Service     services.OAuthService
	Engine      *tasks.BlendEngine
	Credentials models.CredentialStore
	Server      shared.ServerConfig
	TTL         time.Duration
	Logger      *log.Logger
}

// AuthHandler handles the OAuth2 authorization-code flow.
// Implements the Handler interface for registration with a Router.
type AuthHandler struct {
	svc         services.OAuthService
	engine      *tasks.BlendEngine
	credentials models.CredentialStore
	frontend    string
	exposeToken bool
	secure      bool
	ttl         time.Duration
	logger      *log.Logger
	now         func() time.Time
}

// NewAuthHandler creates a new [AuthHandler].
func NewAuthHandler(opts AuthOpts) *AuthHandler {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &AuthHandler{
		svc:         opts.Service,
		engine:      opts.Engine,
		credentials: opts.Credentials,
		frontend:    strings.TrimRight(opts.Server.FrontendURL, "/"),
		exposeToken: opts.Server.ExposeToken,
		secure:      opts.Server.CookieSecure,
		ttl:         ttl,
		logger:      logger.With("handler", "auth"),
		now:         time.Now,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"GET /login", "GET /callback"}
}

// ServeHTTP dispatches to the login or callback step.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		h.login(w, r)
	case "/callback":
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

// ComposeState appends sessionID to the random state when present.
func ComposeState(random, sessionID string) string {
	if sessionID == "" {
		return random
	}
	return random + StateSeparator + sessionID
}

// SplitState splits a returned state at the first separator into its random part and session id.
func SplitState(state string) (random, sessionID string) {
	random, sessionID, _ = strings.Cut(state, StateSeparator)
	return random, sessionID
}

// login stores a fresh state in a cookie and redirects to the provider.
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate state", "err", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	composed := ComposeState(state, r.URL.Query().Get("sessionId"))
	http.Redirect(w, r, h.svc.AuthURL(composed), http.StatusFound)
}

// callback validates state, exchanges the code, stores the token server-side and
// attaches the caller to a blend when the state carried a session id.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	random, sessionID := SplitState(state)

	cookie, err := r.Cookie(StateCookie)
	if state == "" || err != nil || cookie.Value == "" || random != cookie.Value {
		h.logger.Warn("rejected callback", "err", shared.ErrStateMismatch, "request_id", RequestIDFrom(r.Context()))
		h.redirect(w, r, "/", url.Values{"error": {ErrCodeStateMismatch}})
		return
	}

	h.clearCookie(w, StateCookie)

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("authorization denied", "error", q.Get("error"))
		h.redirect(w, r, "/", url.Values{"error": {ErrCodeAccessDenied}})
		return
	}

	ctx := r.Context()
	token, err := h.svc.Exchange(ctx, code)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		h.redirect(w, r, "/", url.Values{"error": {ErrCodeInvalidToken}})
		return
	}

	cred := models.NewCredential(shared.GenerateID(), token, h.now(), h.ttl)
	if err := h.credentials.Create(ctx, cred); err != nil {
		h.logger.Error("failed to store credential", "err", err)
		h.redirect(w, r, "/", url.Values{"error": {ErrCodeInvalidToken}})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    cred.ID,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	params := url.Values{}
	if h.exposeToken {
		params.Set("access_token", token.AccessToken)
	}

	if sessionID == "" {
		h.redirect(w, r, "/", params)
		return
	}

	_, err = h.engine.JoinBlend(ctx, sessionID, token.AccessToken)
	switch {
	case errors.Is(err, shared.ErrSessionNotFound):
		h.logger.Warn("join for unknown session, treating as first participant", "session", sessionID)
		h.redirect(w, r, "/", params)
	case err != nil:
		h.logger.Error("failed to join blend", "session", sessionID, "err", err)
		params.Set("error", ErrCodeJoinFailed)
		h.redirect(w, r, "/blend/"+url.PathEscape(sessionID), params)
	default:
		h.redirect(w, r, "/blend/"+url.PathEscape(sessionID), params)
	}
}

// redirect sends a 302 to path on the frontend with params as the query string.
func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, path string, params url.Values) {
	target := h.frontend + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
