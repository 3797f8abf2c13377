package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
	"github.com/desertthunder/blendify/internal/tasks"
)

const maxBodyBytes = 1 << 20

// JSON error messages returned by the API.
const (
	MsgNotLoggedIn     = "User not logged in"
	MsgCreateFailed    = "Failed to create blend session"
	MsgSessionNotFound = "Session not found"
	MsgInvalidRequest  = "Invalid request"
	MsgSaveFailed      = "Failed to save playlist"
	MsgInternal        = "Internal server error"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createBlendResponse struct {
	SessionID string `json:"sessionId"`
}

type savePlaylistRequest struct {
	SessionID string `json:"sessionId"`
}

type savePlaylistResponse struct {
	PlaylistURL string `json:"playlistUrl"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// TokenResolver finds the provider access token for a request.
//
// A bearer Authorization header wins over the credential cookie.
type TokenResolver struct {
	credentials models.CredentialStore
}

// NewTokenResolver creates a [TokenResolver] reading cookies against credentials.
func NewTokenResolver(credentials models.CredentialStore) *TokenResolver {
	return &TokenResolver{credentials: credentials}
}

// bearerToken extracts the credentials of a Bearer Authorization header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Resolve returns the access token for r or [shared.ErrNotAuthenticated].
func (t *TokenResolver) Resolve(r *http.Request) (string, error) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, nil
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", shared.ErrNotAuthenticated
	}

	cred, err := t.credentials.Get(r.Context(), cookie.Value)
	if err != nil {
		return "", errors.Join(shared.ErrNotAuthenticated, err)
	}
	if !cred.Token.Valid() {
		return "", errors.Join(shared.ErrNotAuthenticated, shared.ErrTokenExpired)
	}
	return cred.Token.AccessToken, nil
}

// APIHandler serves the JSON endpoints.
type APIHandler struct {
	engine *tasks.BlendEngine
	tokens *TokenResolver
	logger *log.Logger
}

// NewAPIHandler creates a new [APIHandler].
func NewAPIHandler(engine *tasks.BlendEngine, tokens *TokenResolver, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &APIHandler{engine: engine, tokens: tokens, logger: logger.With("handler", "api")}
}

// Register adds the API routes to router.
func (h *APIHandler) Register(router Router) {
	router.Handle(http.MethodPost, "/create-blend", http.HandlerFunc(h.createBlend))
	router.Handle(http.MethodGet, "/session/{sessionId}", http.HandlerFunc(h.session))
	router.Handle(http.MethodPost, "/save-playlist", http.HandlerFunc(h.savePlaylist))
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(h.health))
}

func (h *APIHandler) createBlend(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, MsgNotLoggedIn)
		return
	}

	session, err := h.engine.CreateBlend(r.Context(), token)
	if err != nil {
		h.logger.Error("create blend failed", "err", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, MsgCreateFailed)
		return
	}

	writeJSON(w, http.StatusOK, createBlendResponse{SessionID: session.ID})
}

func (h *APIHandler) session(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.Session(r.Context(), r.PathValue("sessionId"))
	switch {
	case errors.Is(err, shared.ErrSessionNotFound), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusNotFound, MsgSessionNotFound)
	case err != nil:
		h.logger.Error("session read failed", "err", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
	default:
		writeJSON(w, http.StatusOK, session)
	}
}

func (h *APIHandler) savePlaylist(w http.ResponseWriter, r *http.Request) {
	var req savePlaylistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	token, err := h.tokens.Resolve(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidRequest)
		return
	}

	playlist, err := h.engine.SavePlaylist(r.Context(), token, req.SessionID)
	switch {
	case errors.Is(err, shared.ErrSessionNotFound),
		errors.Is(err, shared.ErrNoRecommendations),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrNotAuthenticated):
		writeError(w, http.StatusBadRequest, MsgInvalidRequest)
	case err != nil:
		h.logger.Error("save playlist failed", "session", req.SessionID, "err", err, "request_id", RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, MsgSaveFailed)
	default:
		writeJSON(w, http.StatusOK, savePlaylistResponse{PlaylistURL: playlist.ExternalURLs.Spotify})
	}
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
