package web

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
	"github.com/desertthunder/discojam/internal/tasks"
)

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", pageData{Title: "Welcome"})
}

// Login is the entry to the auth gate: a usable session continues straight
// to the recommendations page, everything else goes to the provider.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gate(w, r); !ok {
		return
	}
	http.Redirect(w, r, "/get_top_artists", http.StatusFound)
}

// Callback completes the OAuth authorization-code flow.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	saved, err := h.tokens.TakeState(w, r)
	if err != nil || saved != query.Get("state") {
		h.logger.Warn("state mismatch on callback")
		http.Error(w, "Invalid state parameter", http.StatusForbidden)
		return
	}

	code := query.Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	tok, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		h.unavailable(w, r)
		return
	}

	if err := h.tokens.SetToken(w, r, tok); err != nil {
		h.logger.Error("failed to store token", "error", err)
		h.unavailable(w, r)
		return
	}

	http.Redirect(w, r, "/get_top_artists", http.StatusFound)
}

// Recommendations runs the discovery pipeline and renders the results page.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	bound, ok := h.gate(w, r)
	if !ok {
		return
	}

	engine := tasks.NewDiscoveryEngine(bound, h.logger)
	discovery, err := engine.Discover(r.Context())
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "recommendations", pageData{
		Title:     "Your Discovery Jam",
		Message:   r.URL.Query().Get("message"),
		Discovery: discovery,
	})
}

// CreatePlaylist re-runs the pipeline and creates the next playlist volume,
// then redirects to the confirmation page.
func (h *Handler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	bound, ok := h.gate(w, r)
	if !ok {
		return
	}

	user, err := bound.UserProfile(r.Context())
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}

	engine := tasks.NewDiscoveryEngine(bound, h.logger)
	discovery, err := engine.Discover(r.Context())
	if err != nil {
		h.pipelineError(w, r, err)
		return
	}

	trackIDs := make([]string, 0, len(discovery.Tracks))
	for _, t := range discovery.Tracks {
		trackIDs = append(trackIDs, t.ID)
	}

	creator := tasks.NewPlaylistCreator(bound, h.cover, h.logger, h.playlist.NameSuffix, h.playlist.Description)
	created, err := creator.Create(r.Context(), user, trackIDs)
	if err != nil {
		if errors.Is(err, shared.ErrPlaylistCreateFailed) || errors.Is(err, shared.ErrInsufficientData) {
			h.logger.Warn("playlist creation failed", "error", err)
			h.flashRedirect(w, r, "Playlist not created, please try again.")
			return
		}
		h.pipelineError(w, r, err)
		return
	}

	target := url.Values{}
	target.Set("name", created.Name)
	target.Set("url", created.ExternalURL)
	http.Redirect(w, r, "/success?"+target.Encode(), http.StatusSeeOther)
}

// Success renders the created-playlist confirmation, regenerating the cover
// image inline as a data URI.
func (h *Handler) Success(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gate(w, r); !ok {
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Redirect(w, r, "/get_top_artists", http.StatusFound)
		return
	}

	data := pageData{
		Title:        "Playlist Created",
		PlaylistName: name,
		PlaylistURL:  r.URL.Query().Get("url"),
	}

	if raw, err := h.cover.EncodeJPEG(name); err == nil {
		uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw)
		data.CoverDataURI = template.URL(uri)
	} else {
		h.logger.Warn("cover render for page failed", "error", err)
	}

	h.render(w, r, http.StatusOK, "success", data)
}

// Logout clears the session and returns home.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Clear(w, r); err != nil {
		h.logger.Warn("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// NotFound renders the generic 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "404", pageData{Title: "Not Found"})
}

// gate checks the cached token and returns a provider bound to a valid
// bearer credential. An expired token is refreshed and stored exactly once;
// a missing token or failed refresh redirects to the provider's
// authorization URL and reports false.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request) (services.Provider, bool) {
	tok, err := h.tokens.Token(r)
	if err != nil {
		h.redirectToAuth(w, r)
		return nil, false
	}

	if !tok.Valid() {
		refreshed, err := h.provider.Refresh(r.Context(), tok)
		if err != nil {
			// Refresh failure means re-login, never an error page.
			h.logger.Warn("token refresh failed", "error", err)
			h.redirectToAuth(w, r)
			return nil, false
		}
		if err := h.tokens.SetToken(w, r, refreshed); err != nil {
			h.logger.Error("failed to store refreshed token", "error", err)
			h.unavailable(w, r)
			return nil, false
		}
		tok = refreshed
	}

	return h.provider.WithToken(tok), true
}

// redirectToAuth starts a fresh authorization round trip with a new state nonce.
func (h *Handler) redirectToAuth(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()
	if err := h.tokens.SetState(w, r, state); err != nil {
		h.logger.Error("failed to store oauth state", "error", err)
		h.unavailable(w, r)
		return
	}
	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// pipelineError maps pipeline failures onto user-visible responses.
func (h *Handler) pipelineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrTokenExpired), errors.Is(err, shared.ErrNotAuthenticated):
		h.redirectToAuth(w, r)
	case errors.Is(err, shared.ErrInsufficientData):
		h.render(w, r, http.StatusOK, "error", pageData{
			Title:   "Not Enough Data",
			Message: "We need a bit more listening history before we can build your jam. Come back after a few more sessions.",
		})
	default:
		h.logger.Error("pipeline failed", "error", err)
		h.unavailable(w, r)
	}
}

// unavailable renders the generic upstream-failure page.
func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusBadGateway, "error", pageData{
		Title:   "Service Unavailable",
		Message: "Spotify did not answer in time. Please try again in a moment.",
	})
}

// flashRedirect bounces back to the recommendations page with an inline message.
func (h *Handler) flashRedirect(w http.ResponseWriter, r *http.Request, message string) {
	target := url.Values{}
	target.Set("message", message)
	http.Redirect(w, r, "/get_top_artists?"+target.Encode(), http.StatusSeeOther)
}
