// Package web implements the server-rendered pages of the discovery playlist
// application.
//
// # Architecture
//
// Each route performs a short sequence of provider calls and renders a page
// or redirects; there is no JSON API and no background work. The [Handler]
// holds injected dependencies (provider, token store, cover renderer) and
// registers its routes on a [server.Router]:
//
//	GET  /                → landing page
//	GET  /login           → auth gate, then redirect to recommendations
//	GET  /callback        → OAuth code exchange
//	GET  /get_top_artists → run the discovery pipeline, render recommendations
//	POST /get_top_artists → create the playlist, redirect to /success
//	GET  /success         → confirmation page with the rendered cover
//	GET  /logout          → clear session, redirect home
//
// # Authentication Flow
//
// Every data-bearing route passes through the auth gate: a valid session
// token proceeds, an expired token with a refresh token is refreshed and
// stored exactly once, and anything else redirects to the provider's
// authorization URL with a session-scoped state nonce. Refresh failures are
// treated as "not logged in", never surfaced as errors.
//
// # Error Pages
//
// Pipeline errors map to user-visible pages: insufficient listening data and
// failed playlist creation render flash-style retry messages (the latter via
// a "message" query parameter on redirect), upstream API failures render a
// generic "service unavailable" page with status 502, and unknown routes get
// the 404 page. A request never surfaces a raw error or crash.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/cover"
	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/server"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the application's routes.
type Handler struct {
	provider services.Provider
	tokens   server.TokenStore
	cover    *cover.Generator
	logger   *log.Logger
	playlist shared.PlaylistConfig
	tmpl     *template.Template
}

// New constructs the web handler with its dependencies.
func New(provider services.Provider, tokens server.TokenStore, coverGen *cover.Generator, playlist shared.PlaylistConfig, logger *log.Logger) (*Handler, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"duration": shared.FormatDuration,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handler{
		provider: provider,
		tokens:   tokens,
		cover:    coverGen,
		logger:   logger,
		playlist: playlist,
		tmpl:     tmpl,
	}, nil
}

// Register attaches the handler's routes to the router. The bare "/"
// fallback serves the 404 page for everything no other pattern matches.
func (h *Handler) Register(router server.Router) {
	router.Handle("GET /{$}", http.HandlerFunc(h.Home))
	router.Handle("GET /login", http.HandlerFunc(h.Login))
	router.Handle("GET /callback", http.HandlerFunc(h.Callback))
	router.Handle("GET /get_top_artists", http.HandlerFunc(h.Recommendations))
	router.Handle("POST /get_top_artists", http.HandlerFunc(h.CreatePlaylist))
	router.Handle("GET /success", http.HandlerFunc(h.Success))
	router.Handle("GET /logout", http.HandlerFunc(h.Logout))
	router.Handle("/", http.HandlerFunc(h.NotFound))
}

// pageData is the payload handed to every template.
type pageData struct {
	Title   string
	Nonce   string
	Message string

	Discovery    *models.Discovery
	PlaylistName string
	PlaylistURL  string
	CoverDataURI template.URL
}

// render executes a named page template; a template failure after the header
// is written is logged, not surfaced.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.Nonce = server.NonceFrom(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, page, data); err != nil {
		h.logger.Error("template render failed", "page", page, "error", err)
	}
}
