package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/discojam/internal/shared"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"
)

const (
	sessionName = "discojam_session"

	tokenKey = "token"
	stateKey = "oauth_state"
)

// TokenStore abstracts the per-browser-session token cache so handlers and
// tests never touch cookie mechanics directly.
type TokenStore interface {
	// Token returns the cached token, or shared.ErrNotAuthenticated when the
	// session has none.
	Token(r *http.Request) (*oauth2.Token, error)

	// SetToken overwrites the cached token.
	SetToken(w http.ResponseWriter, r *http.Request, tok *oauth2.Token) error

	// Clear drops the whole session (token and state).
	Clear(w http.ResponseWriter, r *http.Request) error

	// SetState stores the OAuth CSRF state nonce for the pending authorization.
	SetState(w http.ResponseWriter, r *http.Request, state string) error

	// TakeState returns and removes the stored state nonce.
	TakeState(w http.ResponseWriter, r *http.Request) (string, error)
}

// SessionStore implements [TokenStore] on top of a gorilla/sessions cookie
// store. Tokens are JSON-encoded into the session; the cookie is signed with
// the configured session secret.
type SessionStore struct {
	store *sessions.CookieStore
}

var _ TokenStore = (*SessionStore)(nil)

// NewSessionStore creates a cookie-backed session store.
//
// secure controls the cookie Secure flag and should be true in production.
func NewSessionStore(secret string, secure bool) *SessionStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionStore{store: store}
}

func (s *SessionStore) session(r *http.Request) *sessions.Session {
	// Get never fails fatally for a cookie store: a bad or missing cookie
	// yields a fresh session, which reads as "not authenticated" downstream.
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

// Token returns the cached token for this browser session.
func (s *SessionStore) Token(r *http.Request) (*oauth2.Token, error) {
	sess := s.session(r)

	raw, ok := sess.Values[tokenKey].(string)
	if !ok || raw == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("%w: corrupt session token", shared.ErrNotAuthenticated)
	}
	return &tok, nil
}

// SetToken overwrites the cached token.
func (s *SessionStore) SetToken(w http.ResponseWriter, r *http.Request, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	sess := s.session(r)
	sess.Values[tokenKey] = string(raw)
	return sess.Save(r, w)
}

// Clear drops the session.
func (s *SessionStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SetState stores the OAuth CSRF state nonce.
func (s *SessionStore) SetState(w http.ResponseWriter, r *http.Request, state string) error {
	sess := s.session(r)
	sess.Values[stateKey] = state
	return sess.Save(r, w)
}

// TakeState returns and removes the stored state nonce.
func (s *SessionStore) TakeState(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := s.session(r)

	state, ok := sess.Values[stateKey].(string)
	if !ok || state == "" {
		return "", shared.ErrInvalidState
	}

	delete(sess.Values, stateKey)
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}
