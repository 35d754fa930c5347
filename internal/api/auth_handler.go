package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/service"
)

const sessionCookieName = "sessionToken"

// AuthHandler owns the login/logout/me endpoints and the cookie that carries
// the opaque session token. The cookie is only a carrier; the sessions table
// is the source of truth.
type AuthHandler struct {
	authSvc *service.AuthService
	store   *sessions.CookieStore
}

func NewAuthHandler(authSvc *service.AuthService, cookieKey string) *AuthHandler {
	store := sessions.NewCookieStore([]byte(cookieKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400, // matches the server-side 24h session lifetime
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   false, // set true behind HTTPS
	}

	return &AuthHandler{
		authSvc: authSvc,
		store:   store,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ErrInvalidCredentials)
		return
	}

	user, token, err := h.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	session, _ := h.store.Get(r, sessionCookieName)
	session.Values["token"] = token
	if err := session.Save(r, w); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.store.Get(r, sessionCookieName)
	if token, ok := session.Values["token"].(string); ok {
		h.authSvc.Logout(token)
	}
	session.Options.MaxAge = -1
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": CurrentUser(r)})
}

// Token extracts the bearer token from the request cookie, or "".
func (h *AuthHandler) Token(r *http.Request) string {
	session, err := h.store.Get(r, sessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := session.Values["token"].(string)
	return token
}

// RequireAuth resolves the session cookie to an account and attaches it to
// the request context, rejecting with AUTH_REQUIRED otherwise.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := h.authSvc.Validate(h.Token(r))
		if user == nil {
			writeError(w, core.ErrAuthRequired)
			return
		}
		next.ServeHTTP(w, withUser(r, user))
	})
}
