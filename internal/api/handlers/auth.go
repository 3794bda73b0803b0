package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"teltrip/internal/auth"
	"teltrip/internal/core"
	"teltrip/internal/types"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthHandler serves the dashboard login and logout endpoints.
type AuthHandler struct {
	sessions *auth.Service
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(sessions *auth.Service, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the auth endpoints. These stay outside the session
// guard.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
}

// HandleLogin verifies credentials and sets the session cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationBadRequest, "invalid JSON body", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "username and password are required", err))
		return
	}

	sess, err := h.sessions.Login(req.Username, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     core.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	core.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// HandleLogout invalidates the session and clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(core.SessionCookieName); err == nil {
		h.sessions.Logout(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     core.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	core.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
