package server

import (
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Password string `json:"password"`
}

type authStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// handleLogin handles POST /api/login. On success it sets an httpOnly
// session cookie and returns the token for header-based clients.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "password is required")
		return
	}

	hash := s.app.Config.Auth.PasswordHash
	if hash == "" {
		WriteError(w, http.StatusInternalServerError, "Login is not configured")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("Login attempt with wrong password")
		WriteError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	now := time.Now()
	token, err := signSessionToken(s.app.Config, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sign session token")
		WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	expiry := s.app.Config.Auth.GetTokenExpiry()
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  now.Add(expiry),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.app.Config.IsProduction(),
	})

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(expiry.Seconds()),
	})
}

// handleLogout handles POST /api/logout by clearing the session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// handleAuthStatus handles GET /api/auth/status. It never returns 401 so
// the UI can probe session state without tripping error handling.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	authenticated := false
	if cookie, err := r.Cookie("token"); err == nil {
		if validateSessionToken(cookie.Value, []byte(s.app.Config.Auth.JWTSecret)) == nil {
			authenticated = true
		}
	}

	WriteJSON(w, http.StatusOK, authStatusResponse{Authenticated: authenticated})
}
