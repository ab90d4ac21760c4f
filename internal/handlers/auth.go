package handlers

import (
	"net/http"

	"github.com/assoportal/pollengine/internal/auth"
)

// handleLogin processes an admin login attempt and issues a session token
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	token, ok := h.Auth.LoginAdmin(req.Password)
	if !ok {
		respondError(w, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, LoginResponse{Token: token})
}

// handleLogout clears the session cookie
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

// handleMe returns the caller's authenticated identity
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, ErrUnauthorized)
		return
	}
	respondOK(w, MeResponse{MemberID: identity.MemberID, Role: string(identity.Role)})
}
