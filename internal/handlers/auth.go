package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"clarity-gateway/internal/middleware"
	"clarity-gateway/internal/models"
	"clarity-gateway/internal/session"
)

type authClient interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
}

type AuthHandler struct {
	authService authClient
	registry    *session.Registry
}

func NewAuthHandler(authService authClient, registry *session.Registry) *AuthHandler {
	return &AuthHandler{authService: authService, registry: registry}
}

// Signup proxies account creation to the auth backend. On success the
// token is fed into the client's auth state, which replays any buffered
// anonymous exchanges into a persisted session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.finishLogin(w, r, result)
}

// Login proxies authentication to the auth backend and triggers the same
// replay path as Signup.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.finishLogin(w, r, result)
}

func (h *AuthHandler) finishLogin(w http.ResponseWriter, r *http.Request, result *models.AuthResult) {
	resp := models.AuthResponse{Token: result.Token, User: result.User}

	// Anonymous exchanges live under the client id. Without one there is
	// nothing to replay, so the login simply returns the token.
	if clientID := middleware.GetClientID(r.Context()); clientID != "" {
		cl := h.registry.Client(clientID)
		cl.Auth.Set(result.Token)
		resp.SessionID = cl.Reconciler.SessionID()
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout clears the client's auth state and session slots. The token
// itself is the backend's concern; the gateway only drops its local state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if clientID := middleware.GetClientID(r.Context()); clientID != "" {
		cl := h.registry.Client(clientID)
		cl.Auth.Set("")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
