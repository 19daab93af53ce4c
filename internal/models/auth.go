package models

// SignupRequest and LoginRequest are proxied verbatim to the auth backend.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the slice of the backend user object the gateway cares about.
type AuthUser struct {
	ID string `json:"id"`
}

// AuthResult is the auth backend's reply to signup and login.
type AuthResult struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthResponse is what the gateway returns to the UI after signup or login.
// SessionID is set when a buffered anonymous conversation was replayed into
// a backend session during the auth transition.
type AuthResponse struct {
	Token     string   `json:"token"`
	User      AuthUser `json:"user"`
	SessionID string   `json:"session_id,omitempty"`
}
