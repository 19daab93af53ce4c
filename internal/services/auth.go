package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"clarity-gateway/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthService proxies signup and login to the external auth backend. The
// gateway validates shape, forwards credentials verbatim, and never stores
// or hashes them.
type AuthService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAuthService(baseURL string, timeout time.Duration) *AuthService {
	return &AuthService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}
	return s.post(ctx, "/auth/signup", req)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return nil, err
	}
	return s.post(ctx, "/auth/login", req)
}

func (s *AuthService) post(ctx context.Context, path string, body interface{}) (*models.AuthResult, error) {
	var result models.AuthResult
	if err := doJSON(ctx, s.httpClient, http.MethodPost, s.baseURL+path, "", body, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &UnauthorizedError{Message: "No authentication token received"}
	}
	return &result, nil
}

func validateCredentials(email, password string) error {
	fieldErrors := make(map[string]string)

	if !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if password == "" {
		fieldErrors["password"] = "Password is required"
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Fields: fieldErrors}
	}
	return nil
}
