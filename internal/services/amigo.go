package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"clarity-gateway/internal/models"
)

// Persona chat paths on the Amigo service. Unknown personas fall back to
// the friend persona, matching the UI's default.
var personaPaths = map[string]string{
	"friend":       "/api/chroma/friend/chat",
	"mentor":       "/api/chroma/mentor/chat",
	"collegebuddy": "/api/chroma/collegebuddy/chat",
}

const DefaultPersona = "friend"

// AmigoService is the client for the conversational-AI backend.
type AmigoService struct {
	baseURL    string
	httpClient *http.Client
}

func NewAmigoService(baseURL string, timeout time.Duration) *AmigoService {
	return &AmigoService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Ask sends the user message plus the visible transcript to the persona
// endpoint and returns the answer with any domain labels the AI attached.
func (s *AmigoService) Ask(ctx context.Context, persona, message string, history []models.Message) (*models.AmigoResponse, error) {
	path, ok := personaPaths[persona]
	if !ok {
		path = personaPaths[DefaultPersona]
	}

	var resp models.AmigoResponse
	err := doJSON(ctx, s.httpClient, http.MethodPost, s.baseURL+path, "", models.AmigoRequest{
		Message: message,
		History: history,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
