package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clarity-gateway/internal/models"
)

// ChatStoreService is the client for the external chat persistence backend.
// All calls are bearer-token authenticated with the token the auth backend
// issued to the user; the gateway never mints credentials of its own.
type ChatStoreService struct {
	baseURL    string
	httpClient *http.Client
}

func NewChatStoreService(baseURL string, timeout time.Duration) *ChatStoreService {
	return &ChatStoreService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SaveExchange persists one user/assistant pair and returns the updated or
// newly created session, including its backend-assigned id.
func (s *ChatStoreService) SaveExchange(ctx context.Context, token string, req models.SaveExchangeRequest) (*models.Session, error) {
	var resp models.SaveExchangeResponse
	err := doJSON(ctx, s.httpClient, http.MethodPost, s.baseURL+"/chat/save", token, req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Session == nil {
		return nil, fmt.Errorf("chat store returned no session")
	}
	return resp.Session, nil
}

// History lists the user's persisted sessions.
func (s *ChatStoreService) History(ctx context.Context, token string) ([]models.Session, error) {
	var resp models.HistoryResponse
	err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/chat/history", token, nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// GetSession fetches one session by id.
func (s *ChatStoreService) GetSession(ctx context.Context, token, sessionID string) (*models.Session, error) {
	var resp models.SessionEnvelope
	err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/chat/session/"+sessionID, token, nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Session == nil {
		return nil, &NotFoundError{Message: "Session not found"}
	}
	return resp.Session, nil
}

// GetMessage fetches one full exchange for the detail view.
func (s *ChatStoreService) GetMessage(ctx context.Context, token, messageID string) (*models.StoredExchange, error) {
	var resp models.MessageEnvelope
	err := doJSON(ctx, s.httpClient, http.MethodGet, s.baseURL+"/chat/"+messageID, token, nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Message == nil {
		return nil, &NotFoundError{Message: "Message not found"}
	}
	return resp.Message, nil
}
