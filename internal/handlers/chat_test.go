package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clarity-gateway/internal/middleware"
	"clarity-gateway/internal/models"
	"clarity-gateway/internal/services"
	"clarity-gateway/internal/session"
)

type stubBufferStore struct {
	buffers map[string][]models.BufferedMessage
	current map[string]string
}

func newStubBufferStore() *stubBufferStore {
	return &stubBufferStore{
		buffers: make(map[string][]models.BufferedMessage),
		current: make(map[string]string),
	}
}

func (s *stubBufferStore) LoadBuffer(_ context.Context, clientID string) ([]models.BufferedMessage, error) {
	return s.buffers[clientID], nil
}

func (s *stubBufferStore) SaveBuffer(_ context.Context, clientID string, msgs []models.BufferedMessage) error {
	s.buffers[clientID] = msgs
	return nil
}

func (s *stubBufferStore) ClearBuffer(_ context.Context, clientID string) error {
	delete(s.buffers, clientID)
	return nil
}

func (s *stubBufferStore) CurrentSession(_ context.Context, clientID string) (string, error) {
	return s.current[clientID], nil
}

func (s *stubBufferStore) SetCurrentSession(_ context.Context, clientID, sessionID string) error {
	s.current[clientID] = sessionID
	return nil
}

func (s *stubBufferStore) ClearCurrentSession(_ context.Context, clientID string) error {
	delete(s.current, clientID)
	return nil
}

type stubChatStore struct {
	saves    []models.SaveExchangeRequest
	sessions map[string]*models.Session
	nextID   int
}

func newStubChatStore() *stubChatStore {
	return &stubChatStore{sessions: make(map[string]*models.Session)}
}

func (s *stubChatStore) SaveExchange(_ context.Context, token string, req models.SaveExchangeRequest) (*models.Session, error) {
	s.saves = append(s.saves, req)
	id := req.SessionID
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("sess-%d", s.nextID)
		s.sessions[id] = &models.Session{ID: id}
	}
	sess := s.sessions[id]
	sess.Messages = append(sess.Messages, models.StoredExchange{
		UserMessage: models.StoredMessage{Content: req.Message},
		AIResponse:  models.StoredMessage{Content: req.AIResponse},
	})
	return sess, nil
}

func (s *stubChatStore) GetSession(_ context.Context, token, sessionID string) (*models.Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, &services.NotFoundError{Message: "Session not found"}
	}
	return sess, nil
}

func (s *stubChatStore) History(_ context.Context, token string) ([]models.Session, error) {
	var out []models.Session
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	return out, nil
}

func (s *stubChatStore) GetMessage(_ context.Context, token, messageID string) (*models.StoredExchange, error) {
	return nil, &services.NotFoundError{Message: "Message not found"}
}

type stubAmigo struct {
	answer string
	err    error
}

func (s *stubAmigo) Ask(_ context.Context, persona, message string, history []models.Message) (*models.AmigoResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.AmigoResponse{Answer: s.answer}, nil
}

type stubQueue struct {
	payloads []models.LearningItemPayload
}

func (s *stubQueue) Enqueue(_ context.Context, payload models.LearningItemPayload) error {
	s.payloads = append(s.payloads, payload)
	return nil
}

const richAnswer = "Here you go!\n" +
	"### Task List for Python\n" +
	"1. **Install Python**\n" +
	"Download from python.org\n" +
	"2. **Write a script**\n" +
	"## Resources\n" +
	"1. **Official docs**\n" +
	"## Next steps\n" +
	"Keep practicing."

func newTestChatHandler(amigo *stubAmigo, queue *stubQueue) (*ChatHandler, *stubBufferStore, *stubChatStore, *session.Registry) {
	buf := newStubBufferStore()
	chat := newStubChatStore()
	registry := session.NewRegistry(buf, chat, nil)
	return NewChatHandler(registry, amigo, chat, queue), buf, chat, registry
}

func sendRequest(t *testing.T, h *ChatHandler, body models.SendRequest, clientID, token string) (*httptest.ResponseRecorder, models.SendResponse) {
	t.Helper()

	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/send", bytes.NewReader(data))
	ctx := req.Context()
	if clientID != "" {
		ctx = context.WithValue(ctx, middleware.ClientIDKey, clientID)
	}
	if token != "" {
		ctx = context.WithValue(ctx, middleware.TokenKey, token)
		ctx = context.WithValue(ctx, middleware.UserIDKey, "user-1")
	}
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.Send(rec, req)

	var resp models.SendResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return rec, resp
}

func TestSend_AnonymousExtractsAndBuffers(t *testing.T) {
	amigo := &stubAmigo{answer: richAnswer}
	queue := &stubQueue{}
	h, buf, chat, _ := newTestChatHandler(amigo, queue)

	clientID := uuid.New().String()
	rec, resp := sendRequest(t, h, models.SendRequest{Message: "teach me python"}, clientID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Skill != "Python" {
		t.Errorf("Expected skill Python, got %q", resp.Skill)
	}
	if len(resp.Tasks) != 2 {
		t.Errorf("Expected 2 tasks, got %d: %+v", len(resp.Tasks), resp.Tasks)
	}
	if len(resp.Resources) != 1 {
		t.Errorf("Expected 1 resource, got %d", len(resp.Resources))
	}
	if resp.ClientID != clientID {
		t.Errorf("Expected echoed client id, got %q", resp.ClientID)
	}

	if len(buf.buffers[clientID]) != 2 {
		t.Errorf("Expected buffered pair, got %d entries", len(buf.buffers[clientID]))
	}
	if len(chat.saves) != 0 {
		t.Error("Anonymous exchange must not reach the chat store")
	}
	if len(queue.payloads) != 0 {
		t.Error("Anonymous exchange must not enqueue learning items")
	}
}

func TestSend_MintsClientIDWhenAbsent(t *testing.T) {
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: "plain answer"}, &stubQueue{})

	rec, resp := sendRequest(t, h, models.SendRequest{Message: "hi"}, "", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if _, err := uuid.Parse(resp.ClientID); err != nil {
		t.Errorf("Expected minted UUID client id, got %q", resp.ClientID)
	}
}

func TestSend_PromptSignupEveryThirdExchange(t *testing.T) {
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: "plain answer"}, &stubQueue{})

	clientID := uuid.New().String()
	for i := 1; i <= 6; i++ {
		_, resp := sendRequest(t, h, models.SendRequest{Message: "hi"}, clientID, "")
		want := i%3 == 0
		if resp.PromptSignup != want {
			t.Errorf("Exchange %d: expected prompt_signup=%v, got %v", i, want, resp.PromptSignup)
		}
	}
}

func TestSend_AuthenticatedPersistsAndEnqueues(t *testing.T) {
	queue := &stubQueue{}
	h, buf, chat, _ := newTestChatHandler(&stubAmigo{answer: richAnswer}, queue)

	clientID := uuid.New().String()
	rec, resp := sendRequest(t, h, models.SendRequest{Message: "teach me python", Persona: "mentor"}, clientID, "tok")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("Expected session id from save, got %q", resp.SessionID)
	}
	if resp.PromptSignup {
		t.Error("Authenticated exchanges never prompt for signup")
	}
	if len(chat.saves) != 1 || chat.saves[0].Role != "mentor" {
		t.Errorf("Expected one persisted exchange with persona role, got %+v", chat.saves)
	}
	if len(buf.buffers[clientID]) != 0 {
		t.Error("Authenticated exchange must not buffer")
	}

	if len(queue.payloads) != 1 {
		t.Fatalf("Expected one learning payload, got %d", len(queue.payloads))
	}
	p := queue.payloads[0]
	if p.UserID != "user-1" || p.Skill != "Python" || p.Persona != "mentor" {
		t.Errorf("Unexpected payload identity: %+v", p)
	}
	if len(p.Items) != 3 {
		t.Errorf("Expected 3 learning items (2 tasks + 1 resource), got %d", len(p.Items))
	}
}

func TestSend_NoSkillSkipsLearningSync(t *testing.T) {
	answer := "## Task List\n1. **Do a thing**\nno skill heading here"
	queue := &stubQueue{}
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: answer}, queue)

	_, resp := sendRequest(t, h, models.SendRequest{Message: "hi"}, uuid.New().String(), "tok")

	if resp.Skill != "" {
		t.Errorf("Expected no skill, got %q", resp.Skill)
	}
	if len(queue.payloads) != 0 {
		t.Error("Learning sync requires an inferred skill")
	}
}

func TestSend_AmigoServerErrorReturnsAssistantMessage(t *testing.T) {
	amigo := &stubAmigo{err: &services.ServerError{Status: 500, Message: "model exploded"}}
	h, buf, chat, _ := newTestChatHandler(amigo, &stubQueue{})

	clientID := uuid.New().String()
	rec, resp := sendRequest(t, h, models.SendRequest{Message: "hi"}, clientID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("AI failures stay in the transcript: expected 200, got %d", rec.Code)
	}
	if !resp.Error {
		t.Error("Expected error flag set")
	}
	if resp.Answer != "Amigo: Server Error (500): model exploded" {
		t.Errorf("Unexpected error answer: %q", resp.Answer)
	}
	if len(buf.buffers[clientID]) != 0 || len(chat.saves) != 0 {
		t.Error("Failed exchanges must not be recorded anywhere")
	}
}

func TestSend_AmigoTransportErrorReturnsGenericMessage(t *testing.T) {
	amigo := &stubAmigo{err: &services.TransportError{Endpoint: "amigo", Err: errors.New("refused")}}
	h, _, _, _ := newTestChatHandler(amigo, &stubQueue{})

	_, resp := sendRequest(t, h, models.SendRequest{Message: "hi"}, uuid.New().String(), "")

	if resp.Answer != "Amigo: I can't reach my server. Please check if the backend services are running." {
		t.Errorf("Unexpected error answer: %q", resp.Answer)
	}
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: "x"}, &stubQueue{})

	rec, _ := sendRequest(t, h, models.SendRequest{Message: "   "}, uuid.New().String(), "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestSelect_RehydratesTranscript(t *testing.T) {
	h, _, chat, _ := newTestChatHandler(&stubAmigo{answer: "x"}, &stubQueue{})
	chat.sessions["s1"] = &models.Session{ID: "s1", Title: "Python basics", Messages: []models.StoredExchange{
		{UserMessage: models.StoredMessage{Content: "u1"}, AIResponse: models.StoredMessage{Content: "a1"}},
	}}

	r := chi.NewRouter()
	r.Post("/select/{id}", h.Select)

	clientID := uuid.New().String()
	req := httptest.NewRequest(http.MethodPost, "/select/s1", nil)
	ctx := context.WithValue(req.Context(), middleware.ClientIDKey, clientID)
	ctx = context.WithValue(ctx, middleware.TokenKey, "tok")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp models.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.SessionID != "s1" {
		t.Errorf("Expected session s1, got %q", resp.SessionID)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].Role != "user" || resp.Messages[1].Role != "assistant" {
		t.Errorf("Expected alternating transcript, got %+v", resp.Messages)
	}
}

func getCurrent(t *testing.T, h *ChatHandler, clientID string) (*httptest.ResponseRecorder, models.SessionResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/current", nil)
	ctx := context.WithValue(req.Context(), middleware.ClientIDKey, clientID)
	ctx = context.WithValue(ctx, middleware.TokenKey, "tok")
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Current(rec, req)

	var resp models.SessionResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return rec, resp
}

func TestCurrent_RestoresAfterReload(t *testing.T) {
	h, buf, chat, _ := newTestChatHandler(&stubAmigo{answer: "x"}, &stubQueue{})
	chat.sessions["s3"] = &models.Session{ID: "s3", Messages: []models.StoredExchange{
		{UserMessage: models.StoredMessage{Content: "u1"}, AIResponse: models.StoredMessage{Content: "a1"}},
	}}

	clientID := uuid.New().String()
	buf.current[clientID] = "s3"

	rec, resp := getCurrent(t, h, clientID)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.SessionID != "s3" {
		t.Errorf("Expected restored session s3, got %q", resp.SessionID)
	}
	if len(resp.Messages) != 2 || resp.Messages[0].Role != "user" {
		t.Errorf("Expected rehydrated transcript, got %+v", resp.Messages)
	}
}

func TestCurrent_NoSlotReturnsEmpty(t *testing.T) {
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: "x"}, &stubQueue{})

	rec, resp := getCurrent(t, h, uuid.New().String())

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if resp.SessionID != "" || len(resp.Messages) != 0 {
		t.Errorf("Expected empty response for a fresh client, got %+v", resp)
	}
}

func TestSend_EmptyExtractionYieldsArrays(t *testing.T) {
	h, _, _, _ := newTestChatHandler(&stubAmigo{answer: "just chatting, no sections"}, &stubQueue{})

	rec, _ := sendRequest(t, h, models.SendRequest{Message: "hi"}, uuid.New().String(), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	for _, key := range []string{"tasks", "resources"} {
		if string(raw[key]) != "[]" {
			t.Errorf("Expected %s to be an empty array, got %s", key, raw[key])
		}
	}
}

func TestSkills_ReturnsLedger(t *testing.T) {
	h, _, _, registry := newTestChatHandler(&stubAmigo{answer: richAnswer}, &stubQueue{})

	clientID := uuid.New().String()
	sendRequest(t, h, models.SendRequest{Message: "teach me python"}, clientID, "")

	req := httptest.NewRequest(http.MethodGet, "/skills", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClientIDKey, clientID))
	rec := httptest.NewRecorder()
	h.Skills(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var buckets map[string]models.SkillBucket
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	bucket, ok := buckets["Python"]
	if !ok {
		t.Fatalf("Expected Python bucket, got %v", buckets)
	}
	if len(bucket.Tasks) != 2 || len(bucket.Resources) != 1 {
		t.Errorf("Unexpected bucket contents: %+v", bucket)
	}

	// Ledger accumulates across exchanges for the same client.
	sendRequest(t, h, models.SendRequest{Message: "more python"}, clientID, "")
	if got := registry.Client(clientID).Ledger.Get("Python"); len(got.Tasks) != 4 {
		t.Errorf("Expected 4 accumulated tasks, got %d", len(got.Tasks))
	}
}
