package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clarity-gateway/internal/extract"
	"clarity-gateway/internal/middleware"
	"clarity-gateway/internal/models"
	"clarity-gateway/internal/services"
	"clarity-gateway/internal/session"
)

type amigoClient interface {
	Ask(ctx context.Context, persona, message string, history []models.Message) (*models.AmigoResponse, error)
}

type historyStore interface {
	History(ctx context.Context, token string) ([]models.Session, error)
	GetMessage(ctx context.Context, token, messageID string) (*models.StoredExchange, error)
}

type learningQueue interface {
	Enqueue(ctx context.Context, payload models.LearningItemPayload) error
}

type ChatHandler struct {
	registry  *session.Registry
	amigo     amigoClient
	chatStore historyStore
	queue     learningQueue
}

func NewChatHandler(registry *session.Registry, amigo amigoClient, chatStore historyStore, queue learningQueue) *ChatHandler {
	return &ChatHandler{
		registry:  registry,
		amigo:     amigo,
		chatStore: chatStore,
		queue:     queue,
	}
}

// Send runs the full message pipeline: ask the persona AI, extract tasks
// and resources from the answer, merge the ledger, queue the learning-item
// sync, and record the exchange for the client's session state.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message is required", r))
		return
	}

	persona := req.Persona
	if persona == "" {
		persona = services.DefaultPersona
	}

	// First contact from a fresh browser has no client id yet. Mint one
	// and hand it back so the browser pins it for the rest of the session.
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		clientID = uuid.New().String()
	}

	cl := h.registry.Client(clientID)
	token := middleware.GetToken(r.Context())
	cl.Auth.Set(token)

	resp, err := h.amigo.Ask(r.Context(), persona, req.Message, req.History)
	if err != nil {
		// The transcript stays coherent: failures in the conversational
		// path come back as an assistant-role message, and the exchange
		// is never recorded anywhere.
		writeJSON(w, http.StatusOK, models.SendResponse{
			Answer:    amigoErrorMessage(err),
			Error:     true,
			ClientID:  clientID,
			Tasks:     []models.ExtractedItem{},
			Resources: []models.ExtractedItem{},
		})
		return
	}

	taskLines := extract.TaskLines(resp.Answer)
	resourceLines := extract.ResourceLines(resp.Answer)
	skill := extract.InferSkill(resp.Answer)

	// The UI iterates these unconditionally, so they are always arrays.
	tasks := extract.GroupItems(taskLines, models.ItemTask)
	if tasks == nil {
		tasks = []models.ExtractedItem{}
	}
	resources := extract.GroupItems(resourceLines, models.ItemResource)
	if resources == nil {
		resources = []models.ExtractedItem{}
	}
	cl.Ledger.Merge(skill, tasks, resources)

	userID := middleware.GetUserID(r.Context())
	if token != "" && userID != "" && skill != "" && (len(taskLines) > 0 || len(resourceLines) > 0) {
		payload := services.BuildPayload(userID, persona, skill, taskLines, resourceLines)
		if err := h.queue.Enqueue(r.Context(), payload); err != nil {
			log.Printf("client %s: learning enqueue failed: %v", clientID, err)
		}
	}

	cl.Reconciler.RecordExchange(r.Context(), token, req.Message, resp.Answer, persona)

	out := models.SendResponse{
		Answer:    resp.Answer,
		ClientID:  clientID,
		SessionID: cl.Reconciler.SessionID(),
		Skill:     skill,
		Tasks:     tasks,
		Resources: resources,
	}
	if token == "" {
		out.PromptSignup = cl.BumpAnonExchanges()
	}

	writeJSON(w, http.StatusOK, out)
}

func amigoErrorMessage(err error) string {
	if e, ok := err.(*services.ServerError); ok {
		return fmt.Sprintf("Amigo: Server Error (%d): %s", e.Status, e.Message)
	}
	return "Amigo: I can't reach my server. Please check if the backend services are running."
}

// Select rehydrates a persisted session into the client's current state.
func (h *ChatHandler) Select(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Session ID is required", r))
		return
	}

	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Client-ID is required", r))
		return
	}

	cl := h.registry.Client(clientID)
	token := middleware.GetToken(r.Context())
	cl.Auth.Set(token)

	sess, err := cl.Reconciler.SelectSession(r.Context(), token, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionID: sess.ID,
		Title:     sess.Title,
		Messages:  sess.Flatten(),
	})
}

// NewChat clears the client's buffer and current session.
func (h *ChatHandler) NewChat(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Client-ID is required", r))
		return
	}

	cl := h.registry.Client(clientID)
	cl.Reconciler.Reset(r.Context())

	writeJSON(w, http.StatusOK, map[string]string{"message": "New chat started"})
}

// Current returns the session named by the client's current-session slot,
// used by the UI to restore the transcript after a reload.
func (h *ChatHandler) Current(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Client-ID is required", r))
		return
	}

	cl := h.registry.Client(clientID)
	token := middleware.GetToken(r.Context())
	cl.Auth.Set(token)

	sess, err := cl.Reconciler.Current(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusOK, models.SessionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, models.SessionResponse{
		SessionID: sess.ID,
		Title:     sess.Title,
		Messages:  sess.Flatten(),
	})
}

// History proxies the chat-store session list.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())

	sessions, err := h.chatStore.History(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.HistoryResponse{Sessions: sessions})
}

// MessageDetail proxies a single stored exchange.
func (h *ChatHandler) MessageDetail(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "id")
	if messageID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message ID is required", r))
		return
	}

	token := middleware.GetToken(r.Context())
	exchange, err := h.chatStore.GetMessage(r.Context(), token, messageID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageDetailResponse{Exchange: *exchange})
}

// Skills returns the client's accumulated ledger for the picker UI.
func (h *ChatHandler) Skills(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.GetClientID(r.Context())
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "X-Client-ID is required", r))
		return
	}

	cl := h.registry.Client(clientID)
	writeJSON(w, http.StatusOK, cl.Ledger.All())
}
