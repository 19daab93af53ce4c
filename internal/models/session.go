package models

import "time"

// StoredMessage is one half of a persisted exchange as the chat-store
// backend returns it.
type StoredMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StoredExchange is a persisted user/assistant pair.
type StoredExchange struct {
	ID          string        `json:"_id,omitempty"`
	UserMessage StoredMessage `json:"userMessage"`
	AIResponse  StoredMessage `json:"aiResponse"`
}

// Session is a server-persisted conversation. ID is empty while the
// conversation only exists in the local buffer; the backend assigns it on
// the first successful save. IsLocal marks client-buffer sessions that have
// never been persisted, and such sessions are never mixed into a
// backend-sourced list without an explicit merge.
type Session struct {
	ID       string           `json:"_id"`
	Title    string           `json:"title"`
	Messages []StoredExchange `json:"messages"`
	IsLocal  bool             `json:"is_local,omitempty"`
}

// Flatten expands the stored pairs into a transcript that alternates
// user, assistant, user, assistant, starting with the user message.
func (s *Session) Flatten() []Message {
	out := make([]Message, 0, len(s.Messages)*2)
	for _, ex := range s.Messages {
		out = append(out,
			Message{Role: "user", Content: ex.UserMessage.Content, Timestamp: ex.UserMessage.Timestamp},
			Message{Role: "assistant", Content: ex.AIResponse.Content, Timestamp: ex.AIResponse.Timestamp},
		)
	}
	return out
}

// SaveExchangeRequest is the chat-store payload persisting one exchange.
type SaveExchangeRequest struct {
	Message    string `json:"message"`
	AIResponse string `json:"aiResponse"`
	SessionID  string `json:"sessionId,omitempty"`
	IsNewChat  bool   `json:"isNewChat"`
	Role       string `json:"role"`
}

// SaveExchangeResponse wraps the updated or newly created session.
type SaveExchangeResponse struct {
	Session *Session `json:"session"`
}

type HistoryResponse struct {
	Sessions []Session `json:"sessions"`
}

// SessionEnvelope and MessageEnvelope are the chat-store backend's wire
// shapes for single-object fetches.
type SessionEnvelope struct {
	Session *Session `json:"session"`
}

type MessageEnvelope struct {
	Message *StoredExchange `json:"message"`
}

// SessionResponse carries a rehydrated session as a flat transcript
// alternating user and assistant entries.
type SessionResponse struct {
	SessionID string    `json:"session_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
}

type MessageDetailResponse struct {
	Exchange StoredExchange `json:"exchange"`
}
