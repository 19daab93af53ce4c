package models

import "time"

// Message is a single entry in a conversation transcript.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// BufferedMessage is the wire form of one pending transcript entry for an
// anonymous client. The whole buffer is stored as a single JSON array and
// rewritten wholesale on every change.
type BufferedMessage struct {
	Type      string    `json:"type"` // "user" or "ai"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"` // persona active when the exchange happened
}

// AmigoRequest is the payload for the persona chat endpoint.
type AmigoRequest struct {
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// AmigoResponse is the persona chat reply.
type AmigoResponse struct {
	Answer  string   `json:"answer"`
	Domains []string `json:"domains"`
}

// SendRequest is what the UI posts to /chat/send. The browser keeps the
// visible transcript, so it supplies the history for the AI call.
type SendRequest struct {
	Message string    `json:"message"`
	Persona string    `json:"persona"`
	History []Message `json:"history"`
}

// SendResponse carries the AI answer plus everything extracted from it.
type SendResponse struct {
	Answer       string          `json:"answer"`
	Error        bool            `json:"error,omitempty"`
	ClientID     string          `json:"client_id"`
	SessionID    string          `json:"session_id,omitempty"`
	Skill        string          `json:"skill,omitempty"`
	Tasks        []ExtractedItem `json:"tasks"`
	Resources    []ExtractedItem `json:"resources"`
	PromptSignup bool            `json:"prompt_signup,omitempty"`
}
