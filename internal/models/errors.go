package models

// APIError is the error envelope returned by every endpoint.
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WarningEvent is a background notice pushed to clients over the websocket
// feed. It covers failures that must not interrupt the conversation, such
// as a failed per-message save or a dropped learning-item batch.
type WarningEvent struct {
	Type    string `json:"type"` // always "warning"
	Code    string `json:"code"`
	Message string `json:"message"`
}
